package orchestrator

import (
	"context"
	"time"
)

// runSTTWorker is Component C3. It consumes sttJobs serially — utterances
// are transcribed in the order they were spoken — and feeds each result
// into sttOutputList before (re)scheduling the Decision Task.
func (o *Orchestrator) runSTTWorker() {
	defer o.wg.Done()
	for {
		select {
		case <-o.ctx.Done():
			return
		case audio, ok := <-o.sttJobs:
			if !ok {
				return
			}
			o.transcribeAndSchedule(audio)
		}
	}
}

func (o *Orchestrator) transcribeAndSchedule(audio []byte) {
	o.sess.mu.Lock()
	o.sess.sttStatus = StatusProcessing
	o.sess.mu.Unlock()

	ctx, cancel := context.WithTimeout(o.ctx, o.cfg.STTTimeout)
	defer cancel()

	start := time.Now()
	text, err := o.stt.Transcribe(ctx, audio, o.cfg.Language)
	o.metrics.STTDuration.Record(o.ctx, time.Since(start).Seconds())

	o.sess.mu.Lock()
	o.sess.sttStatus = StatusIdle
	if err != nil {
		o.metrics.RecordProviderError(o.ctx, o.stt.Name(), "stt")
		o.logger.Warn("transcription failed", "sessionID", o.sess.ID, "provider", o.stt.Name(), "error", err)
	} else {
		o.metrics.RecordProviderRequest(o.ctx, o.stt.Name(), "stt", "ok")
		if text != "" {
			o.sess.sttOutputList = append(o.sess.sttOutputList, text)
			o.sess.latency.STTFinalAt = time.Now()
		}
	}
	o.sess.mu.Unlock()

	o.scheduleDecision()
}
