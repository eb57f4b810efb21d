package orchestrator

import (
	"context"
	"time"
)

// runTTSWorker is Component C6. It synthesizes each queued sentence and
// pushes the resulting audio onto audioQ tagged with the same
// generationId, so a stale sentence (from a generation cancelled after it
// was already queued) still produces a stale, droppable frame rather than
// blocking the pipeline.
func (o *Orchestrator) runTTSWorker() {
	defer o.wg.Done()
	for {
		select {
		case <-o.ctx.Done():
			return
		case chunk, ok := <-o.textQ:
			if !ok {
				return
			}
			o.synthesizeChunk(chunk)
		}
	}
}

func (o *Orchestrator) synthesizeChunk(chunk TextChunk) {
	if chunk.EndOfStream {
		o.forwardAudio(AudioFrame{GenerationID: chunk.GenerationID, EndOfStream: true})
		return
	}

	o.sess.mu.Lock()
	o.sess.ttsStatus = StatusProcessing
	o.sess.mu.Unlock()

	ctx, cancel := context.WithTimeout(o.ctx, o.cfg.TTSTimeout)
	defer cancel()

	start := time.Now()
	audio, err := o.tts.Synthesize(ctx, chunk.Text, o.sess.Voice, o.sess.Language)
	o.metrics.TTSDuration.Record(o.ctx, time.Since(start).Seconds())

	o.sess.mu.Lock()
	o.sess.ttsStatus = StatusIdle
	o.sess.mu.Unlock()

	if err != nil {
		// A single failed sentence does not abort the generation: the
		// listener hears a short gap rather than the whole reply dying.
		o.metrics.RecordProviderError(o.ctx, o.tts.Name(), "tts")
		o.logger.Warn("synthesis failed", "sessionID", o.sess.ID, "provider", o.tts.Name(), "generationID", chunk.GenerationID, "error", err)
		return
	}

	o.metrics.RecordProviderRequest(o.ctx, o.tts.Name(), "tts", "ok")

	o.sess.mu.Lock()
	if o.sess.generationID == chunk.GenerationID && o.sess.latency.TTSFirstChunkAt.IsZero() {
		o.sess.latency.TTSFirstChunkAt = time.Now()
	}
	o.sess.mu.Unlock()

	o.forwardAudio(AudioFrame{Audio: audio, GenerationID: chunk.GenerationID})
}

func (o *Orchestrator) forwardAudio(frame AudioFrame) {
	select {
	case o.audioQ <- frame:
	case <-o.ctx.Done():
	}
}
