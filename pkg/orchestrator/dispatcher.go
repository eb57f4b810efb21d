package orchestrator

import "time"

// Dispatch routes one inbound client event to the appropriate handler
// (spec.md §4.1, Component C2). It never blocks on downstream work itself:
// speech_end hands audio to the STT worker via a buffered channel send,
// and the playback-state events are simple mutex-guarded flag flips.
func (o *Orchestrator) Dispatch(ev ClientEvent) {
	switch ev.Type {
	case EventSpeechStart:
		o.handleSpeechStart()
	case EventSpeechEnd:
		o.handleSpeechEnd(ev.Audio)
	case EventClientPlaybackStarted:
		o.sess.mu.Lock()
		o.sess.clientPlaybackActive = true
		o.sess.mu.Unlock()
	case EventClientPlaybackComplete:
		o.sess.mu.Lock()
		o.sess.clientPlaybackActive = false
		if o.sess.agentStatus == StatusIdle {
			o.sess.responseInProgress = false
		}
		o.sess.mu.Unlock()
	default:
		o.logger.Warn("dropping unknown client event", "sessionID", o.sess.ID, "type", ev.Type)
	}
}

// handleSpeechStart is the Interruption Handler entry point (spec.md §4.2).
func (o *Orchestrator) handleSpeechStart() {
	o.sess.mu.Lock()
	idle := o.sess.isFullyIdle()
	if idle {
		o.sess.mu.Unlock()
		return
	}
	o.beginInterruption()
}

// handleSpeechEnd enqueues captured audio for transcription. A full
// sttJobQueue would indicate the speaker is producing utterances far faster
// than STT can drain them; in that pathological case we drop the oldest
// queued job rather than block the dispatcher forever.
func (o *Orchestrator) handleSpeechEnd(audio []byte) {
	if len(audio) < o.cfg.MinSTTAudioBytes {
		o.logger.Debug("dropping too-small utterance", "sessionID", o.sess.ID, "bytes", len(audio))
		return
	}

	o.sess.mu.Lock()
	o.sess.latency.UserStoppedAt = time.Now()
	o.sess.mu.Unlock()

	select {
	case o.sttJobs <- audio:
	default:
		select {
		case <-o.sttJobs:
		default:
		}
		select {
		case o.sttJobs <- audio:
		default:
			o.logger.Warn("sttJobQueue saturated, dropping utterance", "sessionID", o.sess.ID)
		}
	}
}
