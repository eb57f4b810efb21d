package orchestrator

// beginInterruption implements spec.md §4.2 steps 2-10, the "pause
// reaction". Callers must hold sess.mu and must already have confirmed
// the session is not fully idle (step 1 lives in handleSpeechStart); this
// method releases the lock before returning.
func (o *Orchestrator) beginInterruption() {
	o.sess.interruptionStatus = InterruptionProcessing
	o.sess.clientWasActiveBeforeInterruption = o.sess.clientPlaybackActive
	agentStatus := o.sess.agentStatus
	o.sess.playbackStatus = PlaybackPaused
	o.sess.mu.Unlock()

	o.send(ServerEvent{Event: ServerStopPlayback})

	o.drainSTTJobQueue()
	o.drainTextQueue()
	o.registry.CancelSession(o.sess.ID)

	// Only cancel if the LLM call hasn't started streaming a response yet.
	// Once streaming has begun, cancelling mid-stream often leaves upstream
	// HTTP connections in odd states; it's cheaper and more reliable to let
	// it finish and rely on generationId filtering to discard its output
	// (spec.md §4.2 step 9).
	if agentStatus == StatusProcessing {
		o.sess.mu.Lock()
		if o.sess.agentCancel != nil {
			o.sess.agentCancel()
		}
		o.sess.mu.Unlock()
	}

	o.sess.mu.Lock()
	o.sess.interruptionStatus = InterruptionActive
	o.sess.mu.Unlock()
}

// drainSTTJobQueue discards any audio buffered ahead of the one that
// triggered this interruption, and clears sttOutputList: partial
// transcripts accumulated before the barge-in are superseded by whatever
// the Prompt Generator decides to do with the interrupting utterance
// (spec.md §4.2 step 6).
func (o *Orchestrator) drainSTTJobQueue() {
	for {
		select {
		case <-o.sttJobs:
		default:
			o.sess.mu.Lock()
			o.sess.sttOutputList = nil
			o.sess.mu.Unlock()
			return
		}
	}
}

// drainTextQueue discards sentences already queued for TTS: nothing
// downstream of a cancelled generation should still reach playback
// (spec.md §4.2 step 7).
func (o *Orchestrator) drainTextQueue() {
	for {
		select {
		case <-o.textQ:
		default:
			return
		}
	}
}
