package orchestrator

import "time"

// pausedPollInterval is how often the dispatcher rechecks playbackStatus
// while paused, instead of draining audioQ (invariant 6: PAUSED means the
// Playback Dispatcher does not drain the audio queue, so frames queued
// during the pause window survive for a later resume).
const pausedPollInterval = 10 * time.Millisecond

// runPlaybackDispatcher is Component C7. It drains audioQ to the
// transport, honoring playbackStatus and generationId so that audio from
// a superseded generation never reaches the client, and leaving audioQ
// untouched while playback is paused for an in-flight interruption so a
// false-alarm resume has its queued frames intact.
func (o *Orchestrator) runPlaybackDispatcher() {
	defer o.wg.Done()
	for {
		if o.isPlaybackPaused() {
			select {
			case <-o.ctx.Done():
				return
			case <-time.After(pausedPollInterval):
			}
			continue
		}

		select {
		case <-o.ctx.Done():
			return
		case frame, ok := <-o.audioQ:
			if !ok {
				return
			}
			o.dispatchFrame(frame)
		}
	}
}

func (o *Orchestrator) isPlaybackPaused() bool {
	o.sess.mu.Lock()
	defer o.sess.mu.Unlock()
	return o.sess.playbackStatus == PlaybackPaused
}

func (o *Orchestrator) dispatchFrame(frame AudioFrame) {
	o.sess.mu.Lock()
	current := o.sess.generationID
	o.sess.mu.Unlock()

	if frame.GenerationID < current {
		return
	}

	if frame.EndOfStream {
		o.sess.mu.Lock()
		if o.sess.generationID == frame.GenerationID {
			o.sess.playbackStatus = PlaybackIdle
		}
		o.sess.mu.Unlock()
		return
	}

	o.sess.mu.Lock()
	o.sess.playbackStatus = PlaybackActive
	o.sess.mu.Unlock()

	o.send(ServerEvent{Event: ServerPlayAudio, Audio: frame.Audio, GenerationID: frame.GenerationID})
}
