package orchestrator

import (
	"context"
	"time"
)

// scheduleDecision (re)arms the debounced Decision Task (spec.md §4.4).
// Rescheduling cancels whatever instance is currently waiting out its
// debounce window, so a burst of short utterances collapses into a single
// run against the fully merged transcript list (invariant 1: at most one
// Decision Task runs at a time).
func (o *Orchestrator) scheduleDecision() {
	o.sess.mu.Lock()
	if o.sess.decisionCancel != nil {
		o.sess.decisionCancel()
	}
	ctx, cancel := context.WithCancel(o.ctx)
	o.sess.decisionCancel = cancel
	o.sess.mu.Unlock()

	o.wg.Add(1)
	go o.waitAndDecide(ctx)
}

func (o *Orchestrator) waitAndDecide(ctx context.Context) {
	defer o.wg.Done()

	timer := time.NewTimer(o.cfg.DebounceDuration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	o.sess.mu.Lock()
	if o.sess.decisionCancel != nil {
		o.sess.decisionCancel = nil
	}
	o.runDecision(ctx)
}

// runDecision is the Decision Task body (spec.md §4.4), called with
// sess.mu held; it releases the lock before returning. Once an utterance
// (or set of utterances) has finished transcribing it takes one of these
// paths:
//
//   - No interruption pending and no new prompt (noise on an idle
//     session): nothing happens.
//   - Branch A (Resume): an interruption is pending and the merged
//     transcript turned out to be a false alarm (empty, or a backchannel).
//     The interruption is cleared; if the client was playing audio before
//     the barge-in, playback_resume is sent and playback goes back to
//     ACTIVE, otherwise playback goes to IDLE.
//   - Branch B (Regenerate): a real new prompt exists, with or without a
//     pending interruption — adopt the (possibly fused) history, bump the
//     generation and start a fresh Agent Runner generation.
//   - Branch C: Branch B preceded by playback_reset, taken when no
//     barge-in pause is pending, the history already ends in an unanswered
//     user message and the agent is idle. A false alarm always takes
//     Branch A; playback_reset is never sent on that path.
func (o *Orchestrator) runDecision(ctx context.Context) {
	transcripts := o.sess.drainSTTOutput()
	isInterruption := o.sess.interruptionStatus == InterruptionActive
	history := o.sess.historyCopy()
	wasActive := o.sess.clientWasActiveBeforeInterruption
	o.sess.mu.Unlock()

	result := o.promptGen.Generate(transcripts, history, isInterruption)

	o.sess.mu.Lock()
	defer o.sess.mu.Unlock()

	if !isInterruption && !result.NeedsNewPrompt {
		return
	}

	if !result.NeedsNewPrompt {
		// Branch A: resume. The interruption was a false alarm; put
		// playback back the way it was before the barge-in.
		o.metrics.RecordInterruption(o.ctx, "resume")
		o.sess.interruptionStatus = InterruptionIdle
		if wasActive {
			o.sess.playbackStatus = PlaybackActive
			o.send(ServerEvent{Event: ServerPlaybackResume, GenerationID: o.sess.generationID})
		} else {
			o.sess.playbackStatus = PlaybackIdle
		}
		return
	}

	// Branch C: no barge-in pause is pending, yet the previous user turn has
	// no committed reply (history still ends in user) and the agent is idle —
	// tell the client to discard any audio it still has buffered from that
	// turn rather than let it play alongside the regenerated reply.
	if o.sess.playbackStatus != PlaybackPaused && endsInUser(result.CleanedHistory) && o.sess.agentStatus == StatusIdle {
		o.send(ServerEvent{Event: ServerPlaybackReset, GenerationID: o.sess.generationID})
	}

	// Branches B and C: a real new prompt exists. Whether or not a prior
	// generation was cancelled, the treatment is the same from here: adopt
	// the fused history, start a fresh generation, and let the old one's
	// generationId filtering (if it's still unwinding) discard its output.
	if isInterruption {
		o.metrics.RecordInterruption(o.ctx, "regenerate")
	}
	o.sess.chatHistory = result.CleanedHistory
	// fuseInterruption already folds the new utterance onto the trailing
	// user message for a real interruption, so only append a fresh user
	// message if the cleaned history doesn't already end in one (spec.md
	// §4.4 Branch B step 3).
	if !endsInUser(o.sess.chatHistory) {
		o.sess.addMessage("user", result.Prompt)
	}
	genID := o.sess.bumpGeneration()
	o.sess.interruptionStatus = InterruptionIdle
	o.sess.playbackStatus = PlaybackIdle
	o.sess.responseInProgress = true
	o.sess.agentStatus = StatusProcessing
	o.sess.latency = LatencyBreakdown{UserStoppedAt: o.sess.latency.UserStoppedAt, STTFinalAt: o.sess.latency.STTFinalAt, LLMStartAt: time.Now()}

	agentCtx, cancel := context.WithCancel(o.ctx)
	o.sess.agentCancel = cancel

	o.wg.Add(1)
	go o.runAgentGeneration(agentCtx, genID, o.sess.historyCopy())
}
