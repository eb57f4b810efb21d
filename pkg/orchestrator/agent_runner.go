package orchestrator

import (
	"context"
	"strings"
	"time"
)

// sentenceEnders are the punctuation marks the Agent Runner batches
// streamed tokens on before handing a chunk to the TTS worker (spec.md
// §4.5 "sentence boundary").
const sentenceEnders = ".!?"

// llmFallbackSentence is spoken when the LLM stream fails outright (spec.md
// §7 "User-visible behaviour"), so the user hears something rather than
// silence.
const llmFallbackSentence = "I'm experiencing technical difficulties."

// runAgentGeneration is Component C5. It drives one LLM generation to
// completion, including any tool-call round trips, and commits the
// assembled reply to chatHistory only if genID is still current history
// at commit time — a generation superseded by a later barge-in writes
// nothing back (spec.md §4.5 step 6, generationId staleness filtering).
func (o *Orchestrator) runAgentGeneration(ctx context.Context, genID uint64, history []Message) {
	defer o.wg.Done()
	defer func() {
		o.sess.mu.Lock()
		if o.sess.generationID == genID {
			o.sess.agentStatus = StatusIdle
			o.sess.agentCancel = nil
		}
		o.sess.mu.Unlock()
	}()

	messages := history
	var reply strings.Builder

	for {
		start := time.Now()
		toolCall, done, err := o.streamOneTurn(ctx, genID, messages, &reply)
		o.metrics.LLMDuration.Record(o.ctx, time.Since(start).Seconds())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.metrics.RecordProviderError(o.ctx, o.llm.Name(), "llm")
			o.logger.Warn("llm generation failed", "sessionID", o.sess.ID, "provider", o.llm.Name(), "generationID", genID, "error", err)
			o.emitSentence(genID, llmFallbackSentence)
			o.enqueueSentinel(genID)
			return
		}
		o.metrics.RecordProviderRequest(o.ctx, o.llm.Name(), "llm", "ok")
		if done {
			break
		}

		o.sess.mu.Lock()
		o.sess.toolStatus = StatusProcessing
		o.sess.mu.Unlock()

		toolStart := time.Now()
		summary, toolErr := o.invokeTool(ctx, toolCall)
		o.metrics.ToolExecutionDuration.Record(o.ctx, time.Since(toolStart).Seconds())
		if toolErr != nil {
			o.metrics.RecordToolCall(o.ctx, toolCall.Name, "error")
		} else {
			o.metrics.RecordToolCall(o.ctx, toolCall.Name, "ok")
		}

		o.sess.mu.Lock()
		o.sess.toolStatus = StatusIdle
		o.sess.mu.Unlock()

		messages = append(messages,
			Message{Role: "assistant", ToolCalls: []ToolCall{toolCall}},
			toolResultMessage(toolCall, summary, toolErr),
		)
	}

	o.commitGeneration(genID, reply.String())
	o.enqueueSentinel(genID)
}

// streamOneTurn consumes one LLMProvider.Stream call. It returns
// (call, false, nil) the moment a tool call arrives (the caller resumes
// streaming after handling it), or (ToolCall{}, true, nil) once the stream
// ends without one.
func (o *Orchestrator) streamOneTurn(ctx context.Context, genID uint64, messages []Message, reply *strings.Builder) (ToolCall, bool, error) {
	events, err := o.llm.Stream(ctx, messages, o.toolDefs)
	if err != nil {
		return ToolCall{}, false, err
	}

	var sentence strings.Builder
	streaming := false

	for ev := range events {
		switch ev.Type {
		case StreamText:
			if !streaming {
				streaming = true
				o.sess.mu.Lock()
				if o.sess.generationID == genID {
					o.sess.agentStatus = StatusStreaming
				}
				o.sess.mu.Unlock()
			}
			reply.WriteString(ev.Text)
			sentence.WriteString(ev.Text)
			if endsSentence(ev.Text) {
				o.emitSentence(genID, sentence.String())
				sentence.Reset()
			}
		case StreamToolCall:
			return ev.ToolCall, false, nil
		case StreamError:
			return ToolCall{}, false, ev.Err
		case StreamDone:
			if sentence.Len() > 0 {
				o.emitSentence(genID, sentence.String())
			}
			return ToolCall{}, true, nil
		}
	}
	if sentence.Len() > 0 {
		o.emitSentence(genID, sentence.String())
	}
	return ToolCall{}, true, nil
}

func endsSentence(chunk string) bool {
	if chunk == "" {
		return false
	}
	return strings.ContainsAny(chunk[len(chunk)-1:], sentenceEnders)
}

// emitSentence hands a finished sentence to the TTS worker, tagged with
// the generation it belongs to. Blocks while the queue is full; drops the
// sentence silently only if the session is closed first.
func (o *Orchestrator) emitSentence(genID uint64, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	chunk := TextChunk{Text: text, GenerationID: genID}
	select {
	case o.textQ <- chunk:
	case <-o.ctx.Done():
	}
}

// enqueueSentinel marks the end of this generation's text stream so the
// TTS worker (and, transitively, the Playback Dispatcher) can tell a
// generation finished cleanly from one that was drained by interruption.
func (o *Orchestrator) enqueueSentinel(genID uint64) {
	select {
	case o.textQ <- TextChunk{GenerationID: genID, EndOfStream: true}:
	case <-o.ctx.Done():
	}
}

// commitGeneration writes the assembled reply back to chatHistory only if
// no later generation has already superseded this one.
func (o *Orchestrator) commitGeneration(genID uint64, reply string) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return
	}
	o.sess.mu.Lock()
	defer o.sess.mu.Unlock()
	if o.sess.generationID != genID {
		return
	}
	o.sess.addMessage("agent", reply)
	// responseInProgress stays true until TTS reaches end-of-stream and the
	// client signals playback-complete (spec.md §4.1, §3 invariant 7); it is
	// cleared in the client_playback_complete handler instead.
	o.sess.latency.LLMEndAt = time.Now()
}

func (o *Orchestrator) invokeTool(ctx context.Context, call ToolCall) (string, error) {
	spec, ok := o.tools[call.Name]
	if !ok {
		return "", ErrToolNotFound
	}
	return spec.Handler(ctx, call, o.registry, o.scheduler, o.sess.ID)
}

func toolResultMessage(call ToolCall, summary string, err error) Message {
	content := summary
	if err != nil {
		content = "error: " + err.Error()
	}
	return Message{Role: "tool", Content: content, ToolCallID: call.ID}
}
