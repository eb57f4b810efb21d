package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/siddhartha9/interruption-aware-voice-bot/internal/telemetry"
)

// sttBufferSize is a generously large buffer for sttJobQueue. Spec.md §3
// calls the queue "unbounded" because utterance rate is inherently bounded
// by the human speaker (§5); a bounded channel this size is observably
// unbounded for that workload without requiring a hand-rolled dynamic
// queue (see DESIGN.md for why we did not reach for a third-party
// unbounded-channel library here).
const sttBufferSize = 256

// Orchestrator coordinates one client connection's four-stage pipeline
// (spec.md §2). One instance exists per session; the Active Tool Registry
// and Background Scheduler are injected because they are the two
// process-wide shared resources (spec.md §5).
type Orchestrator struct {
	sess   *Session
	cfg    Config
	logger Logger

	stt STTProvider
	llm LLMProvider
	tts TTSProvider

	tools    map[string]ToolSpec
	toolDefs []ToolDefinition

	registry  *ToolRegistry
	scheduler *BackgroundScheduler
	promptGen *PromptGenerator

	transport Transport
	metrics   *telemetry.Metrics

	sttJobs chan []byte
	textQ   chan TextChunk
	audioQ  chan AudioFrame

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// New constructs an Orchestrator for a single session. stt/llm/tts must be
// non-nil; registry and scheduler are normally the process-wide singletons
// created once by cmd/server and shared across sessions.
func New(ctx context.Context, sessionID string, stt STTProvider, llm LLMProvider, tts TTSProvider, transport Transport, registry *ToolRegistry, scheduler *BackgroundScheduler, cfg Config, logger Logger) (*Orchestrator, error) {
	if stt == nil || llm == nil || tts == nil {
		return nil, ErrNilProvider
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}

	octx, cancel := context.WithCancel(ctx)

	o := &Orchestrator{
		sess:      NewSession(sessionID, cfg),
		cfg:       cfg,
		logger:    logger,
		stt:       stt,
		llm:       llm,
		tts:       tts,
		tools:     make(map[string]ToolSpec),
		registry:  registry,
		scheduler: scheduler,
		promptGen: NewPromptGenerator(cfg.BackchannelPhrases),
		transport: transport,
		metrics:   telemetry.DefaultMetrics(),
		sttJobs:   make(chan []byte, sttBufferSize),
		textQ:     make(chan TextChunk, cfg.TextQueueBound),
		audioQ:    make(chan AudioFrame, cfg.AudioQueueBound),
		ctx:       octx,
		cancel:    cancel,
	}

	if cfg.SystemPrompt != "" {
		o.sess.mu.Lock()
		o.sess.addMessage("system", cfg.SystemPrompt)
		o.sess.mu.Unlock()
	}

	o.metrics.ActiveSessions.Add(octx, 1)

	o.wg.Add(3)
	go o.runSTTWorker()
	go o.runTTSWorker()
	go o.runPlaybackDispatcher()

	return o, nil
}

// SetMetrics overrides the default (global MeterProvider-backed) metrics
// instance. Tests should call this with telemetry.NewMetrics and a fresh
// SDK MeterProvider to avoid cross-test pollution.
func (o *Orchestrator) SetMetrics(m *telemetry.Metrics) {
	o.metrics = m
}

// RegisterTool makes a tool available to the LLM and to the Agent Runner's
// dispatch table (spec.md §4.6).
func (o *Orchestrator) RegisterTool(spec ToolSpec) {
	o.tools[spec.Definition.Name] = spec
	o.toolDefs = append(o.toolDefs, spec.Definition)
}

// SessionID returns the session's identifier.
func (o *Orchestrator) SessionID() string {
	return o.sess.ID
}

// Snapshot exposes the session's current state, primarily for tests and
// for logging invariant violations (spec.md §7).
func (o *Orchestrator) Snapshot() Snapshot {
	return o.sess.Snapshot()
}

// send wraps transport.Send with nil-safety (tests may omit a transport).
func (o *Orchestrator) send(ev ServerEvent) {
	if o.transport == nil {
		return
	}
	ev.SessionID = o.sess.ID
	if err := o.transport.Send(ev); err != nil {
		o.logger.Warn("failed to send event to client", "sessionID", o.sess.ID, "event", ev.Event, "error", err)
	}
}

// Close cancels every worker, cancels all of this session's registered
// tools, drains the queues, and is safe to call more than once (spec.md §3
// "Lifecycle", §7 "Cleanup on termination"). It never touches another
// session's tool executions on the shared registry.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.sess.mu.Lock()
		o.sess.closed = true
		if o.sess.decisionCancel != nil {
			o.sess.decisionCancel()
		}
		if o.sess.agentCancel != nil {
			o.sess.agentCancel()
		}
		o.sess.mu.Unlock()

		o.registry.CancelSession(o.sess.ID)
		o.cancel()
		o.drainQueues()
		o.wg.Wait()
		o.metrics.ActiveSessions.Add(context.Background(), -1)
	})
}

func (o *Orchestrator) drainQueues() {
	for {
		select {
		case <-o.sttJobs:
		default:
			goto afterSTT
		}
	}
afterSTT:
	for {
		select {
		case <-o.textQ:
		default:
			goto afterText
		}
	}
afterText:
	for {
		select {
		case <-o.audioQ:
		default:
			return
		}
	}
}

func (o *Orchestrator) invariantViolation(where string, detail string) {
	o.logger.Error("internal invariant violation", "sessionID", o.sess.ID, "where", where, "detail", detail, "snapshot", fmt.Sprintf("%+v", o.Snapshot()))
}
