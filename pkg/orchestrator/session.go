package orchestrator

import (
	"context"
	"sync"
)

// Session is the single mutable record described in spec.md §3. It is
// intended to be touched only from within its own Orchestrator's
// coordination methods (never directly from transport or provider
// goroutines); every field access below goes through sess.mu, following the
// same mutex-guarded-struct idiom the teacher's ManagedStream uses for its
// own (differently-shaped) state.
type Session struct {
	mu sync.Mutex

	ID string

	sttStatus   StageStatus
	agentStatus StageStatus
	ttsStatus   StageStatus
	toolStatus  StageStatus

	playbackStatus     PlaybackStatus
	interruptionStatus InterruptionStatus

	clientPlaybackActive              bool
	clientWasActiveBeforeInterruption bool
	responseInProgress                bool

	generationID uint64

	chatHistory   []Message
	sttOutputList []string

	// decisionCancel cancels the currently-debouncing (or running) Decision
	// Task; rescheduling replaces it (invariant 1 in spec.md §3).
	decisionCancel context.CancelFunc

	// agentCancel cancels the in-flight Agent Runner generation, if any.
	agentCancel context.CancelFunc

	latency LatencyBreakdown

	Voice    string
	Language string

	closed bool
}

// NewSession creates a fresh session in the all-IDLE quiescent state.
func NewSession(id string, cfg Config) *Session {
	return &Session{
		ID:                 id,
		sttStatus:          StatusIdle,
		agentStatus:        StatusIdle,
		ttsStatus:          StatusIdle,
		toolStatus:         StatusIdle,
		playbackStatus:     PlaybackIdle,
		interruptionStatus: InterruptionIdle,
		chatHistory:        []Message{},
		sttOutputList:      []string{},
		Voice:              cfg.Voice,
		Language:           cfg.Language,
	}
}

// isFullyIdle reports the condition checked by the Interruption Handler's
// first step (spec.md §4.2 step 1): nothing in flight, so a speech_start is
// the beginning of a fresh turn rather than a barge-in.
func (s *Session) isFullyIdle() bool {
	return s.sttStatus == StatusIdle &&
		s.agentStatus == StatusIdle &&
		s.ttsStatus == StatusIdle &&
		s.toolStatus == StatusIdle &&
		s.playbackStatus == PlaybackIdle &&
		!s.clientPlaybackActive &&
		!s.responseInProgress
}

// addMessage appends to chatHistory without checking invariant 2 (no two
// adjacent messages with the same role): callers are expected to have
// already merged/fused per the Prompt Generator, so two adjacent same-role
// messages indicate a coordination bug rather than legitimate input.
func (s *Session) addMessage(role, content string) {
	s.chatHistory = append(s.chatHistory, Message{Role: role, Content: content})
}

// endsInUser reports whether history's last message has role "user",
// i.e. whether appending another user message would violate invariant 2.
func endsInUser(history []Message) bool {
	return len(history) > 0 && history[len(history)-1].Role == "user"
}

// historyCopy returns a defensive copy of chatHistory for handing to a
// provider or a new Agent Runner generation.
func (s *Session) historyCopy() []Message {
	cp := make([]Message, len(s.chatHistory))
	copy(cp, s.chatHistory)
	return cp
}

// drainSTTOutput copies and clears sttOutputList (Decision Task step 2).
func (s *Session) drainSTTOutput() []string {
	out := s.sttOutputList
	s.sttOutputList = nil
	return out
}

// bumpGeneration increments and returns the new generationID, used by
// Branch B/C of the Decision Task immediately before spawning a new Agent
// Runner (spec.md §4.4).
func (s *Session) bumpGeneration() uint64 {
	s.generationID++
	return s.generationID
}

// currentGeneration returns generationID without mutating it.
func (s *Session) currentGeneration() uint64 {
	return s.generationID
}

// Snapshot is a read-only view of session state, used for logging invariant
// violations with full context (spec.md §7) and for tests.
type Snapshot struct {
	STTStatus          StageStatus
	AgentStatus        StageStatus
	TTSStatus          StageStatus
	ToolStatus         StageStatus
	PlaybackStatus     PlaybackStatus
	InterruptionStatus InterruptionStatus
	ResponseInProgress bool
	GenerationID       uint64
	ChatHistory        []Message
	Latency            LatencyBreakdown
}

// Snapshot returns a defensive copy of the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		STTStatus:          s.sttStatus,
		AgentStatus:        s.agentStatus,
		TTSStatus:          s.ttsStatus,
		ToolStatus:         s.toolStatus,
		PlaybackStatus:     s.playbackStatus,
		InterruptionStatus: s.interruptionStatus,
		ResponseInProgress: s.responseInProgress,
		GenerationID:       s.generationID,
		ChatHistory:        s.historyCopy(),
		Latency:            s.latency,
	}
}
