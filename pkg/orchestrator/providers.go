package orchestrator

import "context"

// STTProvider is the opaque speech-to-text collaborator (spec.md §4.6).
// Transcribe may return "" for audio without speech. The adapters in
// pkg/providers/stt return an error for any failed or rejected request,
// including audio the provider refuses to decode; the STT Worker logs that
// error and carries on as it would for an empty transcript. Utterances
// shorter than Config.MinSTTAudioBytes never reach Transcribe.
type STTProvider interface {
	Transcribe(ctx context.Context, audio []byte, lang string) (string, error)
	Name() string
}

// StreamEventType tags the sum type an LLM stream yields.
type StreamEventType string

const (
	StreamText     StreamEventType = "text"
	StreamToolCall StreamEventType = "tool_call"
	StreamDone     StreamEventType = "done"
	StreamError    StreamEventType = "error"
)

// StreamEvent is one item of an LLM stream: either a text chunk or a
// tool-call record (spec.md §9 "Dynamic dispatch -> tagged variants").
type StreamEvent struct {
	Type     StreamEventType
	Text     string
	ToolCall ToolCall
	Err      error
}

// LLMProvider is the opaque reasoning collaborator. Stream returns a
// channel of StreamEvent and must close it when the turn's generation is
// exhausted (a finish with no further tool calls) or ctx is cancelled.
type LLMProvider interface {
	Stream(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamEvent, error)
	Name() string
}

// TTSProvider is the opaque speech-synthesis collaborator.
type TTSProvider interface {
	Synthesize(ctx context.Context, text string, voice, lang string) ([]byte, error)
	StreamSynthesize(ctx context.Context, text string, voice, lang string, onChunk func([]byte) error) error
	Name() string
}

// ToolHandler executes one tool call and returns its synchronous summary.
// It MUST register with the Active Tool Registry before doing any work that
// should be cancellable (spec.md §4.6), tagging the registration with
// sessionID so a barge-in or close in one session never cancels another
// session's in-flight tools; tools that keep working past their synchronous
// return use the Background Tool Scheduler pattern in §4.9.
type ToolHandler func(ctx context.Context, call ToolCall, registry *ToolRegistry, scheduler *BackgroundScheduler, sessionID string) (summary string, err error)

// ToolSpec pairs a tool's LLM-facing definition with its Go implementation.
type ToolSpec struct {
	Definition ToolDefinition
	Handler    ToolHandler
}
