package orchestrator

import "time"

// StageStatus is the lifecycle state of one pipeline stage (STT, LLM, TTS,
// or a tool invocation).
type StageStatus string

const (
	StatusIdle       StageStatus = "IDLE"
	StatusProcessing StageStatus = "PROCESSING"
	StatusStreaming  StageStatus = "STREAMING"
)

// PlaybackStatus gates the Playback Dispatcher's audio queue drain.
type PlaybackStatus string

const (
	PlaybackIdle   PlaybackStatus = "IDLE"
	PlaybackActive PlaybackStatus = "ACTIVE"
	PlaybackPaused PlaybackStatus = "PAUSED"
)

// InterruptionStatus tracks the pause-then-decide protocol. PROCESSING is
// the lock held while the pause reaction's side-effects run; ACTIVE is the
// flag meaning "an interruption happened and has not yet been resolved by
// the Decision Task".
type InterruptionStatus string

const (
	InterruptionIdle       InterruptionStatus = "IDLE"
	InterruptionProcessing InterruptionStatus = "PROCESSING"
	InterruptionActive     InterruptionStatus = "ACTIVE"
)

// Message is one turn of chat history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls carries pending tool invocations when Role is "assistant"
	// and the LLM requested tool execution instead of (or before) text.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID identifies which ToolCall a Role:"tool" message answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall is a single tool/function invocation requested by the LLM.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded
}

// ToolDefinition describes a tool made available to the LLM.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Config carries every tunable referenced by spec.md §6.
type Config struct {
	SampleRate         int
	Channels           int
	BytesPerSample     int
	MaxContextMessages int

	Voice    string
	Language string

	STTTimeout time.Duration
	LLMTimeout time.Duration
	TTSTimeout time.Duration

	// DebounceDuration is the Decision Task's entry delay (spec.md §4.4).
	DebounceDuration time.Duration

	// MinSTTAudioBytes suppresses transcription attempts on utterances too
	// short to plausibly contain speech, expressed as a byte count at
	// SampleRate/Channels/BytesPerSample (see SPEC_FULL.md Open Question 2).
	MinSTTAudioBytes int

	// TextQueueBound and AudioQueueBound are the bounded-queue sizes from
	// spec.md §3 (50 and 20 respectively).
	TextQueueBound  int
	AudioQueueBound int

	// MinWordsToInterrupt is carried on Config but not read by the
	// orchestrator: barge-in utterances are classified only by the Prompt
	// Generator's backchannel rule, whatever their word count.
	MinWordsToInterrupt int

	// BackchannelPhrases overrides the default false-alarm phrase set used
	// by the Prompt Generator (spec.md §4.7).
	BackchannelPhrases []string

	SystemPrompt string
	ToolsEnabled bool
}

// DefaultConfig mirrors the teacher's DefaultConfig, extended with the new
// orchestration knobs.
func DefaultConfig() Config {
	return Config{
		SampleRate:           44100,
		Channels:             1,
		BytesPerSample:       2,
		MaxContextMessages:   20,
		Voice:                "F1",
		Language:             "en",
		STTTimeout:           30 * time.Second,
		LLMTimeout:           60 * time.Second,
		TTSTimeout:           30 * time.Second,
		DebounceDuration:     100 * time.Millisecond,
		MinSTTAudioBytes:     5000,
		TextQueueBound:       50,
		AudioQueueBound:      20,
		MinWordsToInterrupt:  1,
		BackchannelPhrases:   defaultBackchannelPhrases(),
		ToolsEnabled:         true,
	}
}

func defaultBackchannelPhrases() []string {
	return []string{
		"uh huh", "uh-huh", "mhmm", "mm-hmm", "okay", "ok", "yeah", "yep",
		"yes", "got it", "i see", "right", "sure", "alright", "continue",
		"go on", "go ahead",
	}
}

// AudioFrame is a single synthesized audio chunk queued for playback.
type AudioFrame struct {
	Audio         []byte
	GenerationID  uint64
	EndOfStream   bool
}

// TextChunk is one sentence queued for speech synthesis.
type TextChunk struct {
	Text         string
	GenerationID uint64
	EndOfStream  bool
}

// LatencyBreakdown records per-stage timings for one turn, in the style of
// the teacher's ManagedStream.GetLatencyBreakdown (adapted to per-session
// telemetry instead of a CLI-only struct; see SPEC_FULL.md §4).
type LatencyBreakdown struct {
	UserStoppedAt   time.Time
	STTFinalAt      time.Time
	LLMStartAt      time.Time
	LLMEndAt        time.Time
	TTSFirstChunkAt time.Time
}
