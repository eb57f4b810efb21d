package orchestrator

// ClientEventType enumerates the four event kinds a duplex client may send
// (spec.md §6).
type ClientEventType string

const (
	EventSpeechStart            ClientEventType = "speech_start"
	EventSpeechEnd               ClientEventType = "speech_end"
	EventClientPlaybackStarted  ClientEventType = "client_playback_started"
	EventClientPlaybackComplete ClientEventType = "client_playback_complete"
)

// ClientEvent is the decoded form of one inbound transport message. Audio
// is already raw bytes — base64 decoding is the transport layer's job, not
// the orchestrator's.
type ClientEvent struct {
	Type  ClientEventType
	Audio []byte
}

// ServerEventType enumerates the events the orchestrator emits toward the
// client (spec.md §6).
type ServerEventType string

const (
	ServerConnected      ServerEventType = "connected"
	ServerPlayAudio      ServerEventType = "play_audio"
	ServerStopPlayback   ServerEventType = "stop_playback"
	ServerPlaybackPause  ServerEventType = "playback_pause"
	ServerPlaybackResume ServerEventType = "playback_resume"
	ServerPlaybackReset  ServerEventType = "playback_reset"
	ServerErrorEvent     ServerEventType = "error"
)

// ServerEvent is one outbound message. Only the fields relevant to Event
// are populated; Transport implementations marshal this into the wire
// format described in spec.md §6.
type ServerEvent struct {
	Event        ServerEventType
	SessionID    string
	Audio        []byte
	GenerationID uint64
	Message      string
}

// Transport is the seam between the orchestrator and the duplex connection.
// The orchestrator never touches sockets directly; internal/transport
// implements this over github.com/coder/websocket (SPEC_FULL.md §2).
type Transport interface {
	Send(event ServerEvent) error
}
