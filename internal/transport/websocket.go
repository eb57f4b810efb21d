// Package transport implements the duplex JSON wire protocol of
// spec.md §6 over github.com/coder/websocket, the same library the
// teacher's Lokutor TTS provider uses for its own duplex connection.
package transport

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/orchestrator"
)

// wireClientEvent mirrors the Client → Server table of spec.md §6.
type wireClientEvent struct {
	Type  string `json:"type"`
	Audio string `json:"audio,omitempty"`
}

// wireServerEvent mirrors the Server → Client table of spec.md §6.
type wireServerEvent struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id,omitempty"`
	Audio     string `json:"audio,omitempty"`
	Message   string `json:"message,omitempty"`
}

var clientEventTypes = map[string]orchestrator.ClientEventType{
	"speech_start":             orchestrator.EventSpeechStart,
	"speech_end":               orchestrator.EventSpeechEnd,
	"client_playback_started":  orchestrator.EventClientPlaybackStarted,
	"client_playback_complete": orchestrator.EventClientPlaybackComplete,
}

// WSTransport adapts one accepted websocket connection to
// orchestrator.Transport. It adds no locking of its own: concurrent Sends
// rely on websocket.Conn, whose write methods may be called concurrently.
type WSTransport struct {
	conn *websocket.Conn
}

func NewWSTransport(conn *websocket.Conn) *WSTransport {
	return &WSTransport{conn: conn}
}

// Send implements orchestrator.Transport.
func (t *WSTransport) Send(ev orchestrator.ServerEvent) error {
	wire := wireServerEvent{
		Event:     string(ev.Event),
		SessionID: ev.SessionID,
		Message:   ev.Message,
	}
	if len(ev.Audio) > 0 {
		wire.Audio = base64.StdEncoding.EncodeToString(ev.Audio)
	}
	return wsjson.Write(context.Background(), t.conn, wire)
}

// ReadEvent blocks for the next client message and decodes it into an
// orchestrator.ClientEvent. Returns an error wrapping ErrProtocol's
// caller-visible cause for a message whose type isn't recognised, rather
// than closing the connection — per spec.md §7 "Protocol" errors are
// logged and ignored, not fatal.
func (t *WSTransport) ReadEvent(ctx context.Context) (orchestrator.ClientEvent, error) {
	var raw wireClientEvent
	if err := wsjson.Read(ctx, t.conn, &raw); err != nil {
		return orchestrator.ClientEvent{}, err
	}

	evType, ok := clientEventTypes[raw.Type]
	if !ok {
		return orchestrator.ClientEvent{}, fmt.Errorf("%w: unknown client event type %q", errUnknownEvent, raw.Type)
	}

	var audio []byte
	if raw.Audio != "" {
		decoded, err := base64.StdEncoding.DecodeString(raw.Audio)
		if err != nil {
			return orchestrator.ClientEvent{}, fmt.Errorf("%w: bad audio encoding: %v", errUnknownEvent, err)
		}
		audio = decoded
	}

	return orchestrator.ClientEvent{Type: evType, Audio: audio}, nil
}

// Close closes the underlying connection with a normal status.
func (t *WSTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "")
}
