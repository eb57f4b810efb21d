package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/orchestrator"
)

func dialTestServer(t *testing.T, handler http.HandlerFunc) (*WSTransport, func()) {
	t.Helper()
	server := httptest.NewServer(handler)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.Dial(context.Background(), url, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	return NewWSTransport(conn), server.Close
}

func TestWSTransport_SendEncodesAudioAsBase64(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	tr, closeServer := dialTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		_, payload, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(payload, &decoded); err == nil {
			received <- decoded
		}
	})
	defer closeServer()

	err := tr.Send(orchestrator.ServerEvent{
		Event:     orchestrator.ServerPlayAudio,
		SessionID: "s1",
		Audio:     []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-received:
		if msg["event"] != string(orchestrator.ServerPlayAudio) {
			t.Errorf("expected event %q, got %v", orchestrator.ServerPlayAudio, msg["event"])
		}
		wantAudio := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
		if msg["audio"] != wantAudio {
			t.Errorf("expected base64 audio %q, got %v", wantAudio, msg["audio"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server to receive message")
	}
}

func TestWSTransport_ReadEvent(t *testing.T) {
	serverDone := make(chan struct{})
	tr, closeServer := dialTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		defer close(serverDone)

		audio := base64.StdEncoding.EncodeToString([]byte{4, 5, 6})
		conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"speech_end","audio":"`+audio+`"}`))
		time.Sleep(50 * time.Millisecond)
	})
	defer closeServer()
	defer tr.Close()

	ev, err := tr.ReadEvent(context.Background())
	if err != nil {
		t.Fatalf("ReadEvent: %v", err)
	}
	if ev.Type != orchestrator.EventSpeechEnd {
		t.Errorf("expected speech_end, got %v", ev.Type)
	}
	if string(ev.Audio) != string([]byte{4, 5, 6}) {
		t.Errorf("expected decoded audio [4 5 6], got %v", ev.Audio)
	}
}

func TestWSTransport_ReadEvent_UnknownTypeIsProtocolError(t *testing.T) {
	tr, closeServer := dialTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"not_a_real_event"}`))
		time.Sleep(50 * time.Millisecond)
	})
	defer closeServer()
	defer tr.Close()

	_, err := tr.ReadEvent(context.Background())
	if err == nil {
		t.Fatal("expected an error for an unrecognised event type")
	}
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("expected ErrProtocol, got %v", err)
	}
}

func TestWSTransport_ReadEvent_BadAudioEncodingIsProtocolError(t *testing.T) {
	tr, closeServer := dialTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"speech_end","audio":"not-base64!!"}`))
		time.Sleep(50 * time.Millisecond)
	})
	defer closeServer()
	defer tr.Close()

	_, err := tr.ReadEvent(context.Background())
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("expected ErrProtocol, got %v", err)
	}
}
