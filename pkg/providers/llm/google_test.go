package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/orchestrator"
)

func TestGoogleLLM_Stream(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		resp := struct {
			Candidates []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"candidates"`
		}{}
		resp.Candidates = append(resp.Candidates, struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		}{})
		resp.Candidates[0].Content.Parts = append(resp.Candidates[0].Content.Parts, struct {
			Text string `json:"text"`
		}{Text: "hello from gemini"})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	l := &GoogleLLM{apiKey: "test-key", url: server.URL, model: "gemini-1.5-flash"}

	events, err := l.Stream(context.Background(), []orchestrator.Message{
		{Role: "user", Content: "hi"},
		{Role: "agent", Content: "hello"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var text string
	var sawDone bool
	for ev := range events {
		switch ev.Type {
		case orchestrator.StreamText:
			text += ev.Text
		case orchestrator.StreamDone:
			sawDone = true
		}
	}

	if text != "hello from gemini" {
		t.Errorf("expected 'hello from gemini', got %q", text)
	}
	if !sawDone {
		t.Error("expected a StreamDone event")
	}
	if gotKey != "test-key" {
		t.Errorf("expected API key to be forwarded as a query param, got %q", gotKey)
	}
}

func TestGoogleLLM_NoCandidatesIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	l := &GoogleLLM{apiKey: "test-key", url: server.URL, model: "gemini-1.5-flash"}
	_, err := l.Stream(context.Background(), []orchestrator.Message{{Role: "user", Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected an error when google returns no candidates")
	}
}
