package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/orchestrator"
)

func newTestOpenAILLM(url string) *OpenAILLM {
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = url
	return &OpenAILLM{client: openai.NewClientWithConfig(cfg), model: "gpt-4o"}
}

func sseWrite(w http.ResponseWriter, chunks []string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)
	for _, c := range chunks {
		fmt.Fprintf(w, "data: %s\n\n", c)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func TestOpenAILLM_StreamsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sseWrite(w, []string{
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"hello "}}]}`,
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"world"}}]}`,
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		})
	}))
	defer server.Close()

	l := newTestOpenAILLM(server.URL)
	events, err := l.Stream(context.Background(), []orchestrator.Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
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
	if text != "hello world" {
		t.Errorf("expected 'hello world', got %q", text)
	}
	if !sawDone {
		t.Error("expected a StreamDone event")
	}
	if l.Name() != "openai-llm" {
		t.Errorf("unexpected Name(): %s", l.Name())
	}
}

func TestOpenAILLM_AccumulatesToolCallAcrossChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := 0
		sseWrite(w, []string{
			fmt.Sprintf(`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":%d,"id":"call1","type":"function","function":{"name":"email_statement","arguments":""}}]}}]}`, idx),
			fmt.Sprintf(`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":%d,"function":{"arguments":"{\"email\""}}]}}]}`, idx),
			fmt.Sprintf(`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"tool_calls":[{"index":%d,"function":{"arguments":":\"a@example.com\"}"}}]}}]}`, idx),
			`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
		})
	}))
	defer server.Close()

	l := newTestOpenAILLM(server.URL)
	events, err := l.Stream(context.Background(), []orchestrator.Message{{Role: "user", Content: "send my statement"}}, []orchestrator.ToolDefinition{
		{Name: "email_statement"},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var call orchestrator.ToolCall
	for ev := range events {
		if ev.Type == orchestrator.StreamToolCall {
			call = ev.ToolCall
		}
	}

	if call.Name != "email_statement" {
		t.Fatalf("expected tool call name 'email_statement', got %q", call.Name)
	}
	if call.Arguments != `{"email":"a@example.com"}` {
		t.Fatalf("expected assembled arguments, got %q", call.Arguments)
	}
}

func TestOpenAILLM_HTTPErrorIsReturnedFromStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	l := newTestOpenAILLM(server.URL)
	_, err := l.Stream(context.Background(), []orchestrator.Message{{Role: "user", Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected CreateChatCompletionStream to fail against a 500 response")
	}
}

func TestToOpenAIMessages_MapsAgentRoleToAssistant(t *testing.T) {
	out := toOpenAIMessages([]orchestrator.Message{
		{Role: "agent", Content: "hi"},
	})
	if len(out) != 1 || out[0].Role != openai.ChatMessageRoleAssistant {
		t.Fatalf("expected agent role mapped to assistant, got %+v", out)
	}
}

func TestOpenAILLM_RequestTimesOutOnSlowServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		sseWrite(w, []string{`{"id":"1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[{"index":0,"delta":{"content":"late"}}]}`})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	l := newTestOpenAILLM(server.URL)
	_, err := l.Stream(ctx, []orchestrator.Message{{Role: "user", Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected a context-deadline error against a slow server")
	}
}
