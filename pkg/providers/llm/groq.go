package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/orchestrator"
)

// GroqLLM calls Groq's OpenAI-compatible chat completions endpoint. Groq's
// own streaming/tool-call support isn't exercised here — like Anthropic and
// Google, Stream wraps one batch completion as a single-event stream.
type GroqLLM struct {
	apiKey string
	url    string
	model  string
}

func NewGroqLLM(apiKey string, model string) *GroqLLM {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return &GroqLLM{
		apiKey: apiKey,
		url:    "https://api.groq.com/openai/v1/chat/completions",
		model:  model,
	}
}

func (l *GroqLLM) Name() string {
	return "groq-llm"
}

func (l *GroqLLM) Stream(ctx context.Context, messages []orchestrator.Message, tools []orchestrator.ToolDefinition) (<-chan orchestrator.StreamEvent, error) {
	text, err := l.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	out := make(chan orchestrator.StreamEvent, 2)
	out <- orchestrator.StreamEvent{Type: orchestrator.StreamText, Text: text}
	out <- orchestrator.StreamEvent{Type: orchestrator.StreamDone}
	close(out)
	return out, nil
}

func (l *GroqLLM) Complete(ctx context.Context, messages []orchestrator.Message) (string, error) {
	payload := map[string]interface{}{
		"model":    l.model,
		"messages": toGroqMessages(messages),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("groq llm error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from groq")
	}
	return result.Choices[0].Message.Content, nil
}

func toGroqMessages(messages []orchestrator.Message) []map[string]string {
	out := make([]map[string]string, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role == "agent" {
			role = "assistant"
		}
		out = append(out, map[string]string{"role": role, "content": m.Content})
	}
	return out
}
