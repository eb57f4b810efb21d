package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/orchestrator"
)

// GoogleLLM calls Gemini's generateContent endpoint. Like AnthropicLLM it
// has no native streaming or tool-calling here, so Stream delivers the
// whole reply as one StreamText followed by StreamDone.
type GoogleLLM struct {
	apiKey string
	url    string
	model  string
}

func NewGoogleLLM(apiKey string, model string) *GoogleLLM {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GoogleLLM{
		apiKey: apiKey,
		url:    "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":generateContent",
		model:  model,
	}
}

func (l *GoogleLLM) Name() string {
	return "google-llm"
}

func (l *GoogleLLM) Stream(ctx context.Context, messages []orchestrator.Message, tools []orchestrator.ToolDefinition) (<-chan orchestrator.StreamEvent, error) {
	text, err := l.complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	out := make(chan orchestrator.StreamEvent, 2)
	out <- orchestrator.StreamEvent{Type: orchestrator.StreamText, Text: text}
	out <- orchestrator.StreamEvent{Type: orchestrator.StreamDone}
	close(out)
	return out, nil
}

func (l *GoogleLLM) complete(ctx context.Context, messages []orchestrator.Message) (string, error) {
	type googlePart struct {
		Text string `json:"text"`
	}
	type googleMessage struct {
		Role  string       `json:"role"`
		Parts []googlePart `json:"parts"`
	}

	var googleMessages []googleMessage
	for _, m := range messages {
		role := m.Role
		switch role {
		case "system":
			role = "user" // Gemini doesn't always handle the system role consistently across models.
		case "assistant", "agent":
			role = "model"
		}
		googleMessages = append(googleMessages, googleMessage{
			Role:  role,
			Parts: []googlePart{{Text: m.Content}},
		})
	}

	payload := map[string]interface{}{"contents": googleMessages}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.url+"?key="+l.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("google llm error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from google llm")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
