package llm

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/orchestrator"
)

// OpenAILLM is the only LLM provider here with genuine token streaming and
// tool-call support, via go-openai's CreateChatCompletionStream. Tool-call
// arguments arrive as incremental deltas across several stream chunks, so
// Stream accumulates them per tool-call index and only emits a
// StreamToolCall once the stream signals that call is finished (FinishReason
// "tool_calls" or a subsequent delta moves to a different index).
type OpenAILLM struct {
	client *openai.Client
	model  string
}

func NewOpenAILLM(apiKey string, model string) *OpenAILLM {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAILLM{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (l *OpenAILLM) Name() string {
	return "openai-llm"
}

func (l *OpenAILLM) Stream(ctx context.Context, messages []orchestrator.Message, tools []orchestrator.ToolDefinition) (<-chan orchestrator.StreamEvent, error) {
	req := openai.ChatCompletionRequest{
		Model:    l.model,
		Messages: toOpenAIMessages(messages),
		Stream:   true,
		Tools:    toOpenAITools(tools),
	}

	stream, err := l.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan orchestrator.StreamEvent, 8)
	go l.pump(stream, out)
	return out, nil
}

// pendingCall accumulates one tool call's streamed argument fragments.
type pendingCall struct {
	id, name string
	args     string
}

func (l *OpenAILLM) pump(stream *openai.ChatCompletionStream, out chan<- orchestrator.StreamEvent) {
	defer close(out)
	defer stream.Close()

	pending := map[int]*pendingCall{}

	flush := func(index int) {
		call, ok := pending[index]
		if !ok {
			return
		}
		delete(pending, index)
		out <- orchestrator.StreamEvent{
			Type: orchestrator.StreamToolCall,
			ToolCall: orchestrator.ToolCall{
				ID:        call.id,
				Name:      call.name,
				Arguments: call.args,
			},
		}
	}

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			for idx := range pending {
				flush(idx)
			}
			out <- orchestrator.StreamEvent{Type: orchestrator.StreamDone}
			return
		}
		if err != nil {
			out <- orchestrator.StreamEvent{Type: orchestrator.StreamError, Err: err}
			return
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]

		if choice.Delta.Content != "" {
			out <- orchestrator.StreamEvent{Type: orchestrator.StreamText, Text: choice.Delta.Content}
		}

		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			call, ok := pending[idx]
			if !ok {
				for prev := range pending {
					flush(prev)
				}
				call = &pendingCall{}
				pending[idx] = call
			}
			if tc.ID != "" {
				call.id = tc.ID
			}
			if tc.Function.Name != "" {
				call.name = tc.Function.Name
			}
			call.args += tc.Function.Arguments
		}

		if choice.FinishReason == openai.FinishReasonToolCalls {
			for idx := range pending {
				flush(idx)
			}
		}
	}
}

func toOpenAIMessages(messages []orchestrator.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role == "agent" {
			role = openai.ChatMessageRoleAssistant
		}
		msg := openai.ChatCompletionMessage{
			Role:       role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(tools []orchestrator.ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
