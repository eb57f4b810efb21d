// Package tools provides example ToolSpec implementations exercising the
// Active Tool Registry and Background Scheduler (spec.md §4.6, §4.9).
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/siddhartha9/interruption-aware-voice-bot/pkg/orchestrator"
)

// StatementSender delivers an account statement to an email address. It is
// the seam a real implementation (SMTP, a billing service, …) plugs into;
// tests substitute a fake that records calls and can block until cancelled.
type StatementSender interface {
	Send(ctx context.Context, email string) error
}

type emailStatementArgs struct {
	Email string `json:"email"`
}

// EmailStatementTool matches spec.md §9 scenario S6: the tool call returns
// immediately with a tracking id while the actual send happens on the
// Background Scheduler, cancellable through the Active Tool Registry if the
// user interrupts before it finishes.
func EmailStatementTool(sender StatementSender) orchestrator.ToolSpec {
	return orchestrator.ToolSpec{
		Definition: orchestrator.ToolDefinition{
			Name:        "email_statement",
			Description: "Emails the customer's account statement to the given address.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"email": map[string]any{
						"type":        "string",
						"description": "Destination email address",
					},
				},
				"required": []string{"email"},
			},
		},
		Handler: runEmailStatement(sender),
	}
}

func runEmailStatement(sender StatementSender) orchestrator.ToolHandler {
	return func(ctx context.Context, call orchestrator.ToolCall, registry *orchestrator.ToolRegistry, scheduler *orchestrator.BackgroundScheduler, sessionID string) (string, error) {
		var args emailStatementArgs
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid email_statement arguments: %w", err)
		}
		if args.Email == "" {
			return "", fmt.Errorf("email_statement requires an email address")
		}

		bgCtx, cancel := context.WithCancel(context.Background())
		id := registry.Register(sessionID, "email_statement", cancel, map[string]any{"email": args.Email})

		scheduler.Go(func() {
			defer registry.Unregister(id)
			if err := sender.Send(bgCtx, args.Email); err != nil && bgCtx.Err() == nil {
				// The send error is discarded: no logger is available here,
				// and the deferred Unregister removes the registry entry, so
				// List() does not show the failed send afterwards.
				_ = err
			}
		})

		return fmt.Sprintf("Sending statement to %s (tracking id %s)", args.Email, id), nil
	}
}

// SMTPStatementSender is a placeholder real sender. Wire an actual SMTP or
// transactional-email client in here; this only demonstrates the shape a
// StatementSender run on the Background Scheduler takes: a cancellable,
// context-aware send.
type SMTPStatementSender struct {
	SendDelay time.Duration
}

func (s *SMTPStatementSender) Send(ctx context.Context, email string) error {
	delay := s.SendDelay
	if delay == 0 {
		delay = 2 * time.Second
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
