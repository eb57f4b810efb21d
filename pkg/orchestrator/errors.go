package orchestrator

import (
	"context"
	"errors"
)

var (
	// ErrEmptyTranscription mirrors the teacher's sentinel: STT returned no
	// usable text (silence, noise, or audio below the minimum-size gate).
	ErrEmptyTranscription = errors.New("transcription returned empty text")

	// ErrTranscriptionFailed signals an STT call failed for a reason other
	// than "no speech detected".
	ErrTranscriptionFailed = errors.New("speech-to-text transcription failed")

	// ErrLLMFailed signals the LLM stream failed or was exhausted without
	// producing a usable response.
	ErrLLMFailed = errors.New("language model generation failed")

	// ErrTTSFailed signals a TTS call failed.
	ErrTTSFailed = errors.New("text-to-speech synthesis failed")

	// ErrNilProvider guards orchestrator construction against a missing
	// required collaborator.
	ErrNilProvider = errors.New("required provider is nil")

	// ErrSessionClosed names the closed-session condition. No function in
	// this package returns it; calls made after Close are not rejected
	// with it.
	ErrSessionClosed = errors.New("session is closed")

	// ErrToolNotFound is returned when the LLM requests a tool name the
	// registry has no handler for.
	ErrToolNotFound = errors.New("tool not found in registry")

	// ErrToolAlreadyResolved names a tool execution that already completed
	// or was already cancelled. ToolRegistry.Cancel reports that case by
	// returning false; it does not return this error.
	ErrToolAlreadyResolved = errors.New("tool execution already completed or cancelled")
)

// ErrorClass is the taxonomy from spec.md §7, used to decide whether a
// fault should be retried, surfaced to the client, or treated as a bug.
type ErrorClass int

const (
	// ClassTransientExternal covers a single failed STT/TTS/LLM call that
	// is safe to retry or skip; the session survives.
	ClassTransientExternal ErrorClass = iota
	// ClassPermanentExternal covers invalid credentials or exhausted
	// quota; the session terminates with an `error` event.
	ClassPermanentExternal
	// ClassProtocol covers a malformed client event; logged and ignored.
	ClassProtocol
	// ClassInternal covers an invariant violation; the session terminates
	// and the violation is logged with a state snapshot.
	ClassInternal
)

// Cancelled reports whether err represents cooperative cancellation rather
// than a genuine failure (spec.md §7: "Cancellation is not an error").
func Cancelled(err error) bool {
	return errors.Is(err, errCancelled) || errors.Is(err, context.Canceled)
}

var errCancelled = errors.New("operation cancelled")
