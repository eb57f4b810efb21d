package orchestrator

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ToolExecution tracks one in-flight tool invocation, grounded on
// original_source/src/server/active_tool_registry.py's ToolExecution
// dataclass: a tool-id, a cancellation callback, and completion/cancellation
// flags that make Cancel idempotent.
type ToolExecution struct {
	ID           string
	Name         string
	SessionID    string
	StartedAt    time.Time
	Metadata     map[string]any
	cancelFn     func()
	isComplete   bool
	wasCancelled bool
}

// Duration returns how long this execution has been (or was) running.
func (t *ToolExecution) Duration() time.Duration {
	return time.Since(t.StartedAt)
}

// ToolRegistry is the process-wide Active Tool Registry (C10). It is the
// one cross-session shared resource besides the Background Scheduler
// (spec.md §5): all operations are serialised by an internal mutex, and
// cancelFn is invoked on its own goroutine so a slow or misbehaving
// cancellation callback can never deadlock the registry.
type ToolRegistry struct {
	mu      sync.Mutex
	active  map[string]*ToolExecution
}

// NewToolRegistry constructs an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{active: make(map[string]*ToolExecution)}
}

// Register inserts a new active tool execution, tagged with the session it
// belongs to, and returns its id.
func (r *ToolRegistry) Register(sessionID, name string, cancelFn func(), metadata map[string]any) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.active[id] = &ToolExecution{
		ID:        id,
		Name:      name,
		SessionID: sessionID,
		StartedAt: time.Now(),
		Metadata:  metadata,
		cancelFn:  cancelFn,
	}
	r.mu.Unlock()
	return id
}

// Unregister marks an execution complete and removes it from the active set.
// Safe to call for an id that no longer exists (e.g. already cancelled).
func (r *ToolRegistry) Unregister(id string) {
	r.mu.Lock()
	if exec, ok := r.active[id]; ok {
		exec.isComplete = true
		delete(r.active, id)
	}
	r.mu.Unlock()
}

// Cancel invokes id's cancellation callback exactly once. It is idempotent:
// calling it again (or calling it after Unregister) returns false and does
// not re-invoke cancelFn.
func (r *ToolRegistry) Cancel(id string) bool {
	r.mu.Lock()
	exec, ok := r.active[id]
	if !ok || exec.isComplete || exec.wasCancelled {
		r.mu.Unlock()
		return false
	}
	exec.wasCancelled = true
	cancelFn := exec.cancelFn
	r.mu.Unlock()

	if cancelFn != nil {
		// Run outside the lock, on its own goroutine, so a cancellation
		// callback that itself blocks (e.g. on I/O) can never deadlock
		// the registry (spec.md §4.8).
		go cancelFn()
	}
	return true
}

// CancelAll cancels every currently-registered execution and returns how
// many were cancelled, across every session. The Interruption Handler and
// session teardown use CancelSession instead.
func (r *ToolRegistry) CancelAll() int {
	r.mu.Lock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	n := 0
	for _, id := range ids {
		if r.Cancel(id) {
			n++
		}
	}
	return n
}

// CancelSession cancels every execution registered under sessionID and
// returns how many were cancelled. Used by the Interruption Handler (§4.2
// step 8) and session teardown, so one session's barge-in or close never
// reaches into another session's in-flight tools.
func (r *ToolRegistry) CancelSession(sessionID string) int {
	r.mu.Lock()
	ids := make([]string, 0)
	for id, exec := range r.active {
		if exec.SessionID == sessionID {
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	n := 0
	for _, id := range ids {
		if r.Cancel(id) {
			n++
		}
	}
	return n
}

// List returns a snapshot of currently active executions.
func (r *ToolRegistry) List() []ToolExecution {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ToolExecution, 0, len(r.active))
	for _, exec := range r.active {
		out = append(out, *exec)
	}
	return out
}
