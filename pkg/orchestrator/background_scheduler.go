package orchestrator

import "sync"

// BackgroundScheduler is the process-wide host for tool bodies that keep
// working after their synchronous tool-call return (spec.md §4.9). It plays
// the role original_source/src/server/async_tool_helper.py's
// AsyncTaskScheduler plays for a Python event loop: a single long-lived
// place to launch background work from a context (the LLM tool-call
// runtime) that cannot itself block waiting for that work to finish.
//
// In Go there is no separate event loop to hand work to — goroutines are
// the primitive — so the scheduler's job narrows to bookkeeping: track
// every launched body with a WaitGroup so the process can drain them on
// shutdown instead of abandoning goroutines.
type BackgroundScheduler struct {
	wg sync.WaitGroup
}

// NewBackgroundScheduler constructs a scheduler. One instance is shared by
// every session in the process (spec.md §4.9, §5).
func NewBackgroundScheduler() *BackgroundScheduler {
	return &BackgroundScheduler{}
}

// Go launches fn on its own goroutine and tracks it for Wait.
func (s *BackgroundScheduler) Go(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

// Wait blocks until every launched body has returned. Intended for graceful
// process shutdown, not per-session teardown (background tool bodies are
// process-wide by design, §5).
func (s *BackgroundScheduler) Wait() {
	s.wg.Wait()
}
