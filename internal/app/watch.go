package app

import "sync"

// serialRunner runs fn one call at a time. Triggers that arrive while fn is
// running collapse into one more call after it returns.
type serialRunner struct {
	fn func()

	mu      sync.Mutex
	running bool
	pending bool
}

func newSerialRunner(fn func()) *serialRunner {
	return &serialRunner{fn: fn}
}

// Trigger runs fn on the calling goroutine, or queues a follow-up and returns
// at once when another goroutine is already running it.
func (r *serialRunner) Trigger() {
	r.mu.Lock()
	if r.running {
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	for {
		r.fn()

		r.mu.Lock()
		if !r.pending {
			r.running = false
			r.mu.Unlock()
			return
		}
		r.pending = false
		r.mu.Unlock()
	}
}
