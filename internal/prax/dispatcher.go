package prax

import "sync"

// Dispatcher runs queued functions one at a time, in submission order, on a
// single goroutine it owns. Observer callbacks are delivered through it so
// each observer sees a serialized stream of updates.
//
// Dispatch never blocks: the queue is unbounded.
type Dispatcher struct {
	mu      sync.Mutex
	pending []func()
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

// NewDispatcher creates a dispatcher and starts its goroutine.
// Call Close to stop it.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch queues fn. It returns false if the dispatcher is closed.
func (d *Dispatcher) Dispatch(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.pending = append(d.pending, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Sync blocks until everything queued before the call has run.
// It must not be called from a dispatched function.
func (d *Dispatcher) Sync() {
	done := make(chan struct{})
	if !d.Dispatch(func() { close(done) }) {
		return
	}
	<-done
}

// Close runs what is already queued, then stops the goroutine.
// It must not be called from a dispatched function.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.stopped
		return
	}
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.stopped
}

func (d *Dispatcher) run() {
	defer close(d.stopped)
	for {
		d.mu.Lock()
		batch := d.pending
		d.pending = nil
		closed := d.closed
		d.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		if len(batch) == 0 {
			if closed {
				return
			}
			<-d.wake
		}
	}
}
