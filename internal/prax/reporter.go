package prax

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// State is the import lifecycle state published by the Reporter.
type State int

const (
	StateWaitingForAuthorization State = iota
	StateAuthorizationGranted
	StateAuthorizationDenied
	StateBuildingDatabase
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateWaitingForAuthorization:
		return "waiting_for_authorization"
	case StateAuthorizationGranted:
		return "authorization_granted"
	case StateAuthorizationDenied:
		return "authorization_denied"
	case StateBuildingDatabase:
		return "building_database"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[State][]State{
	StateWaitingForAuthorization: {StateAuthorizationGranted, StateAuthorizationDenied},
	StateAuthorizationGranted:    {StateBuildingDatabase},
	StateBuildingDatabase:        {StateCompleted, StateFailed},
	StateCompleted:               {StateBuildingDatabase},
	StateFailed:                  {StateBuildingDatabase},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Status is an immutable snapshot of the Reporter's published fields.
type Status struct {
	State           State
	TotalCount      int
	ProgressA       float64 // outer loop position in [0,1]
	ProgressB       float64 // inner loop position in [0,1]
	Message         string
	LastCompletedAt *time.Time
	LastError       error
}

// Reporter is the observable import status. Writers change it only through
// its methods; observers receive snapshots on the Reporter's dispatcher, in
// the order the changes were made.
type Reporter struct {
	dispatcher *Dispatcher

	mu     sync.Mutex
	status Status

	nextID    atomic.Int64
	observers map[int64]func(Status) // dispatcher goroutine only
}

// NewReporter creates a Reporter delivering on d, waiting for authorization.
func NewReporter(d *Dispatcher) *Reporter {
	return &Reporter{
		dispatcher: d,
		status: Status{
			State:   StateWaitingForAuthorization,
			Message: "Waiting to begin...",
		},
		observers: make(map[int64]func(Status)),
	}
}

// Status returns the current snapshot.
func (r *Reporter) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Subscribe registers fn for every future change. fn is called once right
// away with the current snapshot. The returned func unsubscribes.
func (r *Reporter) Subscribe(fn func(Status)) (unsubscribe func()) {
	id := r.nextID.Add(1)

	r.mu.Lock()
	snap := r.status
	r.dispatcher.Dispatch(func() {
		r.observers[id] = fn
		fn(snap)
	})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.dispatcher.Dispatch(func() { delete(r.observers, id) })
		})
	}
}

// Sync waits until observers have seen every change made so far.
func (r *Reporter) Sync() {
	r.dispatcher.Sync()
}

// update applies fn under the lock and queues the resulting snapshot for
// delivery. Queuing under the lock keeps delivery order equal to write order.
func (r *Reporter) update(fn func(s *Status) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.status
	if err := fn(&next); err != nil {
		return err
	}
	r.status = next
	r.dispatcher.Dispatch(func() { r.publish(next) })
	return nil
}

func (r *Reporter) publish(s Status) {
	for _, fn := range r.observers {
		fn(s)
	}
}

// Authorize records the outcome of an access request.
func (r *Reporter) Authorize(access AccessStatus) error {
	return r.update(func(s *Status) error {
		to := StateAuthorizationDenied
		if access == AccessGranted {
			to = StateAuthorizationGranted
		}
		if !canTransition(s.State, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.State, to)
		}
		s.State = to
		if to == StateAuthorizationGranted {
			s.Message = "Authorization granted."
			s.LastError = nil
		} else {
			s.Message = "Authorization denied."
			s.LastError = ErrAuthorizationDenied
		}
		return nil
	})
}

// Begin enters BuildingDatabase. The check and the change are atomic, so of
// several concurrent callers exactly one succeeds.
func (r *Reporter) Begin() error {
	return r.update(func(s *Status) error {
		switch s.State {
		case StateWaitingForAuthorization:
			return ErrNotAuthorized
		case StateAuthorizationDenied:
			return ErrAuthorizationDenied
		case StateBuildingDatabase:
			return ErrImportInProgress
		}
		s.State = StateBuildingDatabase
		s.TotalCount = 0
		s.ProgressA = 0
		s.ProgressB = 0
		s.LastError = nil
		return nil
	})
}

// SetTotal publishes the number of records the running pass will visit.
func (r *Reporter) SetTotal(n int) {
	r.update(func(s *Status) error {
		s.TotalCount = n
		return nil
	})
}

// SetMessage publishes a status line.
func (r *Reporter) SetMessage(msg string) {
	r.update(func(s *Status) error {
		s.Message = msg
		return nil
	})
}

// Progress publishes both progress channels and a status line in one change.
// Values are clamped to [0,1].
func (r *Reporter) Progress(a, b float64, msg string) {
	r.update(func(s *Status) error {
		s.ProgressA = clamp(a)
		s.ProgressB = clamp(b)
		s.Message = msg
		return nil
	})
}

// Complete ends the running pass successfully. completedAt is recorded as
// LastCompletedAt when non-nil.
func (r *Reporter) Complete(msg string, completedAt *time.Time) error {
	return r.update(func(s *Status) error {
		if !canTransition(s.State, StateCompleted) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.State, StateCompleted)
		}
		s.State = StateCompleted
		s.ProgressA = 0
		s.ProgressB = 0
		s.Message = msg
		if completedAt != nil {
			t := *completedAt
			s.LastCompletedAt = &t
		}
		return nil
	})
}

// Fail ends the running pass with err.
func (r *Reporter) Fail(err error) error {
	return r.update(func(s *Status) error {
		if !canTransition(s.State, StateFailed) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.State, StateFailed)
		}
		s.State = StateFailed
		s.LastError = err
		s.Message = fmt.Sprintf("Import failed: %v", err)
		return nil
	})
}

// SetLastCompleted restores LastCompletedAt from history at startup.
func (r *Reporter) SetLastCompleted(t time.Time) {
	r.update(func(s *Status) error {
		s.LastCompletedAt = &t
		return nil
	})
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func fraction(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(done) / float64(total)
}
