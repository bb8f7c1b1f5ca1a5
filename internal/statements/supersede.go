package statements

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned for a request that a newer request with the
// same key replaced before it finished.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Supersede enforces last-request-wins per key. Beginning a request
// cancels the in-flight request with the same key, and only the latest
// request may commit its result.
type Supersede struct {
	mu     sync.Mutex
	latest map[string]*Ticket
}

// Ticket identifies one request.
type Ticket struct {
	key    string
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// Context is cancelled with cause ErrSuperseded when a newer request for
// the same key begins.
func (t *Ticket) Context() context.Context { return t.ctx }

// NewSupersede creates an empty coordinator.
func NewSupersede() *Supersede {
	return &Supersede{latest: make(map[string]*Ticket)}
}

// Begin registers a request for key, superseding any request in flight.
func (s *Supersede) Begin(ctx context.Context, key string) *Ticket {
	tctx, cancel := context.WithCancelCause(ctx)
	t := &Ticket{key: key, ctx: tctx, cancel: cancel}

	s.mu.Lock()
	prev := s.latest[key]
	s.latest[key] = t
	s.mu.Unlock()

	if prev != nil {
		prev.cancel(ErrSuperseded)
	}
	return t
}

// Commit runs publish if t is still the latest request for its key. The
// check and publish happen under one lock, so a superseded request can
// never publish after its replacement.
func (s *Supersede) Commit(t *Ticket, publish func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest[t.key] != t {
		return ErrSuperseded
	}
	publish()
	return nil
}

// Release ends t, cancelling its context and forgetting it if it is still
// the latest request for its key.
func (s *Supersede) Release(t *Ticket) {
	s.mu.Lock()
	if s.latest[t.key] == t {
		delete(s.latest, t.key)
	}
	s.mu.Unlock()
	t.cancel(context.Canceled)
}

// InFlight returns the number of keys with a request in flight.
func (s *Supersede) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latest)
}

// Run computes a result under key and publishes it only if no newer
// request for key began meanwhile. A superseded request returns
// ErrSuperseded and never publishes.
func Run[T any](ctx context.Context, s *Supersede, key string, compute func(context.Context) (T, error), publish func(T)) error {
	t := s.Begin(ctx, key)
	defer s.Release(t)

	v, err := compute(t.Context())
	if err != nil {
		if errors.Is(context.Cause(t.Context()), ErrSuperseded) {
			return ErrSuperseded
		}
		return err
	}
	return s.Commit(t, func() { publish(v) })
}
