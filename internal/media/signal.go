// Package media defines the resource handle the synchronizer drives and the
// typed signals resources use to report readiness, seek completion and faults.
package media

import "sync"

// Subscription is returned by every subscribe call.
// Unsubscribe is safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// noopSubscription is handed out when there is nothing left to cancel
type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

// Signal is a multi-shot typed event. Every Emit is delivered to every
// handler subscribed at the time of the call.
type Signal[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[uint64]func(T)
	order    []uint64
}

// Subscribe registers fn and returns a handle that removes it again
func (s *Signal[T]) Subscribe(fn func(T)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers == nil {
		s.handlers = make(map[uint64]func(T))
	}
	id := s.nextID
	s.nextID++
	s.handlers[id] = fn
	s.order = append(s.order, id)

	return &subscription{cancel: func() { s.remove(id) }}
}

func (s *Signal[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.handlers, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Emit delivers v to the current subscribers in subscription order.
// Handlers run outside the signal's lock so they may subscribe or unsubscribe.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.handlers[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of live subscriptions
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Once is a single-shot latch. Only the first Fire is delivered; subscribers
// that arrive after the latch fired are called immediately with the latched value.
type Once[T any] struct {
	mu     sync.Mutex
	fired  bool
	value  T
	signal Signal[T]
}

// Subscribe registers fn for the single delivery of this latch
func (o *Once[T]) Subscribe(fn func(T)) Subscription {
	o.mu.Lock()
	if o.fired {
		v := o.value
		o.mu.Unlock()
		fn(v)
		return noopSubscription{}
	}
	defer o.mu.Unlock()
	return o.signal.Subscribe(fn)
}

// Fire latches v and delivers it. It returns false when the latch had
// already fired, in which case nothing is delivered.
func (o *Once[T]) Fire(v T) bool {
	o.mu.Lock()
	if o.fired {
		o.mu.Unlock()
		return false
	}
	o.fired = true
	o.value = v
	o.mu.Unlock()

	o.signal.Emit(v)
	return true
}

// Fired reports whether the latch has fired
func (o *Once[T]) Fired() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fired
}

// Len returns the number of subscriptions still waiting on the latch
func (o *Once[T]) Len() int {
	return o.signal.Len()
}
