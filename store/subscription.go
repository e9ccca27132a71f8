package store

import (
	"context"
	"sync"
)

// Update is one delivery of a live subscription. Err is set on failure and is always the last delivery.
type Update[T any] struct {
	Value T
	Err   *StoreError
}

// RunFunc produces updates until ctx is done. emit returns false once the subscriber is gone.
type RunFunc[T any] func(ctx context.Context, emit func(Update[T]) bool)

// Subscription is a live query handle: Start once, Cancel when the consumer goes away
type Subscription[T any] struct {
	run     RunFunc[T]
	mutex   sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	updates chan Update[T]
	started bool
}

func NewSubscription[T any](run RunFunc[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Subscription[T]{
		run:     run,
		ctx:     ctx,
		cancel:  cancel,
		updates: make(chan Update[T], 1),
	}
}

// Start begins listening. Calling it again returns the same channel.
// The channel is closed after Cancel or after an error update.
func (s *Subscription[T]) Start() <-chan Update[T] {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.started {
		return s.updates
	}
	s.started = true
	if s.ctx.Err() != nil {
		close(s.updates)
		return s.updates
	}
	go func() {
		defer close(s.updates)
		s.run(s.ctx, s.emit)
	}()
	return s.updates
}

func (s *Subscription[T]) emit(u Update[T]) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}
	select {
	case s.updates <- u:
		if u.Err != nil {
			s.cancel()
			return false
		}
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Cancel releases the listener; safe to call more than once
func (s *Subscription[T]) Cancel() {
	s.cancel()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.started {
		s.started = true
		close(s.updates)
	}
}

// Done is closed once the subscription is cancelled or failed
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Map converts the values of a subscription. A conversion error ends it like a listener failure.
func Map[T, U any](sub *Subscription[T], convert func(T) (U, error)) *Subscription[U] {
	return NewSubscription(func(ctx context.Context, emit func(Update[U]) bool) {
		defer sub.Cancel()
		updates := sub.Start()
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				if u.Err != nil {
					emit(Update[U]{Err: u.Err})
					return
				}
				v, err := convert(u.Value)
				if err != nil {
					emit(Update[U]{Err: newError("decode", "", err)})
					return
				}
				if !emit(Update[U]{Value: v}) {
					return
				}
			}
		}
	})
}
