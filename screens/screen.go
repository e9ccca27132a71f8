// Package screens holds the view state and user intents of every TripWise screen.
//
// Controllers get their adapters injected, keep their state behind a mutex and
// hand every new state to the render callback. Live subscriptions are started
// on Mount and released on Unmount.
package screens

import (
	"context"
	"errors"
	"sync"
)

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	case StatusNotFound:
		return "not found"
	}
	return "unknown"
}

// ErrBusy is returned when a submission is already in flight
var ErrBusy = errors.New("already submitting")

// Notifier shows short-lived messages (toasts)
type Notifier interface {
	Notify(message string)
}

type NotifyFunc func(message string)

func (f NotifyFunc) Notify(message string) {
	f(message)
}

type discard struct{}

func (discard) Notify(string) {}

// PermissionGate guards the map behind the location permission
type PermissionGate interface {
	Granted() bool
	// Request asks the user and reports whether the permission was granted
	Request(ctx context.Context) (bool, error)
}

// screen holds state S. The render callback is called with the lock held
// and must not call back into the controller.
type screen[S any] struct {
	mutex  sync.Mutex
	state  S
	render func(S)
}

func (s *screen[S]) update(fn func(*S)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	fn(&s.state)
	if s.render != nil {
		s.render(s.state)
	}
}

// State returns the current view state
func (s *screen[S]) State() S {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

// OnRender sets the callback receiving every new state
func (s *screen[S]) OnRender(render func(S)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.render = render
}

func messageOf(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
