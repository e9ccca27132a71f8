package screens

import (
	"errors"
	"fmt"
	"sync"
)

type Route string

const (
	RouteSplash  Route = "splash"
	RouteLogin   Route = "login"
	RouteSignUp  Route = "signup"
	RouteHome    Route = "home"
	RouteDetails Route = "details"
	RouteMap     Route = "map"
)

// transitions lists where each screen may navigate to, Back aside
var transitions = map[Route][]Route{
	RouteSplash:  {RouteLogin},
	RouteLogin:   {RouteHome, RouteSignUp},
	RouteSignUp:  {RouteLogin},
	RouteHome:    {RouteDetails, RouteLogin},
	RouteDetails: {RouteMap},
}

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNothingToPop      = errors.New("no previous screen")
)

// Params are passed to the details and map screens
type Params struct {
	UserID  string
	PlaceID string
}

// Blank is true when either identifier is missing
func (p Params) Blank() bool {
	return p.UserID == "" || p.PlaceID == ""
}

type Navigator interface {
	// Navigate opens a screen. With clearStack nothing can be navigated back to afterwards.
	Navigate(to Route, params Params, clearStack bool) error
	// Back closes the current screen
	Back() error
}

type Entry struct {
	Route  Route
	Params Params
}

// Stack is the Navigator keeping the back stack in memory
type Stack struct {
	mutex   sync.Mutex
	entries []Entry
	// OnChange is called with the new top of the stack
	OnChange func(Entry)
}

func NewStack(start Route) *Stack {
	return &Stack{entries: []Entry{{Route: start}}}
}

func allowed(from, to Route) bool {
	for _, r := range transitions[from] {
		if r == to {
			return true
		}
	}
	return false
}

func (s *Stack) Navigate(to Route, params Params, clearStack bool) error {
	s.mutex.Lock()
	from := s.entries[len(s.entries)-1].Route
	if !allowed(from, to) {
		s.mutex.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	entry := Entry{Route: to, Params: params}
	if clearStack {
		s.entries = []Entry{entry}
	} else {
		s.entries = append(s.entries, entry)
	}
	onChange := s.OnChange
	s.mutex.Unlock()
	if onChange != nil {
		onChange(entry)
	}
	return nil
}

func (s *Stack) Back() error {
	s.mutex.Lock()
	if len(s.entries) < 2 {
		s.mutex.Unlock()
		return ErrNothingToPop
	}
	s.entries = s.entries[:len(s.entries)-1]
	entry := s.entries[len(s.entries)-1]
	onChange := s.OnChange
	s.mutex.Unlock()
	if onChange != nil {
		onChange(entry)
	}
	return nil
}

func (s *Stack) Current() Entry {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.entries[len(s.entries)-1]
}

// History returns the back stack, oldest first
func (s *Stack) History() []Entry {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]Entry{}, s.entries...)
}
