package screens

import (
	"context"
	"sync"
	"time"
)

// Splash shows for a fixed time, then opens the login screen
type Splash struct {
	nav   Navigator
	delay time.Duration
	once  sync.Once
}

func NewSplash(nav Navigator, delay time.Duration) *Splash {
	return &Splash{nav: nav, delay: delay}
}

// Run waits for the delay and navigates exactly once. It returns early with ctx's error when cancelled.
func (s *Splash) Run(ctx context.Context) error {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	var err error
	s.once.Do(func() {
		// nothing can go back to the splash screen
		err = s.nav.Navigate(RouteLogin, Params{}, true)
	})
	return err
}
