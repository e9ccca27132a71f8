package auth

import (
	"context"
	"sync"
)

// Local is a Provider talking to the Service in the same process
type Local struct {
	service *Service
	mutex   sync.RWMutex
	userID  string
}

func NewLocal(service *Service) *Local {
	return &Local{service: service}
}

func (l *Local) CurrentUserID() (string, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.userID, l.userID != ""
}

func (l *Local) SignIn(ctx context.Context, email, password string) error {
	u, err := l.service.Verify(ctx, email, password)
	if err != nil {
		return err
	}
	l.setUser(u.ID)
	return nil
}

func (l *Local) SignUp(ctx context.Context, email, password string) error {
	u, err := l.service.Register(ctx, email, password)
	if err != nil {
		return err
	}
	l.setUser(u.ID)
	return nil
}

func (l *Local) SignOut(ctx context.Context) error {
	l.setUser("")
	return nil
}

func (l *Local) setUser(id string) {
	l.mutex.Lock()
	l.userID = id
	l.mutex.Unlock()
}
