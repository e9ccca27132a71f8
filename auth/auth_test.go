package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tripwise/db"
	"tripwise/models"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	gdb, err := db.Open("", ":memory:")
	require.NoError(t, err)
	require.NoError(t, models.Init(gdb))
	return NewService(gdb)
}

func TestServiceRegisterAndVerify(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	u, err := s.Register(ctx, " Ann@Example.com ", "abcdef")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEqual(t, "abcdef", u.Password)
	assert.Len(t, u.ID, 36)

	got, err := s.Verify(ctx, "ann@example.com", "abcdef")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	loaded, err := s.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, loaded.Email)
}

func TestServiceErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	_, err := s.Register(ctx, "ann@example.com", "abcdef")
	require.NoError(t, err)

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"duplicate email", func() error { _, err := s.Register(ctx, "ANN@example.com", "abcdef"); return err }, MessageEmailInUse},
		{"bad email", func() error { _, err := s.Register(ctx, "not-an-email", "abcdef"); return err }, MessageInvalidEmail},
		{"weak password", func() error { _, err := s.Register(ctx, "bob@example.com", "abc"); return err }, MessageWeakPassword},
		{"unknown user", func() error { _, err := s.Verify(ctx, "bob@example.com", "abcdef"); return err }, MessageUserNotFound},
		{"wrong password", func() error { _, err := s.Verify(ctx, "ann@example.com", "abcdeg"); return err }, MessageWrongPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			var ae *Error
			require.True(t, errors.As(err, &ae), "got %v", err)
			assert.Equal(t, tt.want, ae.Message)
		})
	}
}

func TestLocalProvider(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(newTestService(t))

	_, ok := l.CurrentUserID()
	assert.False(t, ok)

	require.NoError(t, l.SignUp(ctx, "ann@example.com", "abcdef"))
	id, ok := l.CurrentUserID()
	assert.True(t, ok)
	assert.NotEmpty(t, id)

	require.NoError(t, l.SignOut(ctx))
	_, ok = l.CurrentUserID()
	assert.False(t, ok)

	err := l.SignIn(ctx, "ann@example.com", "wrong1")
	assert.Equal(t, MessageWrongPassword, MessageOf(err, "Login failed."))
	_, ok = l.CurrentUserID()
	assert.False(t, ok)

	require.NoError(t, l.SignIn(ctx, "ann@example.com", "abcdef"))
	again, _ := l.CurrentUserID()
	assert.Equal(t, id, again)
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "fallback", MessageOf(nil, "fallback"))
	assert.Equal(t, "boom", MessageOf(errors.New("boom"), "fallback"))
	assert.Equal(t, MessageEmailInUse, MessageOf(&Error{MessageEmailInUse}, "fallback"))
}

func TestLoginLimiter(t *testing.T) {
	var disabled *LoginLimiter = NewLoginLimiter(0)
	assert.True(t, disabled.Allow("1.2.3.4"))

	l := NewLoginLimiter(2)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "limits are per client")
}

func TestLoginLimiterSweep(t *testing.T) {
	var disabled *LoginLimiter
	assert.Zero(t, disabled.Sweep(time.Minute))

	l := NewLoginLimiter(2)
	l.Allow("1.2.3.4")
	l.Allow("1.2.3.4")
	l.Allow("5.6.7.8")
	require.Equal(t, 2, l.Clients())
	now := time.Now()

	tests := []struct {
		name    string
		at      time.Time
		idle    time.Duration
		removed int
		left    int
	}{
		{"recent", now, time.Minute, 0, 2},
		{"idle but still refilling", now.Add(10 * time.Second), 5 * time.Second, 0, 2},
		{"idle and refilled", now.Add(2 * time.Minute), time.Minute, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.removed, l.sweep(tt.at, tt.idle))
			assert.Equal(t, tt.left, l.Clients())
		})
	}
	assert.True(t, l.Allow("1.2.3.4"), "a swept client starts with a full budget")
}

func TestServiceConcurrentRegister(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Register(ctx, "ann@example.com", "abcdef")
		}(i)
	}
	wg.Wait()

	registered := 0
	for _, err := range errs {
		if err == nil {
			registered++
			continue
		}
		var ae *Error
		require.True(t, errors.As(err, &ae), "unexpected error %v", err)
		assert.Equal(t, MessageEmailInUse, ae.Message)
	}
	assert.Equal(t, 1, registered)
}

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("create: %w", &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry"}), true},
		{errors.New("UNIQUE constraint failed: users.email"), true},
		{&mysqldriver.MySQLError{Number: 1045}, false},
		{errors.New("database is locked"), false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicateKey(tt.err))
		})
	}
}
