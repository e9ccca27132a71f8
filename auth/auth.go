package auth

import (
	"context"
	"errors"
)

// Provider is the identity service as the client screens see it
type Provider interface {
	// CurrentUserID returns the signed in user, if any
	CurrentUserID() (string, bool)
	SignIn(ctx context.Context, email, password string) error
	// SignUp creates the account and signs the new user in
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// Error carries the identity provider's message, shown to the user as is
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

const (
	MessageEmailInUse      = "The email address is already in use by another account."
	MessageUserNotFound    = "There is no user record corresponding to this identifier."
	MessageWrongPassword   = "The password is invalid."
	MessageInvalidEmail    = "The email address is badly formatted."
	MessageWeakPassword    = "The password must be 6 characters long or more."
	MessageTooManyRequests = "Too many attempts. Try again later."
)

// MessageOf returns the message to show for any sign in/up failure
func MessageOf(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
