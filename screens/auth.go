package screens

import (
	"context"
	"errors"

	"tripwise/auth"
	"tripwise/forms"

	"github.com/rs/zerolog/log"
)

const MessageAccountCreated = "Account created!"

// AuthFormState is shared by the login and sign up screens
type AuthFormState struct {
	Loading bool
	// Error is shown inline under the form
	Error string
}

// Login is the sign in screen
type Login struct {
	screen[AuthFormState]
	auth auth.Provider
	nav  Navigator
}

func NewLogin(provider auth.Provider, nav Navigator) *Login {
	return &Login{auth: provider, nav: nav}
}

// begin validates and marks the form as loading. A non-nil error means nothing should be sent.
func begin(s *screen[AuthFormState], validate func() error) error {
	var result error
	s.update(func(st *AuthFormState) {
		if st.Loading {
			result = ErrBusy
			return
		}
		if err := validate(); err != nil {
			st.Error = err.Error()
			result = err
			return
		}
		st.Error = ""
		st.Loading = true
	})
	return result
}

func finish(s *screen[AuthFormState], err error, fallback string) {
	s.update(func(st *AuthFormState) {
		st.Loading = false
		if err != nil {
			st.Error = auth.MessageOf(err, fallback)
		}
	})
}

// Submit signs in; on success home becomes the only screen on the stack
func (l *Login) Submit(ctx context.Context, form forms.Login) error {
	if err := begin(&l.screen, form.Validate); err != nil {
		return err
	}
	err := l.auth.SignIn(ctx, form.Email, form.Password)
	finish(&l.screen, err, "Login failed.")
	if err != nil {
		log.Debug().Err(err).Msg("sign in failed")
		return err
	}
	userID, _ := l.auth.CurrentUserID()
	return l.nav.Navigate(RouteHome, Params{UserID: userID}, true)
}

func (l *Login) GoToSignUp() error {
	return l.nav.Navigate(RouteSignUp, Params{}, false)
}

// SignUp is the account creation screen
type SignUp struct {
	screen[AuthFormState]
	auth     auth.Provider
	nav      Navigator
	notifier Notifier
}

func NewSignUp(provider auth.Provider, nav Navigator, notifier Notifier) *SignUp {
	if notifier == nil {
		notifier = discard{}
	}
	return &SignUp{auth: provider, nav: nav, notifier: notifier}
}

// Submit creates the account and continues to the login screen
func (s *SignUp) Submit(ctx context.Context, form forms.SignUp) error {
	if err := begin(&s.screen, form.Validate); err != nil {
		return err
	}
	err := s.auth.SignUp(ctx, form.Email, form.Password)
	finish(&s.screen, err, "Sign up failed.")
	if err != nil {
		return err
	}
	s.notifier.Notify(MessageAccountCreated)
	return s.nav.Navigate(RouteLogin, Params{}, true)
}

func (s *SignUp) GoToLogin() error {
	return s.nav.Navigate(RouteLogin, Params{}, true)
}

// IsValidation is true for errors that blocked a submission before any backend call
func IsValidation(err error) bool {
	var ve *forms.ValidationError
	return errors.As(err, &ve)
}
