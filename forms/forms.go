// Package forms validates user input before anything is sent to the backend.
package forms

import (
	"errors"
	"strings"

	"tripwise/models"

	"github.com/go-playground/validator/v10"
)

const (
	MessageInvalidEmail     = "Please enter a valid email."
	MessageShortPassword    = "Password must be at least 6 characters."
	MessagePasswordMismatch = "Passwords do not match."
	MessageMissingPassword  = "Please enter your password."
	MessageMissingName      = "Please enter the place name."
	MessageMissingAddress   = "Please enter the address."
	MessageInvalidCategory  = "Please pick a category."
)

// ValidationError blocks a submission. Field is the struct field that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = validator.New()

// messages maps "Field.tag" to what the user sees
var messages = map[string]string{
	"Email.required":    MessageInvalidEmail,
	"Email.email":       MessageInvalidEmail,
	"Password.required": MessageMissingPassword,
	"Password.min":      MessageShortPassword,
	"Confirm.eqfield":   MessagePasswordMismatch,
	"Name.required":     MessageMissingName,
	"Address.required":  MessageMissingAddress,
	"Category.required": MessageInvalidCategory,
}

// check runs the struct validation and returns the first failure only, like the screens show it
func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err
	}
	fe := fieldErrors[0]
	msg, ok := messages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg = fe.Error()
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}

type SignUp struct {
	Email    string `validate:"required,email"`
	Password string `validate:"min=6"`
	Confirm  string `validate:"eqfield=Password"`
}

func (f *SignUp) Validate() error {
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

type Login struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (f *Login) Validate() error {
	f.Email = strings.TrimSpace(f.Email)
	return check(f)
}

// NewPlace is the "Add a Place" dialog
type NewPlace struct {
	Name     string          `validate:"required"`
	Category models.Category `validate:"required"`
	Address  string          `validate:"required"`
	Rating   string
}

// NewPlaceDefaults is what the dialog shows when it opens
func NewPlaceDefaults() NewPlace {
	return NewPlace{Category: models.CategoryAttractions, Rating: "4.5"}
}

func (f *NewPlace) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	return check(f)
}

// Place returns the record to store, with the rating clamped and a random distance
func (f *NewPlace) Place(id string) models.Place {
	return models.Place{
		ID:             id,
		Name:           strings.TrimSpace(f.Name),
		Category:       f.Category,
		DistanceMeters: models.RandomDistance(),
		Rating:         models.ParseRating(f.Rating),
		Address:        strings.TrimSpace(f.Address),
	}
}
