package forms

import (
	"errors"
	"testing"

	"tripwise/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageOf(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "not a validation error: %v", err)
	return ve.Message
}

func TestSignUpValidate(t *testing.T) {
	tests := []struct {
		name string
		form SignUp
		want string
	}{
		{"bad email", SignUp{"not-an-email", "abcdef", "abcdef"}, MessageInvalidEmail},
		{"empty email", SignUp{"  ", "abcdef", "abcdef"}, MessageInvalidEmail},
		{"short password", SignUp{"ann@example.com", "abc", "abc"}, MessageShortPassword},
		{"mismatch", SignUp{"ann@example.com", "abcdef", "abcdef1"}, MessagePasswordMismatch},
		{"valid", SignUp{"ann@example.com", "abcdef", "abcdef"}, ""},
		{"valid with spaces around email", SignUp{" ann@example.com ", "abcdef", "abcdef"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageOf(t, tt.form.Validate()))
		})
	}
}

func TestLoginValidate(t *testing.T) {
	tests := []struct {
		name string
		form Login
		want string
	}{
		{"bad email", Login{"ann", "abcdef"}, MessageInvalidEmail},
		{"no password", Login{"ann@example.com", ""}, MessageMissingPassword},
		{"valid", Login{"ann@example.com", "x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageOf(t, tt.form.Validate()))
		})
	}
}

func TestNewPlaceValidate(t *testing.T) {
	tests := []struct {
		name string
		form NewPlace
		want string
	}{
		{"blank name", NewPlace{Name: "   ", Category: models.CategoryHotels, Address: "1 Main St"}, MessageMissingName},
		{"blank address", NewPlace{Name: "Pier", Category: models.CategoryHotels, Address: " "}, MessageMissingAddress},
		{"no category", NewPlace{Name: "Pier", Address: "1 Main St"}, MessageInvalidCategory},
		{"valid", NewPlace{Name: " Pier ", Category: models.CategoryHotels, Address: "1 Main St", Rating: "9"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageOf(t, tt.form.Validate()))
		})
	}
}

func TestNewPlacePlace(t *testing.T) {
	tests := []struct {
		rating string
		want   float64
	}{
		{"7.2", 5.0},
		{"-1", 0.0},
		{"4.37", 4.4},
		{"abc", 4.5},
	}
	for _, tt := range tests {
		t.Run(tt.rating, func(t *testing.T) {
			f := NewPlaceDefaults()
			f.Name, f.Address, f.Rating = "  Pier ", " 1 Main St ", tt.rating
			p := f.Place("id1")
			assert.Equal(t, "id1", p.ID)
			assert.Equal(t, "Pier", p.Name)
			assert.Equal(t, "1 Main St", p.Address)
			assert.Equal(t, models.CategoryAttractions, p.Category)
			assert.Equal(t, tt.want, p.Rating)
			assert.False(t, p.IsFavorite)
			assert.GreaterOrEqual(t, p.DistanceMeters, 300)
			assert.Less(t, p.DistanceMeters, 2500)
		})
	}
}
