package models

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

const (
	MinRating = 0.0
	MaxRating = 5.0
	// DefaultRating is used when the rating input cannot be parsed
	DefaultRating = 4.5

	MinRandomDistance = 300
	MaxRandomDistance = 2500 // exclusive
)

// Place is stored as a document under users/{uid}/places/{id}
type Place struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	DistanceMeters int      `json:"distanceMeters"`
	Rating         float64  `json:"rating"`
	Address        string   `json:"address"`
	IsFavorite     bool     `json:"isFavorite"`
}

// ToData returns the place as a document field map
func (p *Place) ToData() (map[string]any, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	return data, json.Unmarshal(b, &data)
}

var ErrMissingCategory = errors.New("place has no category")

// Check rejects a decoded place without a category. Unknown category names already fail while decoding.
func (p *Place) Check() error {
	if p.Category == CategoryNone {
		return ErrMissingCategory
	}
	return nil
}

// DistanceKm is what the place cards display, e.g. "1.2"
func (p *Place) DistanceKm() string {
	return strconv.FormatFloat(float64(p.DistanceMeters)/1000.0, 'f', 1, 64)
}

// ClampRating keeps the rating within [0, 5] with one decimal
func ClampRating(r float64) float64 {
	if math.IsNaN(r) {
		return DefaultRating
	}
	r = math.Max(MinRating, math.Min(MaxRating, r))
	return math.Round(r*10) / 10
}

// ParseRating parses user input, falling back to DefaultRating
func ParseRating(s string) float64 {
	r, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return DefaultRating
	}
	return ClampRating(r)
}

// RandomDistance is assigned to user-added places
func RandomDistance() int {
	return MinRandomDistance + rand.Intn(MaxRandomDistance-MinRandomDistance)
}
