package models

import (
	"encoding/json"
	"fmt"
)

type Category uint8

const (
	CategoryNone Category = iota
	CategoryAttractions
	CategoryRestaurants
	CategoryHotels
)

// Categories in the order the chips are shown
var Categories = []Category{CategoryAttractions, CategoryRestaurants, CategoryHotels}

// ErrUnknownCategory is returned when a stored category is not one of Categories
type ErrUnknownCategory struct {
	Value string
}

func (e *ErrUnknownCategory) Error() string {
	return fmt.Sprintf("unknown category %q", e.Value)
}

func (c Category) String() string {
	switch c {
	case CategoryAttractions:
		return "Attractions"
	case CategoryRestaurants:
		return "Restaurants"
	case CategoryHotels:
		return "Hotels"
	}
	return ""
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if c.String() == s {
			return c, nil
		}
	}
	return CategoryNone, &ErrUnknownCategory{Value: s}
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
