package model

import (
	"errors"
	"strings"
)

// Item represents a vehicle record in the inventory.
// An Item with ID 0 has not been persisted yet.
type Item struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Year        int     `json:"year"`
	Price       float64 `json:"price"`
	Description *string `json:"description"`
	ImageRef    *string `json:"image_url"`
}

// IsNew reports whether the item is pending creation.
func (i Item) IsNew() bool {
	return i.ID == 0
}

// HasImage reports whether the item references an image.
func (i Item) HasImage() bool {
	return i.ImageRef != nil
}

// Validate checks the fields every stored item must carry.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("name required")
	}
	return nil
}

// OptionalText converts form or seed input into an optional field.
// Empty input means the value is absent.
func OptionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// TextValue returns the optional field's value, or "" when absent.
func TextValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
