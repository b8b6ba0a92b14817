package types

import (
	"fmt"
	"strings"
)

// Address is the shipping snapshot captured at checkout time. It is stored as a
// jsonb column on the order row and never re-resolved against a live profile.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
}

// Validate reports the first missing required field by name.
func (a Address) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("address: missing %s", r.field)
		}
	}
	return nil
}
