// Package phone normalizes lead phone numbers.
package phone

import (
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Normalizer formats phone numbers relative to a default region.
type Normalizer struct {
	region string
}

// NewNormalizer creates a normalizer. An empty region defaults to US.
func NewNormalizer(region string) *Normalizer {
	if region == "" {
		region = "US"
	}
	return &Normalizer{region: strings.ToUpper(region)}
}

// Region returns the default region code.
func (n *Normalizer) Region() string { return n.region }

// Format parses raw and returns it in international format.
func (n *Normalizer) Format(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("phone number cannot be empty")
	}

	parsed, err := phonenumbers.Parse(raw, n.region)
	if err != nil {
		return "", fmt.Errorf("failed to parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("invalid phone number %q", raw)
	}
	return phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL), nil
}

// Normalize returns the international form of raw when it is a valid
// number. Anything else, including fictional or partial numbers, is kept as
// entered apart from surrounding whitespace.
func (n *Normalizer) Normalize(raw string) string {
	formatted, err := n.Format(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return formatted
}
