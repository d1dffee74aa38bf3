package domain

import (
	"regexp"
	"strings"
)

// VIN format: 17 alphanumeric characters, excluding I, O, Q.
var vinRegex = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// NormalizeVIN trims surrounding whitespace and upper-cases a candidate VIN.
// Idempotent: NormalizeVIN(NormalizeVIN(s)) == NormalizeVIN(s).
func NormalizeVIN(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsValidVIN reports whether vin (after normalization) is a well-formed VIN.
func IsValidVIN(vin string) bool {
	return vinRegex.MatchString(NormalizeVIN(vin))
}

// CheckVIN validates a normalized VIN and returns a ValidationError naming the
// exact constraint violated. Fails closed: anything non-conforming is invalid.
func CheckVIN(vin string) error {
	v := NormalizeVIN(vin)
	if len(v) != 17 {
		return NewValidationError("vin", v, ErrVINLength)
	}
	if strings.ContainsAny(v, "IOQ") {
		return NewValidationError("vin", v, ErrVINCharset)
	}
	if !vinRegex.MatchString(v) {
		return NewValidationError("vin", v, ErrInvalidVIN)
	}
	return nil
}
