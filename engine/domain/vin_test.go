package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeVIN_Idempotent(t *testing.T) {
	cases := []string{"  1hgbh41jxmn109186 ", "1HGBH41JXMN109186", "vin", "", "\t5yj3e1ea1nf123456\n"}
	for _, s := range cases {
		once := NormalizeVIN(s)
		if NormalizeVIN(once) != once {
			t.Errorf("NormalizeVIN not idempotent for %q", s)
		}
	}
}

func TestIsValidVIN_Valid(t *testing.T) {
	cases := []string{
		"1HGBH41JXMN109186",
		"1hgbh41jxmn109186", // case-insensitive
		"5YJ3E1EA1NF123456",
		"1FTEW1E88HKE34785",
	}
	for _, vin := range cases {
		if !IsValidVIN(vin) {
			t.Errorf("expected valid VIN %q", vin)
		}
	}
}

func TestIsValidVIN_Invalid(t *testing.T) {
	cases := []string{
		"vin",                // too short
		"",                   // empty
		"1HGBH41JXMN10918O",  // contains O
		"IHGBH41JXMN109186",  // contains I
		"1HGBH41JXMN10918Q",  // contains Q
		"1HGBH41JXMN1091866", // 18 chars
		"1HGBH41JXMN10918!",  // punctuation
	}
	for _, vin := range cases {
		if IsValidVIN(vin) {
			t.Errorf("expected invalid VIN %q", vin)
		}
	}
}

func TestCheckVIN_NamesConstraint(t *testing.T) {
	if err := CheckVIN("1HGBH41JXMN109186"); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
	if err := CheckVIN("abc"); !errors.Is(err, ErrVINLength) {
		t.Errorf("expected ErrVINLength, got %v", err)
	}
	if err := CheckVIN("1HGBH41JXMN10918O"); !errors.Is(err, ErrVINCharset) {
		t.Errorf("expected ErrVINCharset, got %v", err)
	}
	// Right length, no I/O/Q, but still outside the charset.
	if err := CheckVIN("1HGBH41JXMN10918!"); !errors.Is(err, ErrInvalidVIN) {
		t.Errorf("expected ErrInvalidVIN, got %v", err)
	}
	var ve *ValidationError
	if err := CheckVIN("short"); !errors.As(err, &ve) || ve.Field != "vin" {
		t.Errorf("expected *ValidationError on field vin, got %v", err)
	}
}

func TestCheckVIN_NormalizesFirst(t *testing.T) {
	if err := CheckVIN("  1hgbh41jxmn109186  "); err != nil {
		t.Errorf("expected whitespace and case to be normalized, got %v", err)
	}
}

func TestUserHint_Taxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NewValidationError("vin", "abc", ErrVINLength), "17 characters"},
		{NewValidationError("vin", "x", ErrVINCharset), "I, O, or Q"},
		{NewProviderError(ProviderAutoDetail, ErrUnauthorized, "", nil), "API key"},
		{NewProviderError(ProviderNHTSA, ErrNotFound, "", nil), "no data"},
		{NewProviderError(ProviderVINLookup, ErrNetwork, "", nil), "try again"},
		{errors.New("mystery"), "something went wrong"},
	}
	for _, c := range cases {
		if got := UserHint(c.err); !strings.Contains(got, c.want) {
			t.Errorf("UserHint(%v) = %q, want substring %q", c.err, got, c.want)
		}
	}
}
