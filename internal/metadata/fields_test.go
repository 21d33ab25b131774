package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintctl/internal/canonical"
)

func TestParseScalar(t *testing.T) {
	tests := []struct {
		name     string
		typ      FieldType
		raw      string
		prepared string
		value    canonical.Value
	}{
		{"string trimmed", TypeString, "  Alpha  ", "Alpha", canonical.String("Alpha")},
		{"string nfc", TypeString, "café", "café", canonical.String("café")},
		{"int", TypeInt, " -12 ", "-12", canonical.Int(-12)},
		{"uint64", TypeUInt64, "007", "7", canonical.Uint(7)},
		{"ufix64 integer", TypeUFix64, "42", "42.00000000", canonical.String("42.00000000")},
		{"ufix64 decimal", TypeUFix64, "1.5", "1.50000000", canonical.String("1.50000000")},
		{"ufix64 max", TypeUFix64, "184467440737.09551615", "184467440737.09551615", canonical.String("184467440737.09551615")},
		{"bool", TypeBool, "TRUE", "true", canonical.Bool(true)},
		{"http file", TypeHTTPFile, " https://example.com/a.png ", "https://example.com/a.png", canonical.String("https://example.com/a.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepared, value, err := parseScalar(tt.typ, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.prepared, prepared)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParseScalarInvalid(t *testing.T) {
	tests := []struct {
		name string
		typ  FieldType
		raw  string
	}{
		{"int letters", TypeInt, "12abc"},
		{"uint64 negative", TypeUInt64, "-1"},
		{"ufix64 negative", TypeUFix64, "-1.0"},
		{"ufix64 too precise", TypeUFix64, "1.123456789"},
		{"ufix64 trailing dot", TypeUFix64, "1."},
		{"ufix64 overflow", TypeUFix64, "184467440737.09551616"},
		{"bool", TypeBool, "maybe"},
		{"http file scheme", TypeHTTPFile, "ftp://example.com/a.png"},
		{"http file relative", TypeHTTPFile, "a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseScalar(tt.typ, tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestFieldErrorMessage(t *testing.T) {
	err := &FieldError{Row: 3, Field: "rarity", Value: "x", Err: assert.AnError}
	assert.Contains(t, err.Error(), `row 3: field "rarity": invalid value "x"`)
	assert.ErrorIs(t, err, assert.AnError)
}
