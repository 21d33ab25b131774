package metadata

import (
	"errors"
	"fmt"
	"math/bits"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/mintctl/internal/canonical"
)

// ufix64Scale is the number of fractional decimal digits in a UFix64.
const ufix64Scale = 8

// IPFSScheme prefixes file values that already name a CID.
const IPFSScheme = "ipfs://"

// ErrMissingColumn marks a schema field absent from an input row.
var ErrMissingColumn = errors.New("missing column")

// FieldError reports a value that could not be parsed for its field.
type FieldError struct {
	Row   int // 1-based data row, 0 if unknown
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrMissingColumn) {
		if e.Row > 0 {
			return fmt.Sprintf("row %d: missing column %q", e.Row, e.Field)
		}
		return fmt.Sprintf("missing column %q", e.Field)
	}
	if e.Row > 0 {
		return fmt.Sprintf("row %d: field %q: invalid value %q: %v", e.Row, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("field %q: invalid value %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// parseScalar canonicalizes a non-file value.
// Surrounding whitespace is never significant; strings are NFC normalized.
func parseScalar(t FieldType, raw string) (string, canonical.Value, error) {
	s := strings.TrimSpace(raw)

	switch t {
	case TypeString:
		s = norm.NFC.String(s)
		return s, canonical.String(s), nil

	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("not an integer")
		}
		return strconv.FormatInt(n, 10), canonical.Int(n), nil

	case TypeUInt64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("not an unsigned integer")
		}
		return strconv.FormatUint(n, 10), canonical.Uint(n), nil

	case TypeUFix64:
		formatted, err := normalizeUFix64(s)
		if err != nil {
			return "", nil, err
		}
		return formatted, canonical.String(formatted), nil

	case TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return "", nil, fmt.Errorf("not a boolean")
		}
		formatted := strconv.FormatBool(b)
		return formatted, canonical.Bool(b), nil

	case TypeHTTPFile:
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return "", nil, fmt.Errorf("not an http(s) URL")
		}
		return s, canonical.String(s), nil
	}

	return "", nil, fmt.Errorf("unsupported field type %q", t)
}

// normalizeUFix64 parses a non-negative decimal with at most eight fractional
// digits and formats it with exactly eight ("1.5" -> "1.50000000").
func normalizeUFix64(s string) (string, error) {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" || (hasFrac && fracPart == "") {
		return "", fmt.Errorf("not a fixed-point number")
	}
	if len(fracPart) > ufix64Scale {
		return "", fmt.Errorf("more than %d fractional digits", ufix64Scale)
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return "", fmt.Errorf("not a fixed-point number")
	}

	whole, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return "", fmt.Errorf("out of range")
	}
	frac := fracPart + strings.Repeat("0", ufix64Scale-len(fracPart))
	fracValue, _ := strconv.ParseUint(frac, 10, 64)

	hi, lo := bits.Mul64(whole, 100_000_000)
	_, carry := bits.Add64(lo, fracValue, 0)
	if hi != 0 || carry != 0 {
		return "", fmt.Errorf("out of range")
	}

	return strconv.FormatUint(whole, 10) + "." + frac, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
