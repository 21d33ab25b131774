package canonical

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the value types allowed in canonical metadata.
// Only String, Int, Uint, Bool and Object implement it.
type Value interface {
	canonicalValue()
}

// String is a text value.
type String string

func (String) canonicalValue() {}

// Int is a signed integer value.
type Int int64

func (Int) canonicalValue() {}

// Uint is an unsigned integer value. Kept separate from Int so that
// UInt64 fields above math.MaxInt64 survive canonicalization.
type Uint uint64

func (Uint) canonicalValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) canonicalValue() {}

// Object maps keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Object) canonicalValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}
