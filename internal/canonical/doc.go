// Package canonical provides the deterministic value encoding used to derive
// mint IDs from edition metadata.
//
// Metadata values are reduced to a small sealed set of types (String, Int,
// Uint, Bool, Object) and serialized as RFC 8785 canonical JSON. The mint ID is
// a domain-separated SHA3-256 digest of that serialization, so two metadata
// rows that differ only in column order or cosmetic whitespace hash to the same
// edition.
//
// Key constraints:
//   - NO float types (decimal fields are carried as normalized strings)
//   - NO null (a missing value is a validation error upstream)
//   - Strings are NFC normalized at the serialization boundary
//   - Object keys are ordered by UTF-16 code units, not UTF-8 bytes
package canonical
