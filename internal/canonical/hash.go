package canonical

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// DomainEdition prefixes every mint ID digest. The version suffix leaves room
// for a future change of encoding without colliding with existing IDs.
const DomainEdition = "mintctl/edition/v1"

// hashWithDomain computes SHA3-256(domain || 0x00 || data).
// The null separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha3.New256()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// MintID computes the content-addressed identity of an edition from its
// canonical field values. Two editions with identical canonical fields share a
// mint ID and are treated as the same edition on the ledger.
func MintID(fields Object) (string, error) {
	data, err := MarshalCanonical(fields)
	if err != nil {
		return "", fmt.Errorf("mint id: %w", err)
	}
	return hashWithDomain(DomainEdition, data), nil
}

// MustMintID is like MintID but panics on error.
// Use only in tests or when the fields are known to be valid.
func MustMintID(fields Object) string {
	id, err := MintID(fields)
	if err != nil {
		panic(err)
	}
	return id
}
