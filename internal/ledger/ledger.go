// Package ledger defines the boundary between the minter and the ledger that
// holds editions. Implementations live in subpackages: emulator (a local
// SQLite ledger) and remote (an HTTP gateway in front of a live network).
package ledger

import (
	"context"

	"github.com/roach88/mintctl/internal/metadata"
)

// Edition is an edition as the ledger reports it.
type Edition struct {
	ID    string  `json:"id"`
	Size  uint64  `json:"size"`
	Limit *uint64 `json:"limit"`
}

// CreatedEdition is the ledger's receipt for one created edition.
type CreatedEdition struct {
	ID            string  `json:"id"`
	Size          uint64  `json:"size"`
	Limit         *uint64 `json:"limit"`
	TransactionID string  `json:"transaction_id"`
}

// MintedNFT is the ledger's receipt for one minted item.
type MintedNFT struct {
	ID            string `json:"id"`
	SerialNumber  uint64 `json:"serial_number"`
	TransactionID string `json:"transaction_id"`
}

// FieldColumn carries one schema field's values across every edition in a
// creation call (column-major).
type FieldColumn struct {
	Name   string             `json:"name"`
	Type   metadata.FieldType `json:"type"`
	Values []string           `json:"values"`
}

// Gateway executes queries and transactions against the ledger.
//
// All slice results are positional: result i answers input i.
type Gateway interface {
	// EditionsByMintID looks up editions by mint ID in a single call.
	// A nil slot means no edition carries that mint ID.
	EditionsByMintID(ctx context.Context, mintIDs []string) ([]*Edition, error)

	// CreateEditions creates one edition per mint ID in a single transaction.
	// limits[i] == nil creates an unbounded edition. Every column in fields
	// has len(mintIDs) values.
	CreateEditions(ctx context.Context, mintIDs []string, limits []*uint64, fields []FieldColumn) ([]CreatedEdition, error)

	// MintEdition mints count new items into an edition.
	MintEdition(ctx context.Context, editionID string, count int) ([]MintedNFT, error)

	// MintEditionWithClaimKeys mints one item per public key, binding each
	// item to its key for later redemption.
	MintEditionWithClaimKeys(ctx context.Context, editionID string, publicKeys []string) ([]MintedNFT, error)
}
