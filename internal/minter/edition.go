package minter

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/mintctl/internal/metadata"
)

// UnboundedToken is the edition_size value for an edition with no limit.
const UnboundedToken = "null"

// EditionEntry is a prepared input row with its parsed edition limit.
// A nil Limit means unbounded. Row is the 1-based input row number.
type EditionEntry struct {
	metadata.Entry
	Limit *uint64
	Row   int
}

// Edition is an edition known to the ledger. ID is ledger-assigned; Size is
// the minted count observed when the edition was looked up or created.
type Edition struct {
	ID            string
	Size          uint64
	Limit         *uint64
	Hash          string
	Raw           metadata.Map
	Prepared      metadata.Map
	TransactionID string
}

// LimitedEdition is an Edition with a finite limit. Only limited editions
// can be planned for minting.
type LimitedEdition struct {
	Edition
	capacity uint64
}

// NewLimitedEdition refines e. It fails with ErrCodeUnboundedEdition when e
// has no limit.
func NewLimitedEdition(e Edition) (LimitedEdition, error) {
	if e.Limit == nil {
		return LimitedEdition{}, newError(ErrCodeUnboundedEdition,
			"cannot mint into edition %s: it has no edition_size", e.ID)
	}
	return LimitedEdition{Edition: e, capacity: *e.Limit}, nil
}

// Capacity returns the edition's limit.
func (e LimitedEdition) Capacity() uint64 {
	return e.capacity
}

// Remaining returns how many items can still be minted.
func (e LimitedEdition) Remaining() uint64 {
	if e.Size >= e.capacity {
		return 0
	}
	return e.capacity - e.Size
}

// MaxEditionLimit is the largest edition_size accepted.
const MaxEditionLimit = math.MaxInt64

// ParseEditionLimit parses an edition_size value: UnboundedToken, or a
// base-10 integer from 0 to MaxEditionLimit. Surrounding whitespace is
// ignored.
func ParseEditionLimit(value string) (*uint64, error) {
	s := strings.TrimSpace(value)
	if s == UnboundedToken {
		return nil, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, newError(ErrCodeInvalidEditionSize,
			"edition size must be a number or %q, received %q", UnboundedToken, value)
	}
	if n > MaxEditionLimit {
		return nil, newError(ErrCodeInvalidEditionSize,
			"edition size %q exceeds the maximum of %d", value, uint64(MaxEditionLimit))
	}
	return &n, nil
}

// formatLimit renders a limit for the output table; unbounded is empty.
func formatLimit(limit *uint64) string {
	if limit == nil {
		return ""
	}
	return strconv.FormatUint(*limit, 10)
}
