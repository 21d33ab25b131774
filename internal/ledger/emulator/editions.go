package emulator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/mintctl/internal/ledger"
)

// lookupChunk bounds the number of bound parameters per lookup query.
const lookupChunk = 500

var _ ledger.Gateway = (*Ledger)(nil)

// EditionsByMintID returns the edition for each mint ID, nil where none
// exists. Results are positional.
func (l *Ledger) EditionsByMintID(ctx context.Context, mintIDs []string) ([]*ledger.Edition, error) {
	found := make(map[string]*ledger.Edition, len(mintIDs))

	for start := 0; start < len(mintIDs); start += lookupChunk {
		end := min(start+lookupChunk, len(mintIDs))
		chunk := mintIDs[start:end]

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		rows, err := l.db.QueryContext(ctx, `
			SELECT id, mint_id, edition_limit, size
			FROM editions
			WHERE mint_id IN (`+placeholders+`)
		`, args...)
		if err != nil {
			return nil, fmt.Errorf("editions by mint id: %w", err)
		}

		for rows.Next() {
			var (
				id     int64
				mintID string
				limit  sql.NullInt64
				size   int64
			)
			if err := rows.Scan(&id, &mintID, &limit, &size); err != nil {
				rows.Close()
				return nil, fmt.Errorf("editions by mint id: scan: %w", err)
			}
			found[mintID] = &ledger.Edition{
				ID:    strconv.FormatInt(id, 10),
				Size:  uint64(size),
				Limit: limitFromSQL(limit),
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("editions by mint id: %w", err)
		}
		rows.Close()
	}

	out := make([]*ledger.Edition, len(mintIDs))
	for i, id := range mintIDs {
		out[i] = found[id]
	}
	return out, nil
}

// CreateEditions inserts one edition per mint ID in a single transaction.
// A duplicate mint ID, against the ledger or within the call, aborts the
// transaction with ErrCodeDuplicateMintID.
func (l *Ledger) CreateEditions(ctx context.Context, mintIDs []string, limits []*uint64, fields []ledger.FieldColumn) ([]ledger.CreatedEdition, error) {
	if err := validateCreate(mintIDs, limits, fields); err != nil {
		return nil, err
	}

	txID := l.txIDs.Generate()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create editions: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	created := make([]ledger.CreatedEdition, len(mintIDs))
	for i, mintID := range mintIDs {
		meta := make(map[string]string, len(fields))
		for _, col := range fields {
			meta[col.Name] = col.Values[i]
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("create editions: marshal metadata: %w", err)
		}

		var limit sql.NullInt64
		if limits[i] != nil {
			limit = sql.NullInt64{Int64: int64(*limits[i]), Valid: true}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO editions (mint_id, edition_limit, size, metadata, transaction_id)
			VALUES (?, ?, 0, ?, ?)
		`, mintID, limit, string(metaJSON), txID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, contractErrorf(ErrCodeDuplicateMintID, "edition with mint ID %s already exists", mintID)
			}
			return nil, fmt.Errorf("create editions: insert: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("create editions: last insert id: %w", err)
		}

		created[i] = ledger.CreatedEdition{
			ID:            strconv.FormatInt(id, 10),
			Size:          0,
			Limit:         limits[i],
			TransactionID: txID,
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create editions: commit: %w", err)
	}

	l.logger.Debug("editions created",
		"count", len(created),
		"transaction_id", txID)
	return created, nil
}

func validateCreate(mintIDs []string, limits []*uint64, fields []ledger.FieldColumn) error {
	if len(mintIDs) == 0 {
		return contractErrorf(ErrCodeInvalidArgument, "no editions to create")
	}
	if len(limits) != len(mintIDs) {
		return contractErrorf(ErrCodeInvalidArgument, "got %d limits for %d mint IDs", len(limits), len(mintIDs))
	}
	for i, id := range mintIDs {
		if id == "" {
			return contractErrorf(ErrCodeInvalidArgument, "empty mint ID at index %d", i)
		}
		if limits[i] != nil && *limits[i] > math.MaxInt64 {
			return contractErrorf(ErrCodeInvalidArgument, "limit %d at index %d is out of range", *limits[i], i)
		}
	}
	for _, col := range fields {
		if len(col.Values) != len(mintIDs) {
			return contractErrorf(ErrCodeInvalidArgument, "field %q has %d values for %d mint IDs", col.Name, len(col.Values), len(mintIDs))
		}
	}
	return nil
}

func limitFromSQL(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	n := uint64(v.Int64)
	return &n
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
