package emulator

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/mintctl/internal/ledger"
)

// publicKeyLen is the byte length of an uncompressed public key without
// its 0x04 prefix (X||Y).
const publicKeyLen = 64

// MintEdition mints count items into editionID.
func (l *Ledger) MintEdition(ctx context.Context, editionID string, count int) ([]ledger.MintedNFT, error) {
	if count <= 0 {
		return nil, contractErrorf(ErrCodeInvalidArgument, "mint count must be positive, got %d", count)
	}
	return l.mint(ctx, editionID, make([]string, count))
}

// MintEditionWithClaimKeys mints one item per public key into editionID and
// binds each item to its key.
func (l *Ledger) MintEditionWithClaimKeys(ctx context.Context, editionID string, publicKeys []string) ([]ledger.MintedNFT, error) {
	if len(publicKeys) == 0 {
		return nil, contractErrorf(ErrCodeInvalidArgument, "no claim keys given")
	}
	for i, key := range publicKeys {
		raw, err := hex.DecodeString(key)
		if err != nil || len(raw) != publicKeyLen {
			return nil, contractErrorf(ErrCodeInvalidArgument, "claim key %d is not a %d-byte hex public key", i, publicKeyLen)
		}
	}
	return l.mint(ctx, editionID, publicKeys)
}

// mint appends len(keys) items to an edition. An empty key mints an
// unclaimable item.
func (l *Ledger) mint(ctx context.Context, editionID string, keys []string) ([]ledger.MintedNFT, error) {
	id, err := strconv.ParseInt(editionID, 10, 64)
	if err != nil {
		return nil, contractErrorf(ErrCodeInvalidArgument, "malformed edition ID %q", editionID)
	}

	txID := l.txIDs.Generate()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mint: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var (
		limit sql.NullInt64
		size  int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT edition_limit, size FROM editions WHERE id = ?`, id,
	).Scan(&limit, &size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contractErrorf(ErrCodeEditionNotFound, "edition %s does not exist", editionID)
	}
	if err != nil {
		return nil, fmt.Errorf("mint: load edition: %w", err)
	}

	if !limit.Valid {
		return nil, contractErrorf(ErrCodeUnbounded, "edition %s has no limit", editionID)
	}
	if size+int64(len(keys)) > limit.Int64 {
		return nil, contractErrorf(ErrCodeLimitExceeded,
			"minting %d into edition %s would exceed its limit (%d of %d minted)",
			len(keys), editionID, size, limit.Int64)
	}

	minted := make([]ledger.MintedNFT, len(keys))
	for i, key := range keys {
		serial := size + int64(i) + 1

		var claimKey sql.NullString
		if key != "" {
			claimKey = sql.NullString{String: key, Valid: true}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO nfts (edition_id, serial_number, claim_public_key, transaction_id)
			VALUES (?, ?, ?, ?)
		`, id, serial, claimKey, txID)
		if err != nil {
			if isUniqueViolation(err) && strings.Contains(err.Error(), "claim_public_key") {
				return nil, contractErrorf(ErrCodeInvalidArgument, "claim key %d is already bound to an item", i)
			}
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("mint: serial %d of edition %s is already taken: %w", serial, editionID, err)
			}
			return nil, fmt.Errorf("mint: insert: %w", err)
		}

		nftID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("mint: last insert id: %w", err)
		}

		minted[i] = ledger.MintedNFT{
			ID:            strconv.FormatInt(nftID, 10),
			SerialNumber:  uint64(serial),
			TransactionID: txID,
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE editions SET size = ? WHERE id = ?`, size+int64(len(keys)), id,
	); err != nil {
		return nil, fmt.Errorf("mint: update size: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("mint: commit: %w", err)
	}

	l.logger.Debug("edition minted",
		"edition_id", editionID,
		"count", len(minted),
		"transaction_id", txID)
	return minted, nil
}

// ClaimKeys returns the claim public keys bound to an edition's items in
// serial order. Items without a key yield "".
func (l *Ledger) ClaimKeys(ctx context.Context, editionID string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT COALESCE(claim_public_key, '')
		FROM nfts
		WHERE edition_id = ?
		ORDER BY serial_number ASC
	`, editionID)
	if err != nil {
		return nil, fmt.Errorf("claim keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("claim keys: scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
