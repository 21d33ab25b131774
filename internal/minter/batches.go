package minter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/roach88/mintctl/internal/claimkey"
	"github.com/roach88/mintctl/internal/ledger"
	"github.com/roach88/mintctl/internal/records"
)

// MintInBatches plans editions into batches of at most batchSize and mints
// them one at a time, appending each batch's receipts to out before the next
// batch starts. It returns the number of items minted.
//
// With claim keys, each batch's private keys are written to the secrets table
// next to out before the mint call and removed once the batch's receipts are
// on disk. A failed mint call leaves them in place for recovery.
//
// ctx is checked between batches only: a mint call in flight always runs to
// completion so its receipts are recorded.
func (m *Minter) MintInBatches(ctx context.Context, out *records.OutputWriter, editions []LimitedEdition, batchSize int, withClaimKeys bool) (int, error) {
	if err := checkBatchSize(batchSize); err != nil {
		return 0, err
	}

	n, total := PlanSize(editions, batchSize)
	m.hooks.OnStartMinting(total, n, batchSize)

	secrets := records.NewSecretsFile(records.SecretsPath(out.Path()))
	callCtx := context.WithoutCancel(ctx)

	minted, i := 0, 0
	for batch := range Batches(editions, batchSize) {
		if err := ctx.Err(); err != nil {
			return minted, fmt.Errorf("minting stopped after %d of %d batches: %w", i, n, err)
		}

		var rows []records.OutputRow
		var err error
		if withClaimKeys {
			rows, err = m.mintBatchWithClaimKeys(callCtx, i, n, batch, secrets)
		} else {
			rows, err = m.mintBatch(callCtx, i, n, batch)
		}
		if err != nil {
			return minted, err
		}

		if err := out.WriteBatch(i, rows); err != nil {
			return minted, fmt.Errorf("record batch %d: %w", i+1, err)
		}
		minted += len(rows)

		// A short receipt leaves the batch's claim keys in place: some public
		// keys may be committed without a recorded item.
		if len(rows) != batch.Size {
			return minted, newError(ErrCodeGateway,
				"batch %d of %d: edition %s minted %d items, requested %d",
				i+1, n, batch.Edition.ID, len(rows), batch.Size)
		}

		if withClaimKeys {
			if err := secrets.Remove(); err != nil {
				return minted, err
			}
		}

		m.logger.Debug("batch minted",
			"batch", i+1,
			"edition_id", batch.Edition.ID,
			"size", batch.Size)
		m.hooks.OnCompleteBatch(batch.Size)
		i++
	}

	if err := secrets.Remove(); err != nil {
		return minted, err
	}
	return minted, nil
}

func (m *Minter) mintBatch(ctx context.Context, i, n int, batch Batch) ([]records.OutputRow, error) {
	nfts, err := m.gateway.MintEdition(ctx, batch.Edition.ID, batch.Size)
	if err != nil {
		return nil, gatewayError(err, "batch %d of %d: mint %d into edition %s",
			i+1, n, batch.Size, batch.Edition.ID)
	}
	return receiptRows(batch, nfts, nil), nil
}

func (m *Minter) mintBatchWithClaimKeys(ctx context.Context, i, n int, batch Batch, secrets *records.SecretsFile) ([]records.OutputRow, error) {
	keys, err := m.claimKeys.Generate(batch.Size)
	if err != nil {
		return nil, fmt.Errorf("batch %d of %d: %w", i+1, n, err)
	}

	pending := make([]records.SecretRow, len(keys.PrivateKeys))
	for k, priv := range keys.PrivateKeys {
		pending[k] = records.SecretRow{EditionID: batch.Edition.ID, PartialClaimKey: priv}
	}
	if err := secrets.Write(pending); err != nil {
		return nil, fmt.Errorf("batch %d of %d: %w", i+1, n, err)
	}

	nfts, err := m.gateway.MintEditionWithClaimKeys(ctx, batch.Edition.ID, keys.PublicKeys)
	if err != nil {
		return nil, gatewayError(err, "batch %d of %d: claim-mint %d into edition %s (claim keys kept in %s)",
			i+1, n, batch.Size, batch.Edition.ID, secrets.Path())
	}
	return receiptRows(batch, nfts, keys.PrivateKeys), nil
}

// receiptRows pairs the gateway's receipts with the batch's edition. With
// privateKeys, receipt i is bound to privateKeys[i].
func receiptRows(batch Batch, nfts []ledger.MintedNFT, privateKeys []string) []records.OutputRow {
	rows := make([]records.OutputRow, len(nfts))
	for i, nft := range nfts {
		row := records.OutputRow{
			ID:            nft.ID,
			EditionID:     batch.Edition.ID,
			TransactionID: nft.TransactionID,
			SerialNumber:  strconv.FormatUint(nft.SerialNumber, 10),
			Metadata:      batch.Edition.Prepared,
		}
		if i < len(privateKeys) {
			row.ClaimKey = claimkey.FormatClaimKey(nft.ID, privateKeys[i])
		}
		rows[i] = row
	}
	return rows
}
