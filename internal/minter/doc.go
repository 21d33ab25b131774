// Package minter turns rows of edition metadata into ledger editions and
// minted items.
//
// The pipeline runs in one direction:
//
//	input rows -> EditionEntry (Prepare + edition size)
//	           -> Partition (one lookup call: existing | new)
//	           -> CreateEditions (one creation call for new entries)
//	           -> Plan (fixed-size batches within each edition's capacity)
//	           -> MintInBatches (sequential mint calls, output flushed per batch)
//
// Runs are idempotent: editions are keyed by the hash of their canonical
// metadata, so re-running the same input finds the editions created before
// and mints only what remains of their capacity.
//
// Batches are strictly sequential. In claim-key mode each batch's private
// keys reach disk before the mint call that commits their public halves, and
// each batch's receipts reach the output file before the next batch starts.
// A crash therefore loses at most the receipts of the single batch in flight;
// its claim keys stay recoverable from the secrets file.
package minter
