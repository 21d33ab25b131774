// Package records reads and writes the CSV tables the minter works from.
//
// Three tables are involved:
//   - Input: caller-defined metadata columns plus edition_size.
//   - Output: the reserved identity columns (_id, _edition_id, _edition_limit,
//     _transaction_id, _serial_number, _claim_key) followed by metadata columns.
//   - Secrets: a temporary table (_edition_id, _partial_claim_key) holding claim
//     private keys for the batch currently in flight.
//
// # Append contract
//
// OutputWriter.WriteBatch takes the batch's sequence number and rejects any
// batch that is not the next one expected. Each call opens, appends, syncs and
// closes the file, so the output on disk is always a prefix of the planned
// batch sequence and memory holds at most one batch of rows.
package records
