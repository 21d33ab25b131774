// Package emulator is a local, SQLite-backed ledger implementing
// ledger.Gateway with the same contract rules as the on-chain edition
// contract:
//
//   - Mint IDs are unique; creating a duplicate aborts the whole transaction
//   - Minting never takes an edition past its limit
//   - Unbounded editions (NULL limit) cannot be minted into
//   - Serial numbers run 1..limit within an edition
//   - A claim public key can be bound to at most one NFT
//
// Every gateway call runs in one SQLite transaction, so a failed call leaves
// no partial state behind, matching the all-or-nothing semantics of a ledger
// transaction.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package emulator
