// Package claimkey generates the single-use key pairs that gate deferred
// redemption of minted NFTs.
//
// The public half of each pair is committed on-ledger with the NFT; the
// private half is the bearer credential handed to the eventual owner.
// Private keys are 32-byte big-endian scalars, public keys are the 64-byte
// X||Y uncompressed point without the SEC1 0x04 prefix, both hex encoded.
package claimkey
