package metadata

import (
	"crypto/sha256"
	"encoding/base32"
)

// CIDv1 header for a raw-codec block addressed by a sha2-256 multihash.
var rawCIDPrefix = []byte{
	0x01,       // CID version 1
	0x55,       // multicodec: raw
	0x12, 0x20, // multihash: sha2-256, 32-byte digest
}

var base32Lower = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// ContentID returns a base32 CIDv1 (raw codec, sha2-256) over all of data.
// It identifies a file's bytes locally and keys the mint ID. IPFS assigns
// the same CID only to files that fit in one block (256 KiB by default);
// larger files get a dag-pb root, so ContentID is never compared with the
// CID a pinning service reports.
func ContentID(data []byte) string {
	digest := sha256.Sum256(data)
	buf := make([]byte, 0, len(rawCIDPrefix)+len(digest))
	buf = append(buf, rawCIDPrefix...)
	buf = append(buf, digest[:]...)
	return "b" + base32Lower.EncodeToString(buf)
}
