package claimkey

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownPairs = map[SignatureAlgorithm]struct{ private, public string }{
	ECDSAP256: {
		private: "dade27ead6aab5515b7fddc4e245a586cc6401a5af1f786f35b7c8dd31e4aa3a",
		public:  "861763f868d98003fbab48a12320351b6c019ded523ccdfece8203aaa4fdeb4bbdbc5e6fe292971a3854a16df93b4f68178ae8a31de1bca68c14e3dd8506f439",
	},
	ECDSASecp256k1: {
		private: "f62c1add91f37b596fd6f5a263e2a646256d826b0bd50a609679feaa93e6c31a",
		public:  "b761dd7ebfd8c1034b20ad07a9c35966a0d668fe82891e26f30ce46e4e969c2a55dec2325a2b4dfe5147ddf0eee17e47c42ab2defafe83e7d223a061bab555e0",
	},
}

func TestPublicKeyFromPrivateKnownVectors(t *testing.T) {
	for algo, pair := range knownPairs {
		t.Run(string(algo), func(t *testing.T) {
			pub, err := PublicKeyFromPrivate(algo, pair.private)
			require.NoError(t, err)
			assert.Equal(t, pair.public, pub)
		})
	}
}

func TestGeneratePairsMatch(t *testing.T) {
	for _, algo := range ValidSignatureAlgorithms {
		t.Run(string(algo), func(t *testing.T) {
			g, err := NewGenerator(algo)
			require.NoError(t, err)

			pairs, err := g.Generate(5)
			require.NoError(t, err)
			require.Len(t, pairs.PrivateKeys, 5)
			require.Len(t, pairs.PublicKeys, 5)

			for i := range pairs.PrivateKeys {
				assert.Len(t, pairs.PrivateKeys[i], 2*privateKeySize)
				assert.Len(t, pairs.PublicKeys[i], 2*publicKeySize)

				derived, err := PublicKeyFromPrivate(algo, pairs.PrivateKeys[i])
				require.NoError(t, err)
				assert.Equal(t, pairs.PublicKeys[i], derived, "pair %d", i)
			}
		})
	}
}

func TestGenerateUnique(t *testing.T) {
	g, err := NewGenerator(ECDSAP256)
	require.NoError(t, err)

	pairs, err := g.Generate(50)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, k := range pairs.PrivateKeys {
		assert.False(t, seen[k], "repeated private key")
		seen[k] = true
	}
}

func TestGenerateZero(t *testing.T) {
	g, err := NewGenerator(ECDSASecp256k1)
	require.NoError(t, err)

	pairs, err := g.Generate(0)
	require.NoError(t, err)
	assert.Empty(t, pairs.PrivateKeys)
	assert.Empty(t, pairs.PublicKeys)
}

func TestGenerateNegative(t *testing.T) {
	g, err := NewGenerator(ECDSAP256)
	require.NoError(t, err)

	_, err = g.Generate(-1)
	assert.Error(t, err)
}

func TestNewGeneratorUnsupported(t *testing.T) {
	_, err := NewGenerator("RSA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported signature algorithm")
}

func TestPublicKeyFromPrivateInvalid(t *testing.T) {
	zero := hex.EncodeToString(make([]byte, privateKeySize))

	tests := []struct {
		name string
		algo SignatureAlgorithm
		key  string
	}{
		{"not hex", ECDSAP256, "zz"},
		{"short", ECDSAP256, "abcd"},
		{"zero p256", ECDSAP256, zero},
		{"zero secp256k1", ECDSASecp256k1, zero},
		{"unknown algo", "ED25519", knownPairs[ECDSAP256].private},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PublicKeyFromPrivate(tt.algo, tt.key)
			assert.Error(t, err)
		})
	}
}

func TestFormatClaimKey(t *testing.T) {
	assert.Equal(t, "abcdef42", FormatClaimKey("42", "abcdef"))
}
