package claimkey

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// SignatureAlgorithm names the curve claim keys are generated on.
type SignatureAlgorithm string

const (
	ECDSAP256      SignatureAlgorithm = "ECDSA_P256"
	ECDSASecp256k1 SignatureAlgorithm = "ECDSA_secp256k1"
)

// ValidSignatureAlgorithms defines the supported curves.
var ValidSignatureAlgorithms = []SignatureAlgorithm{ECDSAP256, ECDSASecp256k1}

const (
	privateKeySize = 32
	publicKeySize  = 64
)

// KeyPairs holds n matched pairs: PrivateKeys[i] belongs to PublicKeys[i].
type KeyPairs struct {
	PrivateKeys []string
	PublicKeys  []string
}

// Generator produces claim key pairs on a fixed curve.
type Generator struct {
	algo SignatureAlgorithm
}

// NewGenerator returns a generator for algo.
func NewGenerator(algo SignatureAlgorithm) (*Generator, error) {
	if _, err := curveFor(algo); err != nil {
		return nil, err
	}
	return &Generator{algo: algo}, nil
}

// Algorithm returns the generator's curve.
func (g *Generator) Algorithm() SignatureAlgorithm {
	return g.algo
}

// Generate returns n fresh key pairs from crypto/rand. n == 0 yields empty slices.
func (g *Generator) Generate(n int) (KeyPairs, error) {
	if n < 0 {
		return KeyPairs{}, fmt.Errorf("generate claim keys: negative count %d", n)
	}

	c, _ := curveFor(g.algo)
	pairs := KeyPairs{
		PrivateKeys: make([]string, 0, n),
		PublicKeys:  make([]string, 0, n),
	}
	for i := 0; i < n; i++ {
		priv, pub, err := c.generate()
		if err != nil {
			return KeyPairs{}, fmt.Errorf("generate claim keys: %w", err)
		}
		pairs.PrivateKeys = append(pairs.PrivateKeys, hex.EncodeToString(priv))
		pairs.PublicKeys = append(pairs.PublicKeys, hex.EncodeToString(pub))
	}
	return pairs, nil
}

// PublicKeyFromPrivate derives the hex public key for a hex private key.
func PublicKeyFromPrivate(algo SignatureAlgorithm, privateKeyHex string) (string, error) {
	c, err := curveFor(algo)
	if err != nil {
		return "", err
	}

	priv, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return "", fmt.Errorf("decode private key: %w", err)
	}
	if len(priv) != privateKeySize {
		return "", fmt.Errorf("private key must be %d bytes, got %d", privateKeySize, len(priv))
	}

	pub, err := c.derive(priv)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(pub), nil
}

// FormatClaimKey joins a minted NFT's ID to its claim private key, producing
// the single string handed to the claimant.
func FormatClaimKey(nftID, privateKeyHex string) string {
	return privateKeyHex + nftID
}

type curve interface {
	generate() (priv, pub []byte, err error)
	derive(priv []byte) ([]byte, error)
}

func curveFor(algo SignatureAlgorithm) (curve, error) {
	switch algo {
	case ECDSAP256:
		return p256{}, nil
	case ECDSASecp256k1:
		return k256{}, nil
	}
	return nil, fmt.Errorf("unsupported signature algorithm %q", algo)
}

type p256 struct{}

func (p256) generate() ([]byte, []byte, error) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return key.Bytes(), stripPrefix(key.PublicKey().Bytes()), nil
}

func (p256) derive(priv []byte) ([]byte, error) {
	key, err := ecdh.P256().NewPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("invalid P-256 private key: %w", err)
	}
	return stripPrefix(key.PublicKey().Bytes()), nil
}

type k256 struct{}

func (k256) generate() ([]byte, []byte, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, nil, err
	}
	return key.Serialize(), stripPrefix(key.PubKey().SerializeUncompressed()), nil
}

func (k256) derive(priv []byte) ([]byte, error) {
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(priv); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("invalid secp256k1 private key: scalar out of range")
	}
	key := secp256k1.NewPrivateKey(&scalar)
	return stripPrefix(key.PubKey().SerializeUncompressed()), nil
}

// stripPrefix drops the SEC1 uncompressed-point marker (0x04).
func stripPrefix(point []byte) []byte {
	return point[len(point)-publicKeySize:]
}
