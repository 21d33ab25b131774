// Package config loads the project file (mintctl.yaml).
//
// Loading runs in three steps: the YAML is decoded generically and checked
// against an embedded CUE schema, then decoded strictly into Config, then
// defaults are filled in and relative paths resolved against the directory
// holding the file.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/mintctl/internal/claimkey"
	"github.com/roach88/mintctl/internal/metadata"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is the project file looked up in the working directory.
const DefaultFile = "mintctl.yaml"

// Defaults applied when the project file leaves a setting out.
const (
	DefaultNFTDataPath    = "nfts.csv"
	DefaultAssetsDir      = "assets"
	DefaultEmulatorLedger = ".mintctl/emulator.db"
)

// Network names.
const (
	NetworkEmulator = "emulator"
	NetworkTestnet  = "testnet"
	NetworkMainnet  = "mainnet"
)

// Config is a loaded project file.
type Config struct {
	Contract    string          `yaml:"contract"`
	Schema      metadata.Schema `yaml:"schema"`
	ClaimKeys   ClaimKeys       `yaml:"claimKeys"`
	NFTDataPath string          `yaml:"nftDataPath"`
	AssetsDir   string          `yaml:"assetsDir"`
	Networks    Networks        `yaml:"networks"`
	Pinning     *Pinning        `yaml:"pinning"`

	// Dir is the directory the file was loaded from.
	Dir string `yaml:"-"`
}

// ClaimKeys configures claim key generation.
type ClaimKeys struct {
	SignatureAlgorithm claimkey.SignatureAlgorithm `yaml:"signatureAlgorithm"`
}

// Networks holds per-network ledger settings.
type Networks struct {
	Emulator EmulatorNetwork `yaml:"emulator"`
	Testnet  *GatewayNetwork `yaml:"testnet"`
	Mainnet  *GatewayNetwork `yaml:"mainnet"`
}

// EmulatorNetwork is the local SQLite ledger.
type EmulatorNetwork struct {
	Ledger string `yaml:"ledger"`
}

// GatewayNetwork is a live network reached through an HTTP gateway.
type GatewayNetwork struct {
	Gateway  string `yaml:"gateway"`
	TokenEnv string `yaml:"tokenEnv"`
}

// Token returns the gateway token from the configured environment variable.
func (g *GatewayNetwork) Token() string {
	if g.TokenEnv == "" {
		return ""
	}
	return os.Getenv(g.TokenEnv)
}

// Pinning configures the IPFS pinning service.
type Pinning struct {
	Endpoint string `yaml:"endpoint"`
	KeyEnv   string `yaml:"keyEnv"`
}

// Key returns the API key from the configured environment variable.
func (p *Pinning) Key() string {
	return os.Getenv(p.KeyEnv)
}

// Error is an invalid project file. Issues lists every problem found.
type Error struct {
	Path   string
	Issues []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("invalid config %s: %s", e.Path, e.Issues[0])
	}
	return fmt.Sprintf("invalid config %s:\n  %s", e.Path, strings.Join(e.Issues, "\n  "))
}

// Load reads and validates the project file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = dir
	return cfg, nil
}

// Parse validates and decodes project file contents. name labels errors.
// Relative paths stay relative until Resolve is called with Dir set.
func Parse(data []byte, name string) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Path: name, Issues: []string{err.Error()}}
	}
	if raw == nil {
		return nil, &Error{Path: name, Issues: []string{"file is empty"}}
	}

	if err := validateSchema(raw); err != nil {
		return nil, &Error{Path: name, Issues: cueIssues(err)}
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, &Error{Path: name, Issues: []string{err.Error()}}
	}

	cfg.applyDefaults()

	if err := cfg.Schema.Validate(); err != nil {
		return nil, &Error{Path: name, Issues: []string{err.Error()}}
	}

	return &cfg, nil
}

func validateSchema(raw map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	value := def.Unify(ctx.Encode(raw))
	return value.Validate(cue.Concrete(true))
}

// cueIssues flattens a CUE error into one line per problem.
func cueIssues(err error) []string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []string{err.Error()}
	}

	issues := make([]string, 0, len(errs))
	seen := make(map[string]bool, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if seen[msg] {
			continue
		}
		seen[msg] = true
		issues = append(issues, msg)
	}
	return issues
}

func (c *Config) applyDefaults() {
	if c.ClaimKeys.SignatureAlgorithm == "" {
		c.ClaimKeys.SignatureAlgorithm = claimkey.ECDSAP256
	}
	if c.NFTDataPath == "" {
		c.NFTDataPath = DefaultNFTDataPath
	}
	if c.AssetsDir == "" {
		c.AssetsDir = DefaultAssetsDir
	}
	if c.Networks.Emulator.Ledger == "" {
		c.Networks.Emulator.Ledger = DefaultEmulatorLedger
	}
}

// Resolve returns p joined onto the config directory when p is relative.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Gateway returns the gateway settings for a live network.
func (c *Config) Gateway(network string) (*GatewayNetwork, error) {
	var gw *GatewayNetwork
	switch network {
	case NetworkTestnet:
		gw = c.Networks.Testnet
	case NetworkMainnet:
		gw = c.Networks.Mainnet
	default:
		return nil, fmt.Errorf("%q is not a gateway network", network)
	}
	if gw == nil {
		return nil, fmt.Errorf("network %q is not configured in %s", network, DefaultFile)
	}
	return gw, nil
}

// ValidNetworks lists the accepted --network values.
var ValidNetworks = []string{NetworkEmulator, NetworkTestnet, NetworkMainnet}
