package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/mintctl/internal/canonical"
)

// Pinner uploads file content to a content-addressed store and returns the
// CID the store assigned.
type Pinner interface {
	Pin(ctx context.Context, name string, data []byte) (string, error)
}

// Asset is a local file referenced by an ipfs-file field, with the content
// ID computed for it during Prepare.
type Asset struct {
	Field     string
	Path      string
	ContentID string
}

// Pinned maps asset content IDs to the CIDs a pinning service assigned.
type Pinned map[string]string

// Apply returns a copy of e.Prepared with each pinned asset's field set to
// the CID the service assigned. Fields of unpinned assets keep their content
// ID.
func (p Pinned) Apply(e Entry) Map {
	prepared := e.Prepared.Clone()
	for _, asset := range e.Assets {
		if cid, ok := p[asset.ContentID]; ok {
			prepared.Set(asset.Field, cid)
		}
	}
	return prepared
}

// Entry is one prepared metadata row.
type Entry struct {
	// Raw is the row exactly as read from input.
	Raw Map

	// Prepared holds one canonical value per schema field, in schema order.
	// Local ipfs-file fields hold the file's content ID until Pinned.Apply
	// swaps in the CID the pinning service assigned.
	Prepared Map

	// Hash is the mint ID, computed over the canonical values only.
	Hash string

	// Assets lists local files that must be pinned before the edition is created.
	Assets []Asset
}

// Processor prepares raw rows against a schema.
type Processor struct {
	schema    Schema
	assetsDir string
	pinner    Pinner
	logger    *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithAssetsDir resolves relative ipfs-file paths against dir.
func WithAssetsDir(dir string) Option {
	return func(p *Processor) { p.assetsDir = dir }
}

// WithPinner sets the service Process uploads files to.
// Without one, Process only logs the files it would have pinned.
func WithPinner(pinner Pinner) Option {
	return func(p *Processor) { p.pinner = pinner }
}

// WithLogger sets the processor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// NewProcessor creates a processor for schema.
func NewProcessor(schema Schema, opts ...Option) *Processor {
	p := &Processor{
		schema: schema,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schema returns the schema rows are prepared against.
func (p *Processor) Schema() Schema {
	return p.schema
}

// Prepare canonicalizes every row and computes its mint ID.
// Columns not declared in the schema are ignored and never affect the hash.
// A missing or unparsable field fails the whole call.
func (p *Processor) Prepare(rows []Map) ([]Entry, error) {
	entries := make([]Entry, 0, len(rows))
	for i, row := range rows {
		entry, err := p.prepareRow(i+1, row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (p *Processor) prepareRow(rowNum int, row Map) (Entry, error) {
	entry := Entry{Raw: row}
	fields := make(canonical.Object, len(p.schema.Fields))

	for _, field := range p.schema.Fields {
		raw, ok := row.Get(field.Name)
		if !ok {
			return Entry{}, &FieldError{Row: rowNum, Field: field.Name, Err: ErrMissingColumn}
		}

		var (
			prepared string
			value    canonical.Value
			err      error
		)
		if field.Type == TypeIPFSFile {
			var asset *Asset
			prepared, asset, err = p.prepareFile(field.Name, raw)
			if asset != nil {
				entry.Assets = append(entry.Assets, *asset)
			}
			value = canonical.String(prepared)
		} else {
			prepared, value, err = parseScalar(field.Type, raw)
		}
		if err != nil {
			return Entry{}, &FieldError{Row: rowNum, Field: field.Name, Value: raw, Err: err}
		}

		entry.Prepared.Set(field.Name, prepared)
		fields[field.Name] = value
	}

	hash, err := canonical.MintID(fields)
	if err != nil {
		return Entry{}, fmt.Errorf("row %d: %w", rowNum, err)
	}
	entry.Hash = hash

	return entry, nil
}

// prepareFile resolves an ipfs-file value to a CID. An "ipfs://<cid>" value
// is taken as already pinned; anything else is a path to a local file.
func (p *Processor) prepareFile(field, raw string) (string, *Asset, error) {
	s := strings.TrimSpace(raw)
	if cid, ok := strings.CutPrefix(s, IPFSScheme); ok {
		if cid == "" {
			return "", nil, fmt.Errorf("empty CID")
		}
		return cid, nil, nil
	}
	if s == "" {
		return "", nil, fmt.Errorf("empty file path")
	}

	path := s
	if !filepath.IsAbs(path) && p.assetsDir != "" {
		path = filepath.Join(p.assetsDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}

	id := ContentID(data)
	return id, &Asset{Field: field, Path: path, ContentID: id}, nil
}

// Process pins assets, once per distinct content ID, and reports the CID
// the service assigned to each. It performs network I/O and is meant to run
// only for editions about to be created. A failure aborts the call; assets
// pinned before it stay pinned. Without a pinner nothing is uploaded and the
// result is empty.
func (p *Processor) Process(ctx context.Context, assets []Asset) (Pinned, error) {
	pinned := make(Pinned, len(assets))
	if len(assets) == 0 {
		return pinned, nil
	}
	if p.pinner == nil {
		p.logger.Debug("no pinning service configured, skipping uploads", "files", len(assets))
		return pinned, nil
	}

	for _, asset := range assets {
		if _, ok := pinned[asset.ContentID]; ok {
			continue
		}

		data, err := os.ReadFile(asset.Path)
		if err != nil {
			return nil, fmt.Errorf("pin %s: %w", asset.Path, err)
		}

		cid, err := p.pinner.Pin(ctx, filepath.Base(asset.Path), data)
		if err != nil {
			return nil, fmt.Errorf("pin %s: %w", asset.Path, err)
		}

		p.logger.Debug("pinned file", "path", asset.Path, "content_id", asset.ContentID, "cid", cid)
		pinned[asset.ContentID] = cid
	}
	return pinned, nil
}
