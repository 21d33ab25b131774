package minter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/mintctl/internal/claimkey"
	"github.com/roach88/mintctl/internal/ledger"
	"github.com/roach88/mintctl/internal/metadata"
	"github.com/roach88/mintctl/internal/records"
)

// Minter runs the edition pipeline against one ledger.
type Minter struct {
	processor *metadata.Processor
	gateway   ledger.Gateway
	claimKeys *claimkey.Generator
	hooks     Hooks
	logger    *slog.Logger
	runIDs    func() string
}

// Option configures a Minter.
type Option func(*Minter)

// WithClaimKeyGenerator sets the generator used in claim-key mode.
func WithClaimKeyGenerator(g *claimkey.Generator) Option {
	return func(m *Minter) { m.claimKeys = g }
}

// WithHooks sets the progress event receiver.
func WithHooks(h Hooks) Option {
	return func(m *Minter) { m.hooks = h }
}

// WithLogger sets the minter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Minter) { m.logger = logger }
}

// WithRunIDs overrides run ID generation (for testing).
func WithRunIDs(gen func() string) Option {
	return func(m *Minter) { m.runIDs = gen }
}

// New creates a minter. Editions are prepared by processor and stored on
// gateway. Claim keys default to ECDSA_P256.
func New(processor *metadata.Processor, gateway ledger.Gateway, opts ...Option) *Minter {
	p256, _ := claimkey.NewGenerator(claimkey.ECDSAP256)
	m := &Minter{
		processor: processor,
		gateway:   gateway,
		claimKeys: p256,
		hooks:     NopHooks{},
		logger:    slog.Default(),
		runIDs:    newRunID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// newRunID returns a time-sortable UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func newRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Request describes one run.
type Request struct {
	// InputPath is the metadata table to mint from.
	InputPath string

	// OutputPath is the table receipts are appended to. Its secrets table
	// lives next to it.
	OutputPath string

	// BatchSize caps the items per mint call. Ignored in templates mode.
	BatchSize int

	// WithClaimKeys binds every minted item to a fresh claim key.
	WithClaimKeys bool

	// TemplatesOnly creates editions without minting into them.
	TemplatesOnly bool
}

// Result summarizes a completed run.
type Result struct {
	RunID            string `json:"run_id"`
	OutputPath       string `json:"output_path"`
	ExistingEditions int    `json:"existing_editions"`
	ExistingNFTs     uint64 `json:"existing_nfts"`
	EditionsCreated  int    `json:"editions_created"`
	Batches          int    `json:"batches"`
	NFTsMinted       int    `json:"nfts_minted"`
}

func (r Request) validate() error {
	if r.InputPath == "" {
		return newError(ErrCodeInvalidRequest, "input path is required")
	}
	if r.OutputPath == "" {
		return newError(ErrCodeInvalidRequest, "output path is required")
	}
	if r.InputPath == r.OutputPath {
		return newError(ErrCodeInvalidRequest, "output path must differ from input path %s", r.InputPath)
	}
	if !r.TemplatesOnly && r.BatchSize < 1 {
		return newError(ErrCodeInvalidRequest, "batch size must be at least 1, got %d", r.BatchSize)
	}
	if r.TemplatesOnly && r.WithClaimKeys {
		return newError(ErrCodeInvalidRequest, "claim keys cannot be issued in templates mode")
	}
	return nil
}

// Mint runs the pipeline for req: prepare, deduplicate, create missing
// editions, then either record the new templates or mint every edition up
// to its limit.
//
// The output table is locked for the duration of the run. A run refuses to
// start while claim keys from an interrupted run are pending.
func (m *Minter) Mint(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	unlock, err := records.LockOutput(req.OutputPath)
	if err != nil {
		if errors.Is(err, records.ErrLocked) {
			return nil, &Error{Code: ErrCodeInvalidRequest, Message: "another run is writing " + req.OutputPath, Err: err}
		}
		return nil, err
	}
	defer unlock()

	secrets := records.NewSecretsFile(records.SecretsPath(req.OutputPath))
	pending, err := secrets.Exists()
	if err != nil {
		return nil, fmt.Errorf("check pending claim keys: %w", err)
	}
	if pending {
		return nil, newError(ErrCodePendingClaimKeys,
			"claim keys from an interrupted run are pending in %s; recover them before minting", secrets.Path())
	}

	rows, err := records.ReadInput(req.InputPath)
	if err != nil {
		return nil, err
	}

	entries, err := m.PrepareEntries(rows)
	if err != nil {
		return nil, err
	}
	entries, err = m.mergeDuplicates(entries)
	if err != nil {
		return nil, err
	}

	out, err := records.OpenOutput(req.OutputPath, m.processor.Schema().FieldNames())
	if err != nil {
		return nil, newError(ErrCodeInvalidRequest, "%v", err)
	}

	res := &Result{RunID: m.runIDs(), OutputPath: req.OutputPath}
	logger := m.logger.With("run_id", res.RunID)
	logger.Info("run started",
		"path", req.InputPath,
		"entries", len(entries),
		"templates", req.TemplatesOnly,
		"claim_keys", req.WithClaimKeys)

	if req.TemplatesOnly {
		err = m.createTemplates(ctx, entries, out, res)
	} else {
		err = m.createAndMint(ctx, entries, out, req, res)
	}
	if err != nil {
		logger.Debug("run failed", "error", err, "count", out.Rows())
		return nil, err
	}

	logger.Info("run complete",
		"editions", res.EditionsCreated,
		"count", res.NFTsMinted,
		"path", req.OutputPath)
	return res, nil
}

func (m *Minter) createTemplates(ctx context.Context, entries []EditionEntry, out *records.OutputWriter, res *Result) error {
	m.hooks.OnStartDuplicateCheck()
	existing, fresh, err := m.Partition(ctx, entries)
	if err != nil {
		return err
	}
	res.ExistingEditions, res.ExistingNFTs = len(existing), sumSizes(existing)
	m.hooks.OnCompleteDuplicateCheck(res.ExistingEditions, res.ExistingNFTs)

	m.hooks.OnStartEditionCreation(len(fresh))
	created, err := m.CreateEditions(ctx, fresh)
	if err != nil {
		return err
	}
	m.hooks.OnCompleteEditionCreation(len(created))
	res.EditionsCreated = len(created)

	if len(created) > 0 {
		rows := make([]records.OutputRow, len(created))
		for i, e := range created {
			rows[i] = records.OutputRow{
				ID:            e.ID,
				EditionID:     e.ID,
				EditionLimit:  formatLimit(e.Limit),
				TransactionID: e.TransactionID,
				Metadata:      e.Prepared,
			}
		}
		if err := out.WriteBatch(0, rows); err != nil {
			return err
		}
		res.Batches = 1
	}

	m.hooks.OnComplete(res.EditionsCreated, 0)
	return nil
}

func (m *Minter) createAndMint(ctx context.Context, entries []EditionEntry, out *records.OutputWriter, req Request, res *Result) error {
	// Every limit must be known before anything touches the ledger.
	for _, entry := range entries {
		if entry.Limit == nil {
			return newError(ErrCodeUnboundedEdition,
				"row %d has edition_size %q: editions with no limit can only be created as templates",
				entry.Row, UnboundedToken)
		}
	}

	m.hooks.OnStartDuplicateCheck()
	existing, fresh, err := m.Partition(ctx, entries)
	if err != nil {
		return err
	}
	res.ExistingEditions, res.ExistingNFTs = len(existing), sumSizes(existing)
	m.hooks.OnCompleteDuplicateCheck(res.ExistingEditions, res.ExistingNFTs)

	// An existing edition the ledger holds as unbounded stops the run before
	// any edition is created.
	mintable, err := refineMintable(nil, existing)
	if err != nil {
		return err
	}

	m.hooks.OnStartEditionCreation(len(fresh))
	created, err := m.CreateEditions(ctx, fresh)
	if err != nil {
		return err
	}
	m.hooks.OnCompleteEditionCreation(len(created))
	res.EditionsCreated = len(created)

	mintable, err = refineMintable(mintable, created)
	if err != nil {
		return err
	}

	minted, err := m.MintInBatches(ctx, out, mintable, req.BatchSize, req.WithClaimKeys)
	res.NFTsMinted = minted
	res.Batches = out.Batches()
	if err != nil {
		return err
	}

	m.hooks.OnComplete(res.EditionsCreated, res.NFTsMinted)
	return nil
}

// PrepareEntries canonicalizes rows and parses each row's edition_size.
func (m *Minter) PrepareEntries(rows []metadata.Map) ([]EditionEntry, error) {
	prepared, err := m.processor.Prepare(rows)
	if err != nil {
		var fieldErr *metadata.FieldError
		if errors.As(err, &fieldErr) {
			code := ErrCodeInvalidRequest
			if errors.Is(err, metadata.ErrMissingColumn) {
				code = ErrCodeMissingField
			}
			return nil, &Error{Code: code, Message: fieldErr.Error()}
		}
		return nil, err
	}

	entries := make([]EditionEntry, len(prepared))
	for i, entry := range prepared {
		raw, ok := rows[i].Get(metadata.EditionSizeField)
		if !ok {
			return nil, newError(ErrCodeMissingField, "row %d: missing column %q", i+1, metadata.EditionSizeField)
		}

		limit, err := ParseEditionLimit(raw)
		if err != nil {
			var me *Error
			if errors.As(err, &me) {
				me.Message = fmt.Sprintf("row %d: %s", i+1, me.Message)
			}
			return nil, err
		}

		entries[i] = EditionEntry{Entry: entry, Limit: limit, Row: i + 1}
	}
	return entries, nil
}

// mergeDuplicates collapses rows that describe the same edition, keeping the
// first of each in input order. Rows that share a mint ID must agree on
// edition_size.
func (m *Minter) mergeDuplicates(entries []EditionEntry) ([]EditionEntry, error) {
	first := make(map[string]EditionEntry, len(entries))
	merged := make([]EditionEntry, 0, len(entries))
	for _, e := range entries {
		prev, ok := first[e.Hash]
		if !ok {
			first[e.Hash] = e
			merged = append(merged, e)
			continue
		}
		if !sameLimit(prev.Limit, e.Limit) {
			return nil, newError(ErrCodeInvalidRequest,
				"rows %d and %d describe the same edition (mint ID %s) with different edition_size",
				prev.Row, e.Row, e.Hash)
		}
		m.logger.Info("merged duplicate row", "row", e.Row, "first_row", prev.Row, "mint_id", e.Hash)
	}
	return merged, nil
}

func sameLimit(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// refineMintable appends each edition with capacity left to dst.
func refineMintable(dst []LimitedEdition, editions []Edition) ([]LimitedEdition, error) {
	for _, e := range editions {
		limited, err := NewLimitedEdition(e)
		if err != nil {
			return nil, err
		}
		if limited.Remaining() > 0 {
			dst = append(dst, limited)
		}
	}
	return dst, nil
}

// Partition splits entries into editions already on the ledger and entries
// still to be created, using one lookup call. Both partitions keep input
// order. Existing editions take their ID, size and limit from the ledger
// and their metadata from the local entry.
func (m *Minter) Partition(ctx context.Context, entries []EditionEntry) ([]Edition, []EditionEntry, error) {
	if len(entries) == 0 {
		return nil, nil, nil
	}

	mintIDs := make([]string, len(entries))
	for i, e := range entries {
		mintIDs[i] = e.Hash
	}

	found, err := m.gateway.EditionsByMintID(ctx, mintIDs)
	if err != nil {
		return nil, nil, gatewayError(err, "look up %d editions", len(entries))
	}
	if len(found) != len(entries) {
		return nil, nil, newError(ErrCodeGateway,
			"edition lookup returned %d results for %d mint IDs", len(found), len(entries))
	}

	var (
		existing []Edition
		fresh    []EditionEntry
	)
	for i, entry := range entries {
		remote := found[i]
		if remote == nil {
			fresh = append(fresh, entry)
			continue
		}

		m.logger.Debug("edition exists",
			"edition_id", remote.ID,
			"mint_id", entry.Hash,
			"size", remote.Size)
		existing = append(existing, Edition{
			ID:       remote.ID,
			Size:     remote.Size,
			Limit:    remote.Limit,
			Hash:     entry.Hash,
			Raw:      entry.Raw,
			Prepared: entry.Prepared,
		})
	}
	return existing, fresh, nil
}

// CreateEditions pins the entries' assets, then creates one edition per
// entry in a single ledger call with the metadata sent column by column.
// File fields carry the CID the pinning service assigned. Results follow
// entry order. Empty input is a no-op.
func (m *Minter) CreateEditions(ctx context.Context, entries []EditionEntry) ([]Edition, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	var assets []metadata.Asset
	for _, e := range entries {
		assets = append(assets, e.Assets...)
	}
	pinned, err := m.processor.Process(ctx, assets)
	if err != nil {
		return nil, fmt.Errorf("process metadata: %w", err)
	}

	mintIDs := make([]string, len(entries))
	limits := make([]*uint64, len(entries))
	prepared := make([]metadata.Map, len(entries))
	for i, e := range entries {
		mintIDs[i] = e.Hash
		limits[i] = e.Limit
		prepared[i] = pinned.Apply(e.Entry)
	}

	fields := m.processor.Schema().Fields
	columns := make([]ledger.FieldColumn, len(fields))
	for c, field := range fields {
		values := make([]string, len(entries))
		for i := range entries {
			values[i] = prepared[i].Value(field.Name)
		}
		columns[c] = ledger.FieldColumn{Name: field.Name, Type: field.Type, Values: values}
	}

	created, err := m.gateway.CreateEditions(ctx, mintIDs, limits, columns)
	if err != nil {
		return nil, gatewayError(err, "create %d editions", len(entries))
	}
	if len(created) != len(entries) {
		return nil, newError(ErrCodeGateway,
			"edition creation returned %d results for %d editions", len(created), len(entries))
	}

	editions := make([]Edition, len(entries))
	for i, e := range entries {
		editions[i] = Edition{
			ID:            created[i].ID,
			Size:          created[i].Size,
			Limit:         created[i].Limit,
			Hash:          e.Hash,
			Raw:           e.Raw,
			Prepared:      prepared[i],
			TransactionID: created[i].TransactionID,
		}
		m.logger.Debug("edition created",
			"edition_id", created[i].ID,
			"mint_id", e.Hash)
	}
	return editions, nil
}

func sumSizes(editions []Edition) uint64 {
	var total uint64
	for _, e := range editions {
		total += e.Size
	}
	return total
}
