package minter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mintctl/internal/ledger"
	"github.com/roach88/mintctl/internal/metadata"
)

var errNetwork = errors.New("network down")

// fakeGateway is an in-memory ledger that records every call.
type fakeGateway struct {
	byMintID map[string]*ledger.Edition
	nextID   int
	nextNFT  int

	lookups    [][]string
	creates    []createCall
	mints      []mintCall
	failMintAt int // 1-based mint call that fails, 0 for none
	failCreate bool

	// beforeMint runs at the start of each mint call.
	beforeMint func(editionID string, publicKeys []string)
}

type createCall struct {
	mintIDs []string
	limits  []*uint64
	fields  []ledger.FieldColumn
}

type mintCall struct {
	editionID  string
	count      int
	publicKeys []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{byMintID: make(map[string]*ledger.Edition)}
}

// seed puts an edition on the ledger directly.
func (g *fakeGateway) seed(mintID string, size uint64, limit *uint64) string {
	g.nextID++
	id := strconv.Itoa(g.nextID)
	g.byMintID[mintID] = &ledger.Edition{ID: id, Size: size, Limit: limit}
	return id
}

func (g *fakeGateway) edition(id string) *ledger.Edition {
	for _, e := range g.byMintID {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (g *fakeGateway) EditionsByMintID(_ context.Context, mintIDs []string) ([]*ledger.Edition, error) {
	g.lookups = append(g.lookups, append([]string(nil), mintIDs...))
	out := make([]*ledger.Edition, len(mintIDs))
	for i, id := range mintIDs {
		if e, ok := g.byMintID[id]; ok {
			cp := *e
			out[i] = &cp
		}
	}
	return out, nil
}

func (g *fakeGateway) CreateEditions(_ context.Context, mintIDs []string, limits []*uint64, fields []ledger.FieldColumn) ([]ledger.CreatedEdition, error) {
	g.creates = append(g.creates, createCall{mintIDs: mintIDs, limits: limits, fields: fields})
	if g.failCreate {
		return nil, errNetwork
	}

	tx := fmt.Sprintf("create-%d", len(g.creates))
	out := make([]ledger.CreatedEdition, len(mintIDs))
	for i, mintID := range mintIDs {
		id := g.seed(mintID, 0, limits[i])
		out[i] = ledger.CreatedEdition{ID: id, Limit: limits[i], TransactionID: tx}
	}
	return out, nil
}

func (g *fakeGateway) MintEdition(_ context.Context, editionID string, count int) ([]ledger.MintedNFT, error) {
	return g.mint(editionID, count, nil)
}

func (g *fakeGateway) MintEditionWithClaimKeys(_ context.Context, editionID string, publicKeys []string) ([]ledger.MintedNFT, error) {
	return g.mint(editionID, len(publicKeys), publicKeys)
}

func (g *fakeGateway) mint(editionID string, count int, publicKeys []string) ([]ledger.MintedNFT, error) {
	g.mints = append(g.mints, mintCall{editionID: editionID, count: count, publicKeys: publicKeys})
	if g.beforeMint != nil {
		g.beforeMint(editionID, publicKeys)
	}
	if g.failMintAt == len(g.mints) {
		return nil, errNetwork
	}

	e := g.edition(editionID)
	if e == nil {
		return nil, fmt.Errorf("edition %s not found", editionID)
	}
	if e.Limit == nil || e.Size+uint64(count) > *e.Limit {
		return nil, fmt.Errorf("edition %s over capacity", editionID)
	}

	tx := fmt.Sprintf("mint-%d", len(g.mints))
	out := make([]ledger.MintedNFT, count)
	for i := range out {
		g.nextNFT++
		e.Size++
		out[i] = ledger.MintedNFT{
			ID:            strconv.Itoa(1000 + g.nextNFT),
			SerialNumber:  e.Size,
			TransactionID: tx,
		}
	}
	return out, nil
}

// failingGateway fails every mint call after the first failAfter.
type failingGateway struct {
	ledger.Gateway
	failAfter int
	calls     int
}

func (g *failingGateway) MintEdition(ctx context.Context, editionID string, count int) ([]ledger.MintedNFT, error) {
	g.calls++
	if g.calls > g.failAfter {
		return nil, errNetwork
	}
	return g.Gateway.MintEdition(ctx, editionID, count)
}

func (g *failingGateway) MintEditionWithClaimKeys(ctx context.Context, editionID string, publicKeys []string) ([]ledger.MintedNFT, error) {
	g.calls++
	if g.calls > g.failAfter {
		return nil, errNetwork
	}
	return g.Gateway.MintEditionWithClaimKeys(ctx, editionID, publicKeys)
}

// recordingHooks captures progress events in order.
type recordingHooks struct {
	events []string
}

func (h *recordingHooks) add(format string, args ...any) {
	h.events = append(h.events, fmt.Sprintf(format, args...))
}

func (h *recordingHooks) OnStartDuplicateCheck() { h.add("dedup:start") }
func (h *recordingHooks) OnCompleteDuplicateCheck(editions int, nfts uint64) {
	h.add("dedup:done editions=%d nfts=%d", editions, nfts)
}
func (h *recordingHooks) OnStartEditionCreation(n int) { h.add("create:start %d", n) }
func (h *recordingHooks) OnCompleteEditionCreation(n int) { h.add("create:done %d", n) }
func (h *recordingHooks) OnStartMinting(total, batches, size int) {
	h.add("mint:start total=%d batches=%d size=%d", total, batches, size)
}
func (h *recordingHooks) OnCompleteBatch(size int) { h.add("batch %d", size) }
func (h *recordingHooks) OnComplete(editions, nfts int) {
	h.add("done editions=%d nfts=%d", editions, nfts)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSchema() metadata.Schema {
	return metadata.NewSchema(
		metadata.Field{Name: "name", Type: metadata.TypeString},
		metadata.Field{Name: "rarity", Type: metadata.TypeUInt64},
	)
}

func newTestMinter(gw ledger.Gateway, opts ...Option) *Minter {
	processor := metadata.NewProcessor(testSchema(), metadata.WithLogger(testLogger()))
	run := 0
	base := []Option{
		WithLogger(testLogger()),
		WithRunIDs(func() string {
			run++
			return fmt.Sprintf("run-%d", run)
		}),
	}
	return New(processor, gw, append(base, opts...)...)
}

// writeInput writes an input table and returns its path along with an
// output path in the same directory.
func writeInput(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "nfts.csv")
	require.NoError(t, os.WriteFile(in, []byte(content), 0644))
	return in, filepath.Join(dir, "nfts.out.csv")
}

func u64(n uint64) *uint64 { return &n }
