package metadata

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return NewSchema(
		Field{Name: "name", Type: TypeString},
		Field{Name: "description", Type: TypeString},
		Field{Name: "rarity", Type: TypeUInt64},
	)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPinner struct {
	names []string
	cid   func(data []byte) string
	err   error
}

func (p *recordingPinner) Pin(_ context.Context, name string, data []byte) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.names = append(p.names, name)
	if p.cid != nil {
		return p.cid(data), nil
	}
	return ContentID(data), nil
}

func TestPrepareCanonicalizesInSchemaOrder(t *testing.T) {
	p := NewProcessor(testSchema(), WithLogger(testLogger()))

	entries, err := p.Prepare([]Map{
		MapOf("rarity", " 3", "edition_size", "5", "name", "Alpha ", "description", "First"),
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, []string{"name", "description", "rarity"}, entry.Prepared.Keys())
	assert.Equal(t, "Alpha", entry.Prepared.Value("name"))
	assert.Equal(t, "3", entry.Prepared.Value("rarity"))
	assert.Equal(t, " 3", entry.Raw.Value("rarity"))
	assert.Equal(t, "50c91c6e8125aa0a0bfeed89ceae4c280c684cd12fe2f51751a12f9a6c85f4aa", entry.Hash)
}

func TestPrepareHashIgnoresCosmeticDifferences(t *testing.T) {
	p := NewProcessor(testSchema(), WithLogger(testLogger()))

	entries, err := p.Prepare([]Map{
		MapOf("name", "Alpha", "description", "First", "rarity", "3", "edition_size", "5"),
		MapOf("rarity", "3", "description", " First ", "name", "Alpha", "notes", "ignored", "edition_size", "9"),
	})
	require.NoError(t, err)

	assert.Equal(t, entries[0].Hash, entries[1].Hash)
}

func TestPrepareHashIsDeterministic(t *testing.T) {
	p := NewProcessor(testSchema(), WithLogger(testLogger()))
	row := MapOf("name", "Alpha", "description", "First", "rarity", "3")

	first, err := p.Prepare([]Map{row})
	require.NoError(t, err)
	second, err := p.Prepare([]Map{row})
	require.NoError(t, err)

	assert.Equal(t, first[0].Hash, second[0].Hash)
}

func TestPrepareDistinctMetadataDistinctHash(t *testing.T) {
	p := NewProcessor(testSchema(), WithLogger(testLogger()))

	entries, err := p.Prepare([]Map{
		MapOf("name", "Alpha", "description", "First", "rarity", "3"),
		MapOf("name", "Alpha", "description", "First", "rarity", "4"),
	})
	require.NoError(t, err)

	assert.NotEqual(t, entries[0].Hash, entries[1].Hash)
}

func TestPrepareMissingColumn(t *testing.T) {
	p := NewProcessor(testSchema(), WithLogger(testLogger()))

	_, err := p.Prepare([]Map{
		MapOf("name", "Alpha", "description", "First", "rarity", "3"),
		MapOf("name", "Beta", "rarity", "3"),
	})
	require.Error(t, err)

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, 2, fieldErr.Row)
	assert.Equal(t, "description", fieldErr.Field)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Equal(t, `row 2: missing column "description"`, err.Error())
}

func TestPrepareInvalidValueNamesOffender(t *testing.T) {
	p := NewProcessor(testSchema(), WithLogger(testLogger()))

	_, err := p.Prepare([]Map{MapOf("name", "Alpha", "description", "First", "rarity", "rare")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"rare"`)
}

func TestPrepareIPFSFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.png"), []byte("hello world"), 0644))

	schema := NewSchema(Field{Name: "name", Type: TypeString}, Field{Name: "image", Type: TypeIPFSFile})
	p := NewProcessor(schema, WithAssetsDir(dir), WithLogger(testLogger()))

	entries, err := p.Prepare([]Map{
		MapOf("name", "Alpha", "image", "alpha.png"),
		MapOf("name", "Beta", "image", "ipfs://bafkreiexisting"),
	})
	require.NoError(t, err)

	assert.Equal(t, "bafkreifzjut3te2nhyekklss27nh3k72ysco7y32koao5eei66wof36n5e", entries[0].Prepared.Value("image"))
	require.Len(t, entries[0].Assets, 1)
	assert.Equal(t, filepath.Join(dir, "alpha.png"), entries[0].Assets[0].Path)

	assert.Equal(t, "bafkreiexisting", entries[1].Prepared.Value("image"))
	assert.Empty(t, entries[1].Assets)
}

func TestPrepareIPFSFileMissing(t *testing.T) {
	schema := NewSchema(Field{Name: "image", Type: TypeIPFSFile})
	p := NewProcessor(schema, WithAssetsDir(t.TempDir()), WithLogger(testLogger()))

	_, err := p.Prepare([]Map{MapOf("image", "nope.png")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read file")
}

func TestProcessPinsEachCIDOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("same"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.png"), []byte("same"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.png"), []byte("other"), 0644))

	pinner := &recordingPinner{}
	schema := NewSchema(Field{Name: "image", Type: TypeIPFSFile})
	p := NewProcessor(schema, WithAssetsDir(dir), WithPinner(pinner), WithLogger(testLogger()))

	entries, err := p.Prepare([]Map{MapOf("image", "a.png"), MapOf("image", "b.png"), MapOf("image", "c.png")})
	require.NoError(t, err)

	var assets []Asset
	for _, e := range entries {
		assets = append(assets, e.Assets...)
	}
	pinned, err := p.Process(context.Background(), assets)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.png", "c.png"}, pinner.names)
	assert.Len(t, pinned, 2)
}

func TestProcessUsesServiceCIDForLargeFile(t *testing.T) {
	dir := t.TempDir()
	large := bytes.Repeat([]byte{0xab}, 1<<20)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), large, 0644))

	// A chunked file gets a dag-pb root from the service, unrelated to the
	// local raw content ID.
	const rootCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"
	pinner := &recordingPinner{cid: func([]byte) string { return rootCID }}
	p := NewProcessor(NewSchema(Field{Name: "name", Type: TypeString}, Field{Name: "image", Type: TypeIPFSFile}),
		WithAssetsDir(dir), WithPinner(pinner), WithLogger(testLogger()))

	entries, err := p.Prepare([]Map{MapOf("name", "Alpha", "image", "a.png")})
	require.NoError(t, err)
	local := ContentID(large)
	require.Equal(t, local, entries[0].Prepared.Value("image"))

	pinned, err := p.Process(context.Background(), entries[0].Assets)
	require.NoError(t, err)
	assert.Equal(t, Pinned{local: rootCID}, pinned)

	applied := pinned.Apply(entries[0])
	assert.Equal(t, rootCID, applied.Value("image"))
	assert.Equal(t, "Alpha", applied.Value("name"))
	assert.Equal(t, local, entries[0].Prepared.Value("image"), "Apply must not modify the prepared map")
}

func TestProcessPropagatesPinnerError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("data"), 0644))

	pinErr := errors.New("quota exceeded")
	p := NewProcessor(NewSchema(Field{Name: "image", Type: TypeIPFSFile}),
		WithAssetsDir(dir), WithPinner(&recordingPinner{err: pinErr}), WithLogger(testLogger()))

	entries, err := p.Prepare([]Map{MapOf("image", "a.png")})
	require.NoError(t, err)

	_, err = p.Process(context.Background(), entries[0].Assets)
	assert.ErrorIs(t, err, pinErr)
}

func TestProcessWithoutPinnerIsNoop(t *testing.T) {
	p := NewProcessor(NewSchema(Field{Name: "image", Type: TypeIPFSFile}), WithLogger(testLogger()))
	pinned, err := p.Process(context.Background(), []Asset{{Field: "image", Path: "/does/not/exist", ContentID: "x"}})
	assert.NoError(t, err)
	assert.Empty(t, pinned)
}
