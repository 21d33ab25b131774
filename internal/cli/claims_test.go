package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintctl/internal/minter"
	"github.com/roach88/mintctl/internal/records"
)

func writePendingKeys(t *testing.T, out string, editionIDs ...string) {
	t.Helper()
	rows := make([]records.SecretRow, len(editionIDs))
	for i, id := range editionIDs {
		rows[i] = records.SecretRow{EditionID: id, PartialClaimKey: strings.Repeat("ab", 32)}
	}
	require.NoError(t, records.NewSecretsFile(records.SecretsPath(out)).Write(rows))
}

func TestClaimsRecover_NothingPending(t *testing.T) {
	cfgPath := setupProject(t, "", testData)

	stdout, stderr, code := runCLI(t, "", "--config", cfgPath, "claims", "recover")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "No pending claim keys.\n", stdout)
}

func TestClaimsRecover_MovesKeysAside(t *testing.T) {
	cfgPath := setupProject(t, "", testData)
	out := outputPath(cfgPath)
	writePendingKeys(t, out, "1", "1", "2")

	stdout, stderr, code := runCLI(t, "", "--config", cfgPath, "claims", "recover")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Recovered 3 claim keys to "+out+".recovered-")

	_, err := os.Stat(records.SecretsPath(out))
	assert.True(t, os.IsNotExist(err))

	matches, err := filepath.Glob(out + ".recovered-*.csv")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	recovered, err := records.NewSecretsFile(matches[0]).Read()
	require.NoError(t, err)
	assert.Len(t, recovered, 3)

	// Minting is unblocked once the keys are moved.
	_, stderr, code = runCLI(t, "", "--config", cfgPath, "mint", "--yes", "--claim")
	require.Equal(t, ExitSuccess, code, stderr)
}

func TestClaimsRecover_JSON(t *testing.T) {
	cfgPath := setupProject(t, "", testData)
	out := filepath.Join(t.TempDir(), "custom.csv")
	writePendingKeys(t, out, "7", "9", "9")

	stdout, stderr, code := runCLI(t, "", "--format", "json", "--config", cfgPath, "claims", "recover", "--output", out)
	require.Equal(t, ExitSuccess, code, stderr)

	var resp struct {
		Status string          `json:"status"`
		Data   minter.Recovery `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Data.RunID)
	assert.True(t, strings.HasPrefix(resp.Data.Path, out+".recovered-"))
	assert.Equal(t, []minter.RecoveredEdition{
		{EditionID: "7", Keys: 1},
		{EditionID: "9", Keys: 2},
	}, resp.Data.Editions)
}

func TestClaimsRecover_ExplicitOutputSkipsConfig(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nfts.out.csv")

	stdout, stderr, code := runCLI(t, "", "--config", "does-not-exist.yaml", "claims", "recover", "--output", out)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "No pending claim keys.\n", stdout)
}

func TestRenderRecovery(t *testing.T) {
	rendered := renderRecovery(&minter.Recovery{
		RunID: "run-1",
		Path:  "nfts.out.csv.recovered-run-1.csv",
		Editions: []minter.RecoveredEdition{
			{EditionID: "12", Keys: 4},
			{EditionID: "13", Keys: 10},
		},
	})

	assert.Contains(t, rendered, "Edition")
	assert.Contains(t, rendered, "12")
	assert.Contains(t, rendered, "10")
	assert.True(t, strings.HasSuffix(rendered, "Recovered 14 claim keys to nfts.out.csv.recovered-run-1.csv\n"))
}

func TestRenderMintSummary(t *testing.T) {
	rendered := renderMintSummary(&minter.Result{
		RunID:            "run-1",
		OutputPath:       "nfts.out.csv",
		ExistingEditions: 2,
		ExistingNFTs:     5,
		EditionsCreated:  1,
		Batches:          3,
		NFTsMinted:       21,
	})

	for _, want := range []string{"Existing editions", "Editions created", "NFTs minted", "21", "Output: nfts.out.csv", "Run:    run-1"} {
		assert.Contains(t, rendered, want)
	}
}
