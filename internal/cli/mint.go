package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/mintctl/internal/claimkey"
	"github.com/roach88/mintctl/internal/config"
	"github.com/roach88/mintctl/internal/ledger"
	"github.com/roach88/mintctl/internal/ledger/emulator"
	"github.com/roach88/mintctl/internal/ledger/remote"
	"github.com/roach88/mintctl/internal/metadata"
	"github.com/roach88/mintctl/internal/minter"
	"github.com/roach88/mintctl/internal/pinning"
)

// DefaultBatchSize is the number of items minted per transaction.
const DefaultBatchSize = 10

// MintOptions holds flags for the mint command.
type MintOptions struct {
	*RootOptions
	DataPath   string
	OutputPath string
	BatchSize  int
	Claim      bool
	Templates  bool
	Network    string
	Yes        bool
}

// NewMintCommand creates the mint command.
func NewMintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MintOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Create editions and mint NFTs from a CSV file",
		Long: `Create editions and mint NFTs from a CSV file.

Each row is one edition: the metadata columns named by the project schema plus
an edition_size column ("null" for an unbounded edition). Editions that already
exist on the ledger are not created again, and only their remaining capacity
is minted. Minted items are appended to the output CSV batch by batch.

With --claim every item is bound to a fresh claim key; the private half is
written to the output as <private-key><nft-id>.

With --templates editions are created but nothing is minted.

Example:
  mintctl mint --data nfts.csv
  mintctl mint --network testnet --claim --batch-size 20 --yes
  mintctl mint --templates --output editions.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMint(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DataPath, "data", "", "input CSV (default: nftDataPath from the project file)")
	cmd.Flags().StringVar(&opts.OutputPath, "output", "", "output CSV (default: <data>.out.csv)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", DefaultBatchSize, "number of NFTs minted per transaction")
	cmd.Flags().BoolVar(&opts.Claim, "claim", false, "bind each NFT to a generated claim key")
	cmd.Flags().BoolVar(&opts.Templates, "templates", false, "create editions without minting")
	cmd.Flags().StringVar(&opts.Network, "network", config.NetworkEmulator, "ledger network (emulator|testnet|mainnet)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runMint(opts *MintOptions, cmd *cobra.Command) error {
	if !slices.Contains(config.ValidNetworks, opts.Network) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid network %q: must be one of %v", opts.Network, config.ValidNetworks))
	}
	if opts.BatchSize < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid batch size %d: must be at least 1", opts.BatchSize))
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	dataPath := opts.DataPath
	if dataPath == "" {
		dataPath = cfg.Resolve(cfg.NFTDataPath)
	}
	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = defaultOutputPath(dataPath)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	formatter.VerboseLog("Project: %s", cfg.Dir)
	formatter.VerboseLog("Input:   %s", dataPath)
	formatter.VerboseLog("Output:  %s", outputPath)
	formatter.VerboseLog("Network: %s", opts.Network)

	if !opts.Yes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), promptFor(opts.Templates, dataPath))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read confirmation", err)
		}
		if !ok {
			fmt.Fprintln(cmd.ErrOrStderr(), "Aborted.")
			return nil
		}
	}

	gateway, closeGateway, err := openGateway(cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeGateway(); closeErr != nil {
			slog.Error("error closing ledger", "error", closeErr)
		}
	}()

	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	generator, err := claimkey.NewGenerator(cfg.ClaimKeys.SignatureAlgorithm)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid claim key settings", err)
	}

	progress := newProgress(cmd.OutOrStdout(), opts.Format)
	defer progress.Stop()

	m := minter.New(processor, gateway,
		minter.WithClaimKeyGenerator(generator),
		minter.WithHooks(progress),
		minter.WithLogger(slog.Default()),
	)

	ctx, stop := signalContext(cmd)
	defer stop()

	slog.Debug("mint starting", "network", opts.Network, "path", dataPath, "output", outputPath)
	res, err := m.Mint(ctx, minter.Request{
		InputPath:     dataPath,
		OutputPath:    outputPath,
		BatchSize:     opts.BatchSize,
		WithClaimKeys: opts.Claim,
		TemplatesOnly: opts.Templates,
	})
	progress.Stop()
	if err != nil {
		if minter.HasCode(err, minter.ErrCodePendingClaimKeys) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Run `mintctl claims recover --output %s`, then mint again.\n", outputPath)
		}
		return mintError(err)
	}

	if opts.Format == "json" {
		return formatter.Success(res)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderMintSummary(res))
	return nil
}

// defaultOutputPath derives the output CSV from the input: nfts.csv becomes
// nfts.out.csv next to it.
func defaultOutputPath(dataPath string) string {
	return strings.TrimSuffix(dataPath, filepath.Ext(dataPath)) + ".out.csv"
}

func promptFor(templates bool, dataPath string) string {
	if templates {
		return fmt.Sprintf("Create edition templates using data from %s?", dataPath)
	}
	return fmt.Sprintf("Create NFTs using data from %s?", dataPath)
}

// confirm asks a yes/no question and reports whether the answer was yes.
// Anything but "y" or "yes" (including EOF) declines.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// openGateway selects the ledger for --network. The returned func releases it.
func openGateway(cfg *config.Config, opts *MintOptions) (ledger.Gateway, func() error, error) {
	if opts.Network == config.NetworkEmulator {
		path := cfg.Resolve(cfg.Networks.Emulator.Ledger)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to create ledger directory", err)
		}
		slog.Debug("opening emulator ledger", "path", path)
		l, err := emulator.Open(path, emulator.WithLogger(slog.Default()))
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open emulator ledger", err)
		}
		return l, l.Close, nil
	}

	gw, err := cfg.Gateway(opts.Network)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid network", err)
	}
	if gw.TokenEnv != "" && gw.Token() == "" {
		return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("gateway token is not set: export %s", gw.TokenEnv))
	}
	client, err := remote.New(gw.Gateway, gw.Token(), remote.WithLogger(slog.Default()))
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid gateway", err)
	}
	return client, func() error { return nil }, nil
}

func newProcessor(cfg *config.Config) (*metadata.Processor, error) {
	procOpts := []metadata.Option{
		metadata.WithAssetsDir(cfg.Resolve(cfg.AssetsDir)),
		metadata.WithLogger(slog.Default()),
	}

	if cfg.Pinning != nil {
		if cfg.Pinning.Key() == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("pinning key is not set: export %s", cfg.Pinning.KeyEnv))
		}
		pinner, err := pinning.New(cfg.Pinning.Endpoint, cfg.Pinning.Key(), pinning.WithLogger(slog.Default()))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid pinning settings", err)
		}
		procOpts = append(procOpts, metadata.WithPinner(pinner))
	}

	return metadata.NewProcessor(cfg.Schema, procOpts...), nil
}

// signalContext cancels on SIGINT/SIGTERM. Cancellation takes effect between
// batches; an in-flight transaction is always allowed to finish.
func signalContext(cmd *cobra.Command) (context.Context, func()) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Warn("received signal, stopping after the current batch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// mintError maps a pipeline failure to an exit error. Problems with the
// input or ledger state print their message alone.
func mintError(err error) error {
	switch {
	case minter.IsUserError(err):
		return err
	case errors.Is(err, context.Canceled):
		return WrapExitError(ExitFailure, "interrupted; rerun to mint the remaining NFTs", err)
	}

	var statusErr *remote.StatusError
	if errors.As(err, &statusErr) {
		return WrapExitError(ExitFailure, "gateway rejected the request", err)
	}
	return WrapExitError(ExitCommandError, "mint failed", err)
}
