package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mintctl/internal/minter"
)

// ClaimsOptions holds flags for the claims commands.
type ClaimsOptions struct {
	*RootOptions
	OutputPath string
}

// NewClaimsCommand creates the claims command group.
func NewClaimsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Manage claim keys",
	}
	cmd.AddCommand(newClaimsRecoverCommand(rootOpts))
	return cmd
}

func newClaimsRecoverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClaimsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Move claim keys left by an interrupted run aside",
		Long: `Move claim keys left by an interrupted run aside.

A claim batch writes its private keys before the mint transaction is sent. If
the run stopped before the batch was recorded, those keys stay pending and mint
refuses to start. recover moves them to <output>.recovered-<run-id>.csv, where
they can be matched against the ledger's claim public keys.

Example:
  mintctl claims recover
  mintctl claims recover --output nfts.out.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaimsRecover(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OutputPath, "output", "", "output CSV of the interrupted run (default: <data>.out.csv)")

	return cmd
}

func runClaimsRecover(opts *ClaimsOptions, cmd *cobra.Command) error {
	outputPath := opts.OutputPath
	if outputPath == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return err
		}
		outputPath = defaultOutputPath(cfg.Resolve(cfg.NFTDataPath))
	}

	rec, err := minter.RecoverClaimKeys(outputPath, "")
	if err != nil {
		if minter.IsUserError(err) {
			return err
		}
		return WrapExitError(ExitCommandError, "failed to recover claim keys", err)
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(rec)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderRecovery(rec))
	return nil
}
