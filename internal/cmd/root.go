// Package cmd wires the statement-converter command line interface.
package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cardlens/statement-converter/internal/logging"
)

const version = "1.0.0"

// NewRootCommand builds the CLI with all subcommands registered.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "statement-converter",
		Short:   "Convert credit card statement PDFs to normalized CSV",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().Bool("verbose", false, "debug logging")
	root.PersistentFlags().Bool("quiet", false, "suppress progress output and logs")

	root.AddCommand(newConvertCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newBanksCommand())

	return root
}

// rootLogger builds the logger selected by the persistent flags. level is
// the fallback when neither flag is set.
func rootLogger(cmd *cobra.Command, level string) *zap.Logger {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return logging.Nop()
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return logging.New("debug")
	}
	return logging.New(level)
}
