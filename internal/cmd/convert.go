package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardlens/statement-converter/internal/config"
	"github.com/cardlens/statement-converter/internal/pipeline"
	"github.com/cardlens/statement-converter/internal/writer"
)

func newConvertCommand() *cobra.Command {
	var output string
	var asJSON bool
	var noMetadata bool

	cmd := &cobra.Command{
		Use:   "convert <statement.pdf> [more.pdf ...]",
		Short: "Convert statement PDFs to CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" && len(args) > 1 {
				return fmt.Errorf("--output is only valid with a single input file")
			}

			cfg := config.Load()
			// CLI conversions keep zap quiet by default; progress goes to
			// stderr as plain lines instead.
			conv := pipeline.New(pipeline.FromConfig(cfg), rootLogger(cmd, "warn"))

			for _, path := range args {
				if err := convertFile(cmd, conv, path, output, asJSON, !noMetadata); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (defaults to the input name with .csv)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the full conversion result as JSON")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "omit the metadata header rows from CSV output")

	return cmd
}

func convertFile(cmd *cobra.Command, conv *pipeline.Converter, path, output string, asJSON, withMetadata bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	progress(cmd, "Processing %s", path)
	res := conv.Convert(cmd.Context(), data, filepath.Base(path))

	if res.Data == nil {
		return fmt.Errorf("%s: %s", path, res.Message)
	}
	if !res.Success {
		// Partial results are still written; the warnings say what was
		// lost.
		progress(cmd, "warning: %s", res.Message)
	}
	for _, w := range res.Warnings {
		progress(cmd, "warning: %s", w.String())
	}

	meta := res.Data.Metadata
	if meta.BankName != "" {
		progress(cmd, "  bank: %s", meta.BankName)
	}
	if meta.StatementPeriod != "" {
		progress(cmd, "  period: %s", meta.StatementPeriod)
	}
	progress(cmd, "  transactions: %d", meta.TotalTransactions)

	out := output
	if out == "" {
		ext := ".csv"
		if asJSON {
			ext = ".json"
		}
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ext
	}

	if asJSON {
		blob, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		if err := os.WriteFile(out, append(blob, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
	} else {
		w := &writer.Writer{IncludeMetadata: withMetadata}
		if err := w.WriteFile(out, res.Data); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
	}
	progress(cmd, "  wrote %s", out)
	return nil
}

// progress prints human status lines to stderr, unless --quiet.
func progress(cmd *cobra.Command, format string, args ...any) {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}
