package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/clearline-dev/clearline/internal/config"
	"github.com/clearline-dev/clearline/internal/extract"
	"github.com/clearline-dev/clearline/internal/id"
	"github.com/clearline-dev/clearline/internal/model"
	"github.com/clearline-dev/clearline/internal/reconstruct"
	"github.com/clearline-dev/clearline/internal/verify"
)

func newVerifyCommand() *cobra.Command {
	var repoDir string
	var format string

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Extract and verify one statement without posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runVerify(absDir, args[0], format)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "ledger repo directory")
	cmd.Flags().StringVar(&format, "format", "", "force a specific extractor")

	return cmd
}

// runVerify is the operator pre-flight: the pure stages only, no posting and
// no exception records.
func runVerify(dir, file, format string) error {
	tolerance := verify.DefaultTolerance
	if cfg, err := config.Load(filepath.Join(dir, "clearline.yaml")); err == nil && cfg.Reconcile.Tolerance != nil {
		tolerance = decimal.NewFromFloat(*cfg.Reconcile.Tolerance)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	registry := extract.DefaultRegistry()
	var res extract.Result
	switch {
	case format != "":
		e, ok := registry.Get(format)
		if !ok {
			return fmt.Errorf("no extractor named %q (have: %s)", format, strings.Join(registry.Names(), ", "))
		}
		res, err = e.Extract(splitLines(data), extract.Hints{})
	case strings.HasSuffix(strings.ToLower(file), ".csv"):
		res, err = extract.ParseCSV(strings.NewReader(string(data)), extract.Hints{})
	default:
		e, ok := registry.Detect(string(data))
		if !ok {
			return extract.ErrUnrecognizedFormat
		}
		res, err = e.Extract(splitLines(data), extract.Hints{})
	}
	if err != nil {
		return err
	}
	res.Statement.DocumentID = id.DocumentID(data)

	rec := reconstruct.Run(res.Statement.OpeningBalance, res.Rows)
	result := verify.New(tolerance).Verify(verify.Input{
		Statement:    res.Statement,
		Transactions: rec.Transactions,
		RowErrors:    append(res.RowErrors, rec.Ambiguous...),
	})

	printResult(result)
	if result.Verdict != model.VerdictVerified {
		os.Exit(1)
	}
	return nil
}

func printResult(res model.ReconciliationResult) {
	fmt.Printf("document:  %s\n", res.DocumentID)
	fmt.Printf("bank:      %s\n", res.Statement.Bank)
	fmt.Printf("rows:      %d\n", len(res.Transactions))
	if res.Statement.HasClosingBalance {
		fmt.Printf("closing:   declared %s, computed %s\n",
			res.Statement.ClosingBalance.StringFixed(2), res.ExpectedClosing.StringFixed(2))
	}
	fmt.Printf("verdict:   %s\n", res.Verdict)

	for _, d := range res.Discrepancies {
		if d.Ordinal > 0 {
			fmt.Printf("  [%s] row %d: %s\n", d.Kind, d.Ordinal, d.Message)
		} else {
			fmt.Printf("  [%s] %s\n", d.Kind, d.Message)
		}
	}
}

func splitLines(data []byte) []string {
	return strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
}
