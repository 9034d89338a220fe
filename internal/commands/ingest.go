package commands

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/clearline-dev/clearline/internal/accounts"
	"github.com/clearline-dev/clearline/internal/classify"
	"github.com/clearline-dev/clearline/internal/config"
	"github.com/clearline-dev/clearline/internal/extract"
	"github.com/clearline-dev/clearline/internal/gitops"
	"github.com/clearline-dev/clearline/internal/ledger"
	"github.com/clearline-dev/clearline/internal/logger"
	"github.com/clearline-dev/clearline/internal/pipeline"
	"github.com/clearline-dev/clearline/internal/verify"
)

func newIngestCommand() *cobra.Command {
	var repoDir string
	var workers int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Process statement files from the import directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runIngest(cmd, absDir, workers, verbose)
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "ledger repo directory")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent documents (0 = one per CPU)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "debug logging")

	return cmd
}

func runIngest(cmd *cobra.Command, dir string, workers int, verbose bool) error {
	cfg, p, usage, err := buildPipeline(dir, verbose)
	if err != nil {
		return err
	}

	if workers == 0 {
		workers = cfg.Reconcile.Workers
	}
	log := logger.New(verbose)
	runner := pipeline.NewRunner(p, dir, workers, log)

	outcomes, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	posted := 0
	for _, out := range outcomes {
		switch {
		case out.Err != nil:
			fmt.Printf("%-30s  FAILED  %v\n", out.Name, out.Err)
		case out.AlreadyPosted:
			fmt.Printf("%-30s  %s (already posted)\n", out.Name, out.Result.Verdict)
		case out.Posted:
			posted++
			fmt.Printf("%-30s  %s  %d entries\n", out.Name, out.Result.Verdict, len(out.EntryIDs))
		default:
			fmt.Printf("%-30s  %s  %d discrepancies\n", out.Name, out.Result.Verdict, len(out.Result.Discrepancies))
		}
	}
	fmt.Printf("%d of %d statements posted\n", posted, len(outcomes))
	printRuleUsage(usage)

	if cfg.Git.AutoCommit && gitops.IsRepo(dir) {
		hash, err := gitops.CommitAll(dir, "ingest: run "+runner.RunID, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
		if err != nil {
			return fmt.Errorf("audit commit: %w", err)
		}
		if hash != "" {
			fmt.Printf("Committed %s\n", hash)
		}
	}

	return nil
}

// printRuleUsage reports which classification rules fired during this run, so
// dead or overly-greedy rules are visible to the operator.
func printRuleUsage(usage *classify.Usage) {
	stats := usage.Snapshot()
	if len(stats) == 0 {
		return
	}
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("rule usage:")
	for _, name := range names {
		fmt.Printf("  %-24s %d\n", name, stats[name].Matches)
	}
}

// buildPipeline loads a ledger repo's config, chart, and rules, and wires the
// full pipeline for it.
func buildPipeline(dir string, verbose bool) (*config.Config, *pipeline.Pipeline, *classify.Usage, error) {
	cfg, err := config.Load(filepath.Join(dir, "clearline.yaml"))
	if err != nil {
		return nil, nil, nil, err
	}

	chart, err := accounts.Load(dir)
	if err != nil {
		return nil, nil, nil, err
	}

	rules, err := classify.Load(filepath.Join(dir, "rules", "classification-rules.yaml"))
	if err != nil {
		return nil, nil, nil, err
	}

	mapping := ledger.AccountMapping{
		BankAccounts: make(map[string]int, len(cfg.BankAccounts)),
		Categories:   cfg.Categories,
		OwnerEquity:  cfg.Reconcile.OwnerEquityAccount,
	}
	for _, ba := range cfg.BankAccounts {
		mapping.BankAccounts[ba.Number] = ba.AccountID
	}

	store := ledger.NewStore(dir)
	usage := classify.NewUsage()
	poster := ledger.NewPoster(store, chart, mapping, usage)
	if cfg.Reconcile.AutoConfirm > 0 {
		poster.AutoConfirmThreshold = decimal.NewFromFloat(cfg.Reconcile.AutoConfirm)
	}

	tolerance := verify.DefaultTolerance
	if cfg.Reconcile.Tolerance != nil {
		tolerance = decimal.NewFromFloat(*cfg.Reconcile.Tolerance)
	}
	verifier := verify.New(tolerance)
	log := logger.New(verbose)

	p := pipeline.New(extract.DefaultRegistry(), rules, verifier, poster, dir, log)
	return cfg, p, usage, nil
}
