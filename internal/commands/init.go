package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clearline-dev/clearline/internal/accounts"
	"github.com/clearline-dev/clearline/internal/config"
	"github.com/clearline-dev/clearline/internal/gitops"
)

// defaultRules seeds rules/classification-rules.yaml with a starter set the
// operator is expected to grow.
const defaultRules = `rules:
  - name: bank-interest
    priority: 10
    category: interest-income
    keywords: ["interest", "dividend"]
    direction: credit
  - name: bank-charges
    priority: 20
    category: bank-charges
    keywords: ["service charge", "bank charge", "annual fee"]
    direction: debit
owner_keywords: ["payment received"]
default_category: uncategorized
`

func newInitCommand() *cobra.Command {
	var name string
	var entityType string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger repo",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, name, entityType)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "sole_trader", "entity type")

	return cmd
}

func runInit(dir, name, entityType string) error {
	// Create directory structure.
	dirs := []string{
		"accounts",
		"rules",
		"exceptions",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write clearline.yaml.
	cfg := config.Default(name, entityType)
	if err := config.Save(filepath.Join(dir, "clearline.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write chart of accounts.
	chart := accounts.DefaultChart(entityType)
	svc := accounts.NewService(chart)
	if err := svc.Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	// Write starter classification rules.
	if err := os.WriteFile(filepath.Join(dir, "rules", "classification-rules.yaml"), []byte(defaultRules), 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	// Write .gitignore.
	gitignore := "import/\n.clearline-cache/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Initialize git and create initial commit.
	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}

	hash, err := gitops.CommitAll(dir, "init: "+name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Printf("Initialized ledger repo at %s (%s)\n", dir, hash)
	return nil
}
