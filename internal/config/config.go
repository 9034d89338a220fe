package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level clearline.yaml configuration.
type Config struct {
	Business     BusinessConfig  `yaml:"business"`
	BankAccounts []BankAccount   `yaml:"bank_accounts,omitempty"`
	Categories   map[string]int  `yaml:"categories,omitempty"`
	Reconcile    ReconcileConfig `yaml:"reconcile"`
	Git          GitConfig       `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// BankAccount maps a statement's account identifier to a chart-of-accounts
// entry. Number holds whatever the bank prints: a full account number for
// CASA/passbook statements, the last four digits for card statements.
type BankAccount struct {
	Name      string `yaml:"name"`
	Bank      string `yaml:"bank"` // extractor name, e.g. "maybank-casa"
	Number    string `yaml:"number"`
	AccountID int    `yaml:"account_id"`
}

// ReconcileConfig controls verification and posting behavior.
type ReconcileConfig struct {
	// Tolerance is the absolute closure tolerance in currency units. A nil
	// pointer means unset (callers apply the standard 0.01); an explicit 0
	// requests exact matching.
	Tolerance *float64 `yaml:"tolerance,omitempty"`
	// AutoConfirm is the minimum classification confidence for entries to
	// post auto-confirmed; below it they post pending-review.
	AutoConfirm float64 `yaml:"auto_confirm"`
	// OwnerEquityAccount receives uncategorized owner/internal activity.
	OwnerEquityAccount int `yaml:"owner_equity_account"`
	// Workers caps concurrent document pipelines; 0 means one per CPU.
	Workers int `yaml:"workers"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a clearline.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger repo.
func Default(businessName, entityType string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Categories: map[string]int{
			"client-income":         4010,
			"interest-income":       4020,
			"rent":                  5010,
			"software":              5020,
			"office-supplies":       5030,
			"professional-services": 5040,
			"bank-charges":          5050,
			"utilities":             5060,
		},
		Reconcile: ReconcileConfig{
			Tolerance:          Float(0.01),
			AutoConfirm:        0.90,
			OwnerEquityAccount: 3010,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "clearline",
			AuthorEmail: "ledger@clearline.dev",
		},
	}
}

// Float returns a pointer to v, for optional numeric config fields.
func Float(v float64) *float64 {
	return &v
}

// BankAccountID resolves a statement account number to a ledger account ID.
func (c *Config) BankAccountID(number string) (int, bool) {
	for _, ba := range c.BankAccounts {
		if ba.Number == number {
			return ba.AccountID, true
		}
	}
	return 0, false
}
