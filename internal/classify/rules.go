// Package classify tags transactions with a category and a counterparty
// classification using a priority-ordered rule set loaded from YAML.
//
// A RuleSet is an immutable snapshot: refreshing rules means loading a new
// snapshot, never mutating one in place, so concurrent pipelines can hold a
// set safely. All rule problems (bad regex, duplicate priority) are rejected
// at load time, never at match time.
package classify

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clearline-dev/clearline/internal/model"
)

// ruleConfig is the YAML shape of one classification rule.
type ruleConfig struct {
	Name      string   `yaml:"name"`
	Priority  int      `yaml:"priority"`
	Category  string   `yaml:"category"`
	Keywords  []string `yaml:"keywords,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Direction string   `yaml:"direction,omitempty"` // "", "debit" or "credit"
}

// rulesConfig is the YAML shape of rules/classification-rules.yaml.
type rulesConfig struct {
	Rules []ruleConfig `yaml:"rules"`
	// Counterparties maps a known counterparty name to the keywords that
	// identify it in a description.
	Counterparties []counterpartyConfig `yaml:"counterparties,omitempty"`
	// OwnerKeywords identify the account holder's own activity on the
	// credit side (e.g. "payment received", the owner's name).
	OwnerKeywords   []string `yaml:"owner_keywords,omitempty"`
	DefaultCategory string   `yaml:"default_category,omitempty"`
}

type counterpartyConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Rule is one compiled classification rule.
type Rule struct {
	Name      string
	Priority  int // lower = evaluated first
	Category  string
	Keywords  []string // lowercased, matched by containment
	Pattern   *regexp.Regexp
	Direction model.Direction // empty = both directions
}

// Counterparty is a compiled known-counterparty matcher.
type Counterparty struct {
	Name     string
	Keywords []string // lowercased
}

// RuleSet is an immutable compiled snapshot of the classification rules.
type RuleSet struct {
	rules           []Rule // sorted by priority ascending
	counterparties  []Counterparty
	ownerKeywords   []string
	defaultCategory string
}

// DefaultCategory is used when no rule matches and the config names none.
const DefaultCategory = "uncategorized"

// Load reads and compiles a rule set from a YAML file.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rs, nil
}

// Parse compiles a rule set from YAML bytes. Every structural problem is an
// error here so that matching can never fail per-transaction.
func Parse(data []byte) (*RuleSet, error) {
	var cfg rulesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing rules YAML: %w", err)
	}

	rs := &RuleSet{defaultCategory: cfg.DefaultCategory}
	if rs.defaultCategory == "" {
		rs.defaultCategory = DefaultCategory
	}

	names := make(map[string]bool)
	priorities := make(map[int]string)

	for i, rc := range cfg.Rules {
		if rc.Name == "" {
			return nil, fmt.Errorf("rule %d: missing name", i+1)
		}
		if names[rc.Name] {
			return nil, fmt.Errorf("rule %q: duplicate name", rc.Name)
		}
		names[rc.Name] = true

		if other, taken := priorities[rc.Priority]; taken {
			return nil, fmt.Errorf("rule %q: priority %d already used by %q", rc.Name, rc.Priority, other)
		}
		priorities[rc.Priority] = rc.Name

		if rc.Category == "" {
			return nil, fmt.Errorf("rule %q: missing category", rc.Name)
		}
		if len(rc.Keywords) == 0 && rc.Pattern == "" {
			return nil, fmt.Errorf("rule %q: needs keywords or a pattern", rc.Name)
		}

		rule := Rule{
			Name:     rc.Name,
			Priority: rc.Priority,
			Category: rc.Category,
		}

		switch rc.Direction {
		case "":
		case string(model.DirectionDebit):
			rule.Direction = model.DirectionDebit
		case string(model.DirectionCredit):
			rule.Direction = model.DirectionCredit
		default:
			return nil, fmt.Errorf("rule %q: unknown direction %q", rc.Name, rc.Direction)
		}

		for _, kw := range rc.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, fmt.Errorf("rule %q: empty keyword", rc.Name)
			}
			rule.Keywords = append(rule.Keywords, kw)
		}

		if rc.Pattern != "" {
			re, err := regexp.Compile(rc.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %q: invalid pattern: %w", rc.Name, err)
			}
			rule.Pattern = re
		}

		rs.rules = append(rs.rules, rule)
	}

	sort.Slice(rs.rules, func(i, j int) bool {
		return rs.rules[i].Priority < rs.rules[j].Priority
	})

	for i, cc := range cfg.Counterparties {
		if cc.Name == "" {
			return nil, fmt.Errorf("counterparty %d: missing name", i+1)
		}
		if len(cc.Keywords) == 0 {
			return nil, fmt.Errorf("counterparty %q: needs keywords", cc.Name)
		}
		cp := Counterparty{Name: cc.Name}
		for _, kw := range cc.Keywords {
			cp.Keywords = append(cp.Keywords, strings.ToLower(strings.TrimSpace(kw)))
		}
		rs.counterparties = append(rs.counterparties, cp)
	}

	for _, kw := range cfg.OwnerKeywords {
		rs.ownerKeywords = append(rs.ownerKeywords, strings.ToLower(strings.TrimSpace(kw)))
	}

	return rs, nil
}

// Rules returns the compiled rules in evaluation order.
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}
