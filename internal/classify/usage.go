package classify

import (
	"sync"
	"time"
)

// RuleStats is the bookkeeping kept per rule: how often it matched and when
// it last did. Observability only; losing it never blocks a posting.
type RuleStats struct {
	Matches     int
	LastMatched time.Time
}

// Usage tracks rule match counters. Safe for concurrent use.
type Usage struct {
	mu    sync.Mutex
	stats map[string]RuleStats
}

// NewUsage creates an empty usage tracker.
func NewUsage() *Usage {
	return &Usage{stats: make(map[string]RuleStats)}
}

// Record notes one match for a rule. Empty rule names (default
// classifications) are ignored.
func (u *Usage) Record(ruleName string, at time.Time) {
	if ruleName == "" {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	s := u.stats[ruleName]
	s.Matches++
	if at.After(s.LastMatched) {
		s.LastMatched = at
	}
	u.stats[ruleName] = s
}

// Snapshot returns a copy of the current counters.
func (u *Usage) Snapshot() map[string]RuleStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string]RuleStats, len(u.stats))
	for k, v := range u.stats {
		out[k] = v
	}
	return out
}
