package classify

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clearline-dev/clearline/internal/model"
)

// Match confidence tiers. Explicit rule matches are trusted; the fallback
// category and heuristic counterparty defaults are flagged low-confidence so
// they post as pending-review instead of auto-confirmed.
var (
	confidenceRule    = decimal.RequireFromString("0.95")
	confidenceDefault = decimal.RequireFromString("0.60")
)

// Classify applies the rule set to one reconciled transaction. It is a pure
// function of the description, the direction, and the snapshot: same inputs,
// same answer, no external calls.
func (rs *RuleSet) Classify(tx model.ReconciledTransaction) model.ClassifiedTransaction {
	out := model.ClassifiedTransaction{ReconciledTransaction: tx}
	desc := strings.ToLower(tx.Description)

	rule, matched := rs.matchRule(desc, tx.Direction)
	if matched {
		out.Category = rule.Category
		out.MatchedRule = rule.Name
		out.Confidence = confidenceRule
	} else {
		out.Category = rs.defaultCategory
		out.Confidence = confidenceDefault
		out.LowConfidence = true
	}

	out.Counterparty = rs.classifyCounterparty(desc, tx.Direction)
	return out
}

// matchRule evaluates rules in priority order; the first match wins. A rule
// matches when its direction allows the transaction and either any keyword
// is contained in the description (case-insensitive) or its pattern matches.
func (rs *RuleSet) matchRule(desc string, dir model.Direction) (Rule, bool) {
	for _, rule := range rs.rules {
		if rule.Direction != "" && rule.Direction != dir {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return rule, true
			}
		}
		if rule.Pattern != nil && rule.Pattern.MatchString(desc) {
			return rule, true
		}
	}
	return Rule{}, false
}

// classifyCounterparty applies the documented debit/credit asymmetry:
//
//   - debits are matched against the known-counterparty list; a hit is a
//     supplier payment, anything else defaults to owner/internal activity
//     (drawings, transfers to self);
//   - credits are matched against the owner keywords; a hit is the owner's
//     own money coming in, anything else is external.
//
// The asymmetry is deliberate: an unrecognized debit on an owner-operated
// account is far more likely a drawing than an unknown supplier, while an
// unrecognized credit is far more likely third-party income.
func (rs *RuleSet) classifyCounterparty(desc string, dir model.Direction) model.CounterpartyClass {
	if dir == model.DirectionDebit {
		if _, ok := rs.matchCounterparty(desc); ok {
			return model.CounterpartySupplier
		}
		return model.CounterpartyOwner
	}

	for _, kw := range rs.ownerKeywords {
		if kw != "" && strings.Contains(desc, kw) {
			return model.CounterpartyOwner
		}
	}
	return model.CounterpartyExternal
}

// matchCounterparty returns the first known counterparty whose keywords
// appear in the description, in declaration order.
func (rs *RuleSet) matchCounterparty(desc string) (Counterparty, bool) {
	for _, cp := range rs.counterparties {
		for _, kw := range cp.Keywords {
			if strings.Contains(desc, kw) {
				return cp, true
			}
		}
	}
	return Counterparty{}, false
}
