// Package verify decides whether a statement's transaction stream proves
// its own arithmetic: opening balance plus credits minus debits must equal
// the declared closing balance, and stated running balances must chain.
//
// A statement is pending once extraction completes and transitions exactly
// once to one of verified, count_mismatch, balance_mismatch, or partial.
// The verifier never invents, drops, or adjusts a transaction to force a
// balance; every failure produces discrepancies precise enough to act on.
package verify

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clearline-dev/clearline/internal/model"
)

// DefaultTolerance is the absolute currency tolerance for balance checks.
var DefaultTolerance = decimal.RequireFromString("0.01")

// Verifier checks statement-level consistency.
type Verifier struct {
	tolerance decimal.Decimal
}

// New creates a Verifier. A zero tolerance demands exact matching; callers
// wanting the standard tolerance pass DefaultTolerance.
func New(tolerance decimal.Decimal) *Verifier {
	return &Verifier{tolerance: tolerance}
}

// Input is everything the verifier needs for one statement: the extracted
// metadata, the reconciled transactions in source order, and the row-level
// discrepancies raised during extraction and reconstruction.
type Input struct {
	Statement    model.StatementMetadata
	Transactions []model.ReconciledTransaction
	RowErrors    []model.Discrepancy
}

// Verify runs the transition rules in fixed order: declared-count check,
// then aggregate closure, then per-row balance chaining. Count and balance
// mismatches are hard stops. Row errors or chain breaks on an otherwise
// closing statement yield partial: the whole statement is held back and
// nothing posts.
func (v *Verifier) Verify(in Input) model.ReconciliationResult {
	res := model.ReconciliationResult{
		DocumentID:   in.Statement.DocumentID,
		Statement:    in.Statement,
		Verdict:      model.VerdictPending,
		Transactions: in.Transactions,
	}

	// Count check against what the document declares about itself. A
	// zero-delta row extracted fully but could not be signed: it still counts
	// as extracted here, and holds the statement as partial further down.
	extracted := len(in.Transactions)
	for _, d := range in.RowErrors {
		if d.Kind == model.ViolationZeroDelta {
			extracted++
		}
	}
	if in.Statement.HasDeclaredCount && in.Statement.DeclaredCount != extracted {
		res.Verdict = model.VerdictCountMismatch
		res.Discrepancies = append(res.Discrepancies, model.Discrepancy{
			Kind: model.ViolationCountMismatch,
			Message: fmt.Sprintf("statement declares %d transactions, extracted %d",
				in.Statement.DeclaredCount, extracted),
			Expected: decimal.NewFromInt(int64(in.Statement.DeclaredCount)),
			Actual:   decimal.NewFromInt(int64(extracted)),
		})
		res.Discrepancies = append(res.Discrepancies, in.RowErrors...)
		return res
	}

	// Aggregate closure: opening + credits - debits vs declared closing.
	expected := in.Statement.OpeningBalance
	for _, tx := range in.Transactions {
		expected = expected.Add(tx.Signed())
	}
	res.ExpectedClosing = expected

	if in.Statement.HasClosingBalance {
		diff := expected.Sub(in.Statement.ClosingBalance).Abs()
		if diff.GreaterThan(v.tolerance) {
			res.Verdict = model.VerdictBalanceMismatch
			res.Discrepancies = append(res.Discrepancies, model.Discrepancy{
				Kind: model.ViolationBalanceMismatch,
				Message: fmt.Sprintf("computed closing %s does not match declared %s",
					expected.StringFixed(2), in.Statement.ClosingBalance.StringFixed(2)),
				Expected: expected,
				Actual:   in.Statement.ClosingBalance,
			})
			res.Discrepancies = append(res.Discrepancies, in.RowErrors...)
			return res
		}
	}

	// Per-row chaining for rows that state a running balance.
	chainBreaks := v.checkChain(in.Statement.OpeningBalance, in.Transactions)

	if len(in.RowErrors) == 0 && len(chainBreaks) == 0 {
		res.Verdict = model.VerdictVerified
		return res
	}

	// The aggregate closes but individual rows are unresolved: hold the
	// whole statement back, post nothing.
	res.Verdict = model.VerdictPartial
	res.Discrepancies = append(res.Discrepancies, in.RowErrors...)
	res.Discrepancies = append(res.Discrepancies, chainBreaks...)
	return res
}

// checkChain verifies that each stated running balance equals its
// predecessor plus the row's signed amount, within tolerance. Rows without
// a stated balance advance the expected chain without being checked.
func (v *Verifier) checkChain(opening decimal.Decimal, txs []model.ReconciledTransaction) []model.Discrepancy {
	var breaks []model.Discrepancy
	prev := opening
	for _, tx := range txs {
		want := prev.Add(tx.Signed())
		if tx.HasBalance {
			if want.Sub(tx.Balance).Abs().GreaterThan(v.tolerance) {
				breaks = append(breaks, model.Discrepancy{
					Kind:    model.ViolationChainBreak,
					Ordinal: tx.Ordinal,
					Message: fmt.Sprintf("row %d %q: running balance %s does not follow from %s",
						tx.Ordinal, tx.Description, tx.Balance.StringFixed(2), prev.StringFixed(2)),
					Expected: want,
					Actual:   tx.Balance,
				})
			}
			// Resume the chain from the stated balance so one break does
			// not cascade into a break on every following row.
			prev = tx.Balance
			continue
		}
		prev = want
	}
	return breaks
}
