package model

import (
	"github.com/shopspring/decimal"
)

// Verdict is the terminal state of a statement's reconciliation.
// A statement enters VerdictPending when extraction completes and transitions
// exactly once; re-evaluation requires re-ingesting new source bytes.
type Verdict string

const (
	VerdictPending         Verdict = "pending"
	VerdictVerified        Verdict = "verified"
	VerdictCountMismatch   Verdict = "count_mismatch"
	VerdictBalanceMismatch Verdict = "balance_mismatch"
	VerdictPartial         Verdict = "partial"
)

// Terminal reports whether the verdict is a final state.
func (v Verdict) Terminal() bool {
	return v != VerdictPending && v != ""
}

// ViolationKind identifies the failure taxonomy for discrepancies and
// exception records.
type ViolationKind string

const (
	ViolationExtractionFailure ViolationKind = "extraction_failure"
	ViolationRowParse          ViolationKind = "row_parse_error"
	ViolationCountMismatch     ViolationKind = "count_mismatch"
	ViolationBalanceMismatch   ViolationKind = "balance_mismatch"
	ViolationChainBreak        ViolationKind = "chain_break"
	ViolationZeroDelta         ViolationKind = "zero_delta"
	ViolationAccountResolution ViolationKind = "account_resolution"
)

// Discrepancy describes one reason a statement failed verification, with
// enough context for an operator to inspect the original document.
type Discrepancy struct {
	Kind    ViolationKind
	Ordinal int // 1-based row, 0 = statement-level
	Message string

	// Expected/Actual carry the computed vs declared values for arithmetic
	// violations; both zero for kinds where they do not apply.
	Expected decimal.Decimal
	Actual   decimal.Decimal
}

// ReconciliationResult is the per-statement verdict plus the transactions
// that passed and the discrepancies for those that did not. Produced exactly
// once per ingestion attempt; byte-identical input yields an identical result.
type ReconciliationResult struct {
	DocumentID string
	Statement  StatementMetadata
	Verdict    Verdict

	Transactions  []ReconciledTransaction
	Discrepancies []Discrepancy

	// ExpectedClosing is opening + credits - debits over the extracted rows,
	// recorded even on mismatch so the discrepancy is inspectable.
	ExpectedClosing decimal.Decimal
}
