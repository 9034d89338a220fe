package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a transaction relative to the account holder.
type Direction string

const (
	DirectionCredit Direction = "credit" // money in
	DirectionDebit  Direction = "debit"  // money out
)

// AmountSource records how a transaction's signed amount was obtained.
type AmountSource string

const (
	// AmountStated means the source document printed the amount directly.
	AmountStated AmountSource = "stated"
	// AmountInferred means the amount was derived from running-balance deltas.
	AmountInferred AmountSource = "inferred"
)

// StatementMetadata is everything a statement declares about itself.
// Immutable once extracted; one per source document.
type StatementMetadata struct {
	DocumentID    string // assigned at ingestion, not by the extractor
	Bank          string // extractor name, e.g. "maybank-casa"
	AccountNumber string // last-4 or full, per bank policy
	Currency      string

	PeriodStart time.Time
	PeriodEnd   time.Time

	OpeningBalance decimal.Decimal
	ClosingBalance decimal.Decimal
	// HasClosingBalance is false for banks that never print a closing figure.
	HasClosingBalance bool

	// DeclaredCount is the transaction count the document states about itself
	// (e.g. a "21 transactions" footer). Zero and false when absent.
	DeclaredCount    int
	HasDeclaredCount bool
}

// RawTransaction is one extracted statement row, untouched after extraction.
// At least one of the amount or the running balance must be present; a row
// with neither is a parse failure and never becomes a RawTransaction.
type RawTransaction struct {
	Ordinal     int // 1-based position within the document
	Date        time.Time
	Description string

	// Amount is the stated signed amount: credit positive, debit negative.
	Amount    decimal.Decimal
	HasAmount bool

	// Balance is the stated running balance after this transaction.
	Balance    decimal.Decimal
	HasBalance bool

	Reference string
}

// ReconciledTransaction is a RawTransaction with a definite direction and
// magnitude, either carried over from the source or inferred from balance
// deltas by the reconstructor.
type ReconciledTransaction struct {
	Ordinal     int
	Date        time.Time
	Description string

	Direction Direction
	Amount    decimal.Decimal // positive magnitude

	Balance    decimal.Decimal
	HasBalance bool

	Reference string
	Source    AmountSource
}

// Signed returns the amount with credit positive and debit negative.
func (t ReconciledTransaction) Signed() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// CounterpartyClass tags the other party of a transaction for downstream
// accounting treatment.
type CounterpartyClass string

const (
	// CounterpartyOwner marks internal/owner activity (drawings, injections,
	// payments received by the account holder).
	CounterpartyOwner CounterpartyClass = "owner"
	// CounterpartySupplier marks a debit to a known supplier.
	CounterpartySupplier CounterpartyClass = "supplier"
	// CounterpartyExternal marks everything else.
	CounterpartyExternal CounterpartyClass = "external"
)

// ClassifiedTransaction is a ReconciledTransaction plus its category and
// counterparty classification.
type ClassifiedTransaction struct {
	ReconciledTransaction

	Category     string
	Counterparty CounterpartyClass
	// MatchedRule is the name of the rule that matched, empty for defaults.
	MatchedRule string

	Confidence decimal.Decimal
	// LowConfidence marks classifications that relied on direction heuristics
	// rather than an explicit rule match. These post as pending-review.
	LowConfidence bool
}
