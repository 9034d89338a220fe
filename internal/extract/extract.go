// Package extract turns statement documents into StatementMetadata plus an
// ordered list of RawTransactions. One extractor per bank layout, registered
// in a fixed, documented order; detection is first-configured-match-wins.
// Adding a bank means registering a new Extractor, never editing an existing
// one.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clearline-dev/clearline/internal/model"
)

// Fatal extraction failures. Row-level problems are reported as
// model.Discrepancy values instead and do not abort the document.
var (
	// ErrUnrecognizedFormat means no registered extractor claimed the text.
	ErrUnrecognizedFormat = errors.New("unrecognized statement format")
	// ErrNoTransactions means the layout was recognized but zero rows
	// parsed; a silently empty statement is never accepted.
	ErrNoTransactions = errors.New("no transactions found in document")
)

// Hints carries caller-supplied metadata from the upload layer. Extracted
// values always win; hints only fill what the document itself does not
// state (e.g. the opening balance for a bare CSV).
type Hints struct {
	AccountNumber string
	Currency      string
	PeriodStart   time.Time
	PeriodEnd     time.Time

	OpeningBalance    decimal.Decimal
	HasOpeningBalance bool
	ClosingBalance    decimal.Decimal
	HasClosingBalance bool
}

// Result is one extractor's output for one document: the statement's own
// metadata, the rows in source order, and per-row parse failures.
type Result struct {
	Statement model.StatementMetadata
	Rows      []model.RawTransaction
	RowErrors []model.Discrepancy
}

// Extractor is the capability interface one bank layout implements.
type Extractor interface {
	// Name identifies the bank layout, e.g. "maybank-casa".
	Name() string
	// Detect reports whether this extractor recognizes the document text.
	Detect(text string) bool
	// Extract parses the document's text lines. It returns
	// ErrNoTransactions when the layout matched but no rows did, and
	// records unparseable rows in Result.RowErrors while continuing with
	// the rest of the document.
	Extract(lines []string, hints Hints) (Result, error)
}

// Registry holds extractors in registration order. Detection ties are broken
// by that order, so more specific layouts must be registered before more
// general ones (the card layout before the savings layout of the same bank).
type Registry struct {
	extractors []Extractor
	byName     map[string]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Extractor)}
}

// Register adds an extractor. Panics on duplicate name: a colliding
// registration is a programming error, not a runtime condition.
func (r *Registry) Register(e Extractor) {
	key := strings.ToLower(e.Name())
	if _, ok := r.byName[key]; ok {
		panic("duplicate extractor name: " + key)
	}
	r.byName[key] = e
	r.extractors = append(r.extractors, e)
}

// Get returns the extractor with the given name, for explicit overrides.
func (r *Registry) Get(name string) (Extractor, bool) {
	e, ok := r.byName[strings.ToLower(name)]
	return e, ok
}

// Detect scans registered extractors in registration order and returns the
// first whose Detect claims the text.
func (r *Registry) Detect(text string) (Extractor, bool) {
	for _, e := range r.extractors {
		if e.Detect(text) {
			return e, true
		}
	}
	return nil, false
}

// Names returns the registered extractor names in detection order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}

// DefaultRegistry returns a registry with all built-in extractors in their
// documented detection order. Card layouts precede account layouts of the
// same bank because their letterheads overlap.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&MaybankCardExtractor{})
	r.Register(&MaybankCASAExtractor{})
	r.Register(&BSNPassbookExtractor{})
	r.Register(&MetroBankExtractor{})
	return r
}

// rowError builds the standard row-level discrepancy for a line that matched
// the transaction shape but failed to normalize.
func rowError(ordinal int, line, field, value string) model.Discrepancy {
	return model.Discrepancy{
		Kind:    model.ViolationRowParse,
		Ordinal: ordinal,
		Message: fmt.Sprintf("row %d: unparseable %s %q in line %q", ordinal, field, value, strings.TrimSpace(line)),
	}
}

// applyHints fills statement fields the extractor left empty.
func applyHints(st *model.StatementMetadata, h Hints) {
	if st.AccountNumber == "" {
		st.AccountNumber = h.AccountNumber
	}
	if st.Currency == "" {
		st.Currency = h.Currency
	}
	if st.PeriodStart.IsZero() {
		st.PeriodStart = h.PeriodStart
	}
	if st.PeriodEnd.IsZero() {
		st.PeriodEnd = h.PeriodEnd
	}
	if st.OpeningBalance.IsZero() && h.HasOpeningBalance {
		st.OpeningBalance = h.OpeningBalance
	}
	if !st.HasClosingBalance && h.HasClosingBalance {
		st.ClosingBalance = h.ClosingBalance
		st.HasClosingBalance = true
	}
}
