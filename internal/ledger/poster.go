package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clearline-dev/clearline/internal/id"
	"github.com/clearline-dev/clearline/internal/model"
)

var (
	// ErrNotVerified is returned when a statement whose verdict is anything
	// other than verified is offered for posting.
	ErrNotVerified = errors.New("statement is not verified")

	// ErrAlreadyPosted is returned when the source document already has legs
	// in the ledger. Callers treat it as a no-op, not a failure.
	ErrAlreadyPosted = errors.New("source document already posted")
)

// AccountResolutionError reports a transaction whose debit or credit side
// could not be mapped to an existing, active ledger account.
type AccountResolutionError struct {
	Ordinal int
	Side    string // "bank" or "category"
	Key     string // the lookup key that failed
	Reason  string
}

func (e AccountResolutionError) Error() string {
	return fmt.Sprintf("resolving %s account for row %d (%q): %s", e.Side, e.Ordinal, e.Key, e.Reason)
}

// Discrepancy converts the error into the exception-queue shape.
func (e AccountResolutionError) Discrepancy() model.Discrepancy {
	return model.Discrepancy{
		Kind:    model.ViolationAccountResolution,
		Ordinal: e.Ordinal,
		Message: e.Error(),
	}
}

// AccountMapping resolves statement-side identifiers to chart-of-accounts IDs.
// BankAccounts is keyed by the statement's account number (or last-4 for card
// statements). Categories maps classification categories to the non-bank side
// of each entry; a category absent from the map falls back to OwnerEquity only
// when the counterparty classification is owner.
type AccountMapping struct {
	BankAccounts map[string]int
	Categories   map[string]int
	OwnerEquity  int
}

// AccountResolver is the chart-of-accounts lookup the Poster needs.
type AccountResolver interface {
	Get(id int) (model.Account, bool)
	Exists(id int) bool
}

// UsageRecorder receives rule-match bookkeeping after a successful post.
type UsageRecorder interface {
	Record(ruleName string, at time.Time)
}

// Poster turns a verified statement's classified transactions into balanced
// journal entries. One statement posts atomically: every transaction resolves
// and validates, or nothing is written.
type Poster struct {
	store    *Store
	accounts AccountResolver
	mapping  AccountMapping
	usage    UsageRecorder

	// AutoConfirmThreshold is the minimum confidence for auto-confirmed
	// status; anything below (or flagged low-confidence) posts pending-review.
	AutoConfirmThreshold decimal.Decimal
}

// NewPoster creates a Poster. usage may be nil.
func NewPoster(store *Store, accounts AccountResolver, mapping AccountMapping, usage UsageRecorder) *Poster {
	return &Poster{
		store:                store,
		accounts:             accounts,
		mapping:              mapping,
		usage:                usage,
		AutoConfirmThreshold: decimal.RequireFromString("0.90"),
	}
}

// PostStatement posts all of a verified statement's transactions and returns
// the created entry IDs in source ordinal order.
//
// Returns ErrNotVerified for any other verdict, ErrAlreadyPosted when the
// document's legs already exist (idempotent re-ingestion), and an
// AccountResolutionError (wrapped) when any transaction's accounts cannot be
// resolved — in which case no entry is written at all.
func (p *Poster) PostStatement(res model.ReconciliationResult, txs []model.ClassifiedTransaction) ([]string, error) {
	if res.Verdict != model.VerdictVerified {
		return nil, fmt.Errorf("%w: verdict is %s", ErrNotVerified, res.Verdict)
	}

	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	posted, err := p.store.HasDocument(res.DocumentID)
	if err != nil {
		return nil, err
	}
	if posted {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPosted, res.DocumentID)
	}

	// Resolve every transaction before writing anything.
	type staged struct {
		tx        model.ClassifiedTransaction
		bankAcct  int
		otherAcct int
	}
	plan := make([]staged, 0, len(txs))
	for _, tx := range txs {
		bankAcct, otherAcct, err := p.resolve(res.Statement, tx)
		if err != nil {
			return nil, err
		}
		plan = append(plan, staged{tx: tx, bankAcct: bankAcct, otherAcct: otherAcct})
	}

	// Build legs month by month so sequence numbers stay per-month contiguous.
	type monthKey struct{ year, month int }
	batches := make(map[monthKey][]model.Leg)
	existing := make(map[monthKey][]model.Leg)
	nextSeq := make(map[monthKey]int)
	var keys []monthKey
	var entryIDs []string

	for _, st := range plan {
		k := monthKey{st.tx.Date.Year(), int(st.tx.Date.Month())}
		if _, seen := nextSeq[k]; !seen {
			legs, err := p.store.ReadMonth(k.year, k.month)
			if err != nil {
				return nil, err
			}
			existing[k] = legs
			nextSeq[k] = maxSeq(legs) + 1
			keys = append(keys, k)
		}

		entryID := id.FormatEntryID(k.year, k.month, nextSeq[k])
		nextSeq[k]++
		entryIDs = append(entryIDs, entryID)
		batches[k] = append(batches[k], p.legs(entryID, res.Statement, st.tx, st.bankAcct, st.otherAcct)...)
	}

	// Validate each touched month with its new legs included.
	for _, k := range keys {
		all := append(append([]model.Leg{}, existing[k]...), batches[k]...)
		if verrs := ValidateLegs(all, p.accounts, k.year, k.month); len(verrs) > 0 {
			msgs := make([]string, len(verrs))
			for i, ve := range verrs {
				msgs[i] = ve.Error()
			}
			return nil, fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	for _, k := range keys {
		if err := p.store.appendMonth(k.year, k.month, batches[k]); err != nil {
			return nil, err
		}
	}

	// Rule usage is observability only; it never blocks or fails a post.
	if p.usage != nil {
		now := time.Now()
		for _, st := range plan {
			p.usage.Record(st.tx.MatchedRule, now)
		}
	}

	return entryIDs, nil
}

// resolve maps a transaction to its bank-side and category-side account IDs,
// requiring both to exist and be active.
func (p *Poster) resolve(st model.StatementMetadata, tx model.ClassifiedTransaction) (bankAcct, otherAcct int, err error) {
	bankAcct, ok := p.mapping.BankAccounts[st.AccountNumber]
	if !ok {
		return 0, 0, AccountResolutionError{
			Ordinal: tx.Ordinal, Side: "bank", Key: st.AccountNumber,
			Reason: "no ledger account mapped for this bank account",
		}
	}
	if err := p.checkAccount(bankAcct); err != nil {
		return 0, 0, AccountResolutionError{
			Ordinal: tx.Ordinal, Side: "bank", Key: st.AccountNumber, Reason: err.Error(),
		}
	}

	otherAcct, ok = p.mapping.Categories[tx.Category]
	if !ok {
		if tx.Counterparty == model.CounterpartyOwner && p.mapping.OwnerEquity != 0 {
			otherAcct = p.mapping.OwnerEquity
		} else {
			return 0, 0, AccountResolutionError{
				Ordinal: tx.Ordinal, Side: "category", Key: tx.Category,
				Reason: "no ledger account mapped for this category",
			}
		}
	}
	if err := p.checkAccount(otherAcct); err != nil {
		return 0, 0, AccountResolutionError{
			Ordinal: tx.Ordinal, Side: "category", Key: tx.Category, Reason: err.Error(),
		}
	}

	return bankAcct, otherAcct, nil
}

func (p *Poster) checkAccount(acctID int) error {
	acct, ok := p.accounts.Get(acctID)
	if !ok {
		return fmt.Errorf("account %d does not exist", acctID)
	}
	if !acct.Active {
		return fmt.Errorf("account %d (%s) is inactive", acctID, acct.Name)
	}
	return nil
}

// legs builds the balanced debit/credit pair for one transaction. Money in
// debits the bank account and credits the category side; money out is the
// mirror image. Amounts are stored as positive magnitudes on exactly one side.
func (p *Poster) legs(entryID string, st model.StatementMetadata, tx model.ClassifiedTransaction, bankAcct, otherAcct int) []model.Leg {
	amount := tx.Amount.Abs()

	debitAcct, creditAcct := otherAcct, bankAcct
	if tx.Direction == model.DirectionCredit {
		debitAcct, creditAcct = bankAcct, otherAcct
	}

	status := model.StatusAutoConfirmed
	if tx.LowConfidence || tx.Confidence.LessThan(p.AutoConfirmThreshold) {
		status = model.StatusPendingReview
	}

	base := model.Leg{
		Date:           tx.Date,
		Description:    tx.Description,
		Counterparty:   string(tx.Counterparty),
		Reference:      tx.Reference,
		SourceDocument: st.DocumentID,
		SourceOrdinal:  tx.Ordinal,
		Confidence:     tx.Confidence,
		Status:         status,
		Category:       tx.Category,
	}

	debit := base
	debit.EntryID = id.FormatLegID(entryID, 0)
	debit.AccountID = debitAcct
	debit.Debit = amount

	credit := base
	credit.EntryID = id.FormatLegID(entryID, 1)
	credit.AccountID = creditAcct
	credit.Credit = amount

	return []model.Leg{debit, credit}
}

func maxSeq(legs []model.Leg) int {
	max := 0
	for _, leg := range legs {
		_, _, seq, err := id.ParseEntryID(leg.EntryID)
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max
}
