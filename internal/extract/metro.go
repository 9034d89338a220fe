package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clearline-dev/clearline/internal/model"
	"github.com/clearline-dev/clearline/internal/normalize"
)

// MetroBankExtractor parses Metro Bank (UK) current account statements.
//
// The paid-out and paid-in columns collapse into a single figure once the
// PDF is flattened to text, so each row reads as one unsigned amount plus
// the running balance:
//
//	03/01/2025 CARD PAYMENT TESCO STORES 25.99 1,974.01
//	    LONDON GB
//	10/01/2025 FASTER PAYMENT RECEIVED 500.00 2,474.01
//
// The direction comes from the running-balance movement, not from keyword
// guessing: a row whose balance rose is a credit, one whose balance fell is
// a debit. The printed amount is kept as the magnitude, so any disagreement
// between the printed amount and the balance movement surfaces later as a
// chain break instead of being silently patched. Undated continuation lines
// extend the previous description; the footer declares the row count.
type MetroBankExtractor struct{}

const metroDateFormat = "02/01/2006"

var (
	metroTxn = regexp.MustCompile(
		`^(\d{2}/\d{2}/\d{4})\s+(.+?)\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s*$`)

	metroOpening = regexp.MustCompile(`(?i)^Opening balance\s+([\d,]+\.\d{2})\s*$`)
	metroClosing = regexp.MustCompile(`(?i)^Closing balance\s+([\d,]+\.\d{2})\s*$`)
	metroAccount = regexp.MustCompile(`(?i)^Account number:\s*(\d+)`)
	metroPeriod  = regexp.MustCompile(`(?i)^Statement period:\s*(\d{2}/\d{2}/\d{4})\s+to\s+(\d{2}/\d{2}/\d{4})\s*$`)
	metroCount   = regexp.MustCompile(`(?i)^(\d+)\s+transactions in this period\s*$`)
)

func (e *MetroBankExtractor) Name() string { return "metro-uk" }

func (e *MetroBankExtractor) Detect(text string) bool {
	return strings.Contains(strings.ToUpper(text), "METRO BANK")
}

func (e *MetroBankExtractor) Extract(lines []string, hints Hints) (Result, error) {
	res := Result{
		Statement: model.StatementMetadata{Bank: e.Name(), Currency: "GBP"},
	}

	sawOpening := false
	prev := res.Statement.OpeningBalance

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if m := metroOpening.FindStringSubmatch(trimmed); m != nil {
			if a, ok := normalize.Amount(m[1]); ok {
				res.Statement.OpeningBalance = a
				prev = a
				sawOpening = true
			}
			continue
		}
		if m := metroClosing.FindStringSubmatch(trimmed); m != nil {
			if a, ok := normalize.Amount(m[1]); ok {
				res.Statement.ClosingBalance = a
				res.Statement.HasClosingBalance = true
			}
			continue
		}
		if m := metroAccount.FindStringSubmatch(trimmed); m != nil {
			res.Statement.AccountNumber = m[1]
			continue
		}
		if m := metroPeriod.FindStringSubmatch(trimmed); m != nil {
			if d, ok := normalize.Date(m[1], []string{metroDateFormat}); ok {
				res.Statement.PeriodStart = d
			}
			if d, ok := normalize.Date(m[2], []string{metroDateFormat}); ok {
				res.Statement.PeriodEnd = d
			}
			continue
		}
		if m := metroCount.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				res.Statement.DeclaredCount = n
				res.Statement.HasDeclaredCount = true
			}
			continue
		}

		if m := metroTxn.FindStringSubmatch(trimmed); m != nil {
			ordinal := len(res.Rows) + len(res.RowErrors) + 1

			date, ok := normalize.Date(m[1], []string{metroDateFormat})
			if !ok {
				res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "date", m[1]))
				continue
			}
			amount, ok := normalize.Amount(m[3])
			if !ok {
				res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "amount", m[3]))
				continue
			}
			balance, ok := normalize.Amount(m[4])
			if !ok {
				res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "balance", m[4]))
				continue
			}

			delta := balance.Sub(prev)
			if !sawOpening && len(res.Rows) == 0 && len(res.RowErrors) == 0 {
				// No opening line before the first row: direction cannot be
				// anchored. Reported once, then the chain continues from the
				// stated balance.
				d := rowError(ordinal, line, "direction", m[3])
				d.Message = fmt.Sprintf("row %d: no opening balance before first transaction, direction unknown", ordinal)
				res.RowErrors = append(res.RowErrors, d)
				prev = balance
				continue
			}
			if delta.IsZero() {
				d := model.Discrepancy{
					Kind:    model.ViolationZeroDelta,
					Ordinal: ordinal,
					Message: fmt.Sprintf("row %d %q: printed amount %s but balance unchanged", ordinal, normalize.Description(m[2]), amount.StringFixed(2)),
					Actual:  balance,
				}
				res.RowErrors = append(res.RowErrors, d)
				prev = balance
				continue
			}
			if delta.IsNegative() {
				amount = amount.Neg()
			}
			prev = balance

			res.Rows = append(res.Rows, model.RawTransaction{
				Ordinal:     ordinal,
				Date:        date,
				Description: normalize.Description(m[2]),
				Amount:      amount,
				HasAmount:   true,
				Balance:     balance,
				HasBalance:  true,
			})
			continue
		}

		// Continuation lines extend the previous description.
		if len(res.Rows) > 0 && trimmed != "" && !metroSummary(trimmed) {
			last := &res.Rows[len(res.Rows)-1]
			last.Description = normalize.Description(last.Description + " " + trimmed)
		}
	}

	if len(res.Rows) == 0 {
		return Result{}, ErrNoTransactions
	}

	if res.Statement.PeriodStart.IsZero() {
		res.Statement.PeriodStart = res.Rows[0].Date
	}
	if res.Statement.PeriodEnd.IsZero() {
		res.Statement.PeriodEnd = res.Rows[len(res.Rows)-1].Date
	}
	applyHints(&res.Statement, hints)
	return res, nil
}

func metroSummary(line string) bool {
	upper := strings.ToUpper(line)
	for _, kw := range []string{"OPENING BALANCE", "CLOSING BALANCE", "STATEMENT PERIOD", "PAGE ", "CONTINUED", "METRO BANK"} {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return false
}
