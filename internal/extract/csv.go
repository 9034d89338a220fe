package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clearline-dev/clearline/internal/model"
	"github.com/clearline-dev/clearline/internal/normalize"
)

// CSVName is the bank identifier for the generic tabular layout.
const CSVName = "generic-csv"

// Column aliases, compared lowercased and trimmed. Withdrawal/Deposit are
// recognized synonyms for Debit/Credit.
var (
	csvDateAliases    = []string{"date", "transaction date", "txn date", "value date"}
	csvDescAliases    = []string{"description", "details", "narrative", "transaction details"}
	csvDebitAliases   = []string{"debit", "withdrawal", "money out", "paid out"}
	csvCreditAliases  = []string{"credit", "deposit", "money in", "paid in"}
	csvAmountAliases  = []string{"amount"}
	csvBalanceAliases = []string{"balance", "running balance", "statement balance"}
	csvRefAliases     = []string{"reference", "ref", "cheque no"}
)

// csvColumns maps the header row to field positions. -1 = absent.
type csvColumns struct {
	date, desc, debit, credit, amount, balance, ref int
}

// ParseCSV extracts a generic tabular statement with columns
// Date, Description, Debit, Credit, Balance, Reference (aliases accepted).
// A single signed Amount column may replace the Debit/Credit pair. Opening
// and closing balances come from the caller's hints; bare CSVs do not
// declare them.
func ParseCSV(r io.Reader, hints Hints) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged trailing columns happen in the wild
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("reading statement CSV: %w", err)
	}
	if len(records) == 0 {
		return Result{}, ErrNoTransactions
	}

	cols, err := mapCSVHeader(records[0])
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Statement: model.StatementMetadata{Bank: CSVName},
	}

	for i, rec := range records[1:] {
		ordinal := i + 1
		row, derr := parseCSVRow(rec, cols, ordinal)
		if derr != nil {
			res.RowErrors = append(res.RowErrors, *derr)
			continue
		}
		res.Rows = append(res.Rows, row)
	}

	if len(res.Rows) == 0 {
		return Result{}, ErrNoTransactions
	}

	// Period defaults to the span of the parsed rows.
	res.Statement.PeriodStart = res.Rows[0].Date
	res.Statement.PeriodEnd = res.Rows[len(res.Rows)-1].Date
	applyHints(&res.Statement, hints)
	return res, nil
}

// mapCSVHeader resolves column positions from the header row. Date,
// description, and either an amount column or a debit/credit pair are
// required; anything else is optional.
func mapCSVHeader(header []string) (csvColumns, error) {
	cols := csvColumns{date: -1, desc: -1, debit: -1, credit: -1, amount: -1, balance: -1, ref: -1}

	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case matchAlias(name, csvDateAliases):
			cols.date = i
		case matchAlias(name, csvDescAliases):
			cols.desc = i
		case matchAlias(name, csvDebitAliases):
			cols.debit = i
		case matchAlias(name, csvCreditAliases):
			cols.credit = i
		case matchAlias(name, csvAmountAliases):
			cols.amount = i
		case matchAlias(name, csvBalanceAliases):
			cols.balance = i
		case matchAlias(name, csvRefAliases):
			cols.ref = i
		}
	}

	if cols.date < 0 || cols.desc < 0 {
		return cols, fmt.Errorf("%w: header %v lacks date/description columns", ErrUnrecognizedFormat, header)
	}
	if cols.amount < 0 && cols.debit < 0 && cols.credit < 0 {
		return cols, fmt.Errorf("%w: header %v lacks amount columns", ErrUnrecognizedFormat, header)
	}
	return cols, nil
}

func matchAlias(name string, aliases []string) bool {
	for _, a := range aliases {
		if name == a {
			return true
		}
	}
	return false
}

// parseCSVRow converts one data row. Returns a discrepancy (not an error)
// for rows that fail to normalize so extraction continues.
func parseCSVRow(rec []string, cols csvColumns, ordinal int) (model.RawTransaction, *model.Discrepancy) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	line := strings.Join(rec, ",")

	date, ok := normalize.Date(field(cols.date), nil)
	if !ok {
		d := rowError(ordinal, line, "date", field(cols.date))
		return model.RawTransaction{}, &d
	}

	row := model.RawTransaction{
		Ordinal:     ordinal,
		Date:        date,
		Description: normalize.Description(field(cols.desc)),
		Reference:   field(cols.ref),
	}

	if bal := field(cols.balance); bal != "" {
		b, ok := normalize.Amount(bal)
		if !ok {
			d := rowError(ordinal, line, "balance", bal)
			return model.RawTransaction{}, &d
		}
		row.Balance = b
		row.HasBalance = true
	}

	if cols.amount >= 0 {
		raw := field(cols.amount)
		if raw != "" {
			a, ok := normalize.Amount(raw)
			if !ok {
				d := rowError(ordinal, line, "amount", raw)
				return model.RawTransaction{}, &d
			}
			row.Amount = a
			row.HasAmount = true
		}
	} else {
		debit, debitSet, bad := sideAmount(field(cols.debit))
		if bad {
			d := rowError(ordinal, line, "debit", field(cols.debit))
			return model.RawTransaction{}, &d
		}
		credit, creditSet, bad := sideAmount(field(cols.credit))
		if bad {
			d := rowError(ordinal, line, "credit", field(cols.credit))
			return model.RawTransaction{}, &d
		}
		switch {
		case debitSet && creditSet:
			d := rowError(ordinal, line, "amount", "")
			d.Message = fmt.Sprintf("row %d: both debit and credit are set", ordinal)
			return model.RawTransaction{}, &d
		case debitSet:
			row.Amount = debit.Abs().Neg()
			row.HasAmount = true
		case creditSet:
			row.Amount = credit.Abs()
			row.HasAmount = true
		}
	}

	// A row with neither an amount nor a running balance carries no usable
	// financial fact: parse failure.
	if !row.HasAmount && !row.HasBalance {
		d := rowError(ordinal, line, "amount", "")
		d.Message = fmt.Sprintf("row %d: neither amount nor balance present", ordinal)
		return model.RawTransaction{}, &d
	}

	return row, nil
}

// sideAmount parses one side of a debit/credit pair. Banks export
// zero-filled columns ("0", "0.00") for the unused side; empty and zero
// both mean absent. Non-empty junk is a parse failure, not absence.
func sideAmount(s string) (a decimal.Decimal, set, bad bool) {
	if s == "" {
		return decimal.Zero, false, false
	}
	a, ok := normalize.Amount(s)
	if !ok {
		return decimal.Zero, false, true
	}
	return a, !a.IsZero(), false
}
