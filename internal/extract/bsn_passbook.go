package extract

import (
	"regexp"
	"strings"

	"github.com/clearline-dev/clearline/internal/model"
	"github.com/clearline-dev/clearline/internal/normalize"
)

// BSNPassbookExtractor parses BSN passbook savings printouts.
//
// Passbook lines print only a transaction code and the balance after the
// entry; neither the amount nor the direction is stated:
//
//	01/01/2025  DEP        150.00
//	05/01/2025  WDL        120.00
//
// Rows are emitted balance-only; the reconstructor infers each signed
// amount from consecutive balance deltas against the brought-forward
// balance ("BAL B/F").
type BSNPassbookExtractor struct{}

const bsnDateFormat = "02/01/2006"

var (
	bsnTxn = regexp.MustCompile(
		`^(\d{2}/\d{2}/\d{4})\s+([A-Z][A-Z0-9/ ]*?)\s+([\d,]+\.\d{2})\s*$`)

	bsnOpening = regexp.MustCompile(`^BAL B/F\s+([\d,]+\.\d{2})\s*$`)
	bsnClosing = regexp.MustCompile(`^BAL C/F\s+([\d,]+\.\d{2})\s*$`)
	bsnAccount = regexp.MustCompile(`^ACCOUNT NO\s*:\s*([\d-]+)\s*$`)
)

// bsnCodes expands the passbook's terse transaction codes.
var bsnCodes = map[string]string{
	"DEP": "DEPOSIT",
	"WDL": "WITHDRAWAL",
	"INT": "INTEREST",
	"CHG": "SERVICE CHARGE",
	"TRF": "TRANSFER",
	"DIV": "DIVIDEND",
}

func (e *BSNPassbookExtractor) Name() string { return "bsn-passbook" }

func (e *BSNPassbookExtractor) Detect(text string) bool {
	return strings.Contains(strings.ToUpper(text), "BANK SIMPANAN NASIONAL")
}

func (e *BSNPassbookExtractor) Extract(lines []string, hints Hints) (Result, error) {
	res := Result{
		Statement: model.StatementMetadata{Bank: e.Name(), Currency: "MYR"},
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if m := bsnOpening.FindStringSubmatch(trimmed); m != nil {
			if a, ok := normalize.Amount(m[1]); ok {
				res.Statement.OpeningBalance = a
			}
			continue
		}
		if m := bsnClosing.FindStringSubmatch(trimmed); m != nil {
			if a, ok := normalize.Amount(m[1]); ok {
				res.Statement.ClosingBalance = a
				res.Statement.HasClosingBalance = true
			}
			continue
		}
		if m := bsnAccount.FindStringSubmatch(trimmed); m != nil {
			res.Statement.AccountNumber = m[1]
			continue
		}

		m := bsnTxn.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		ordinal := len(res.Rows) + len(res.RowErrors) + 1

		date, ok := normalize.Date(m[1], []string{bsnDateFormat})
		if !ok {
			res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "date", m[1]))
			continue
		}
		balance, ok := normalize.Amount(m[3])
		if !ok {
			res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "balance", m[3]))
			continue
		}

		res.Rows = append(res.Rows, model.RawTransaction{
			Ordinal:     ordinal,
			Date:        date,
			Description: expandBSNCode(m[2]),
			Balance:     balance,
			HasBalance:  true,
		})
	}

	if len(res.Rows) == 0 {
		return Result{}, ErrNoTransactions
	}

	res.Statement.PeriodStart = res.Rows[0].Date
	res.Statement.PeriodEnd = res.Rows[len(res.Rows)-1].Date
	applyHints(&res.Statement, hints)
	return res, nil
}

func expandBSNCode(code string) string {
	code = normalize.Description(code)
	if full, ok := bsnCodes[code]; ok {
		return full
	}
	return code
}
