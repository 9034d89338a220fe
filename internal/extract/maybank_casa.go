package extract

import (
	"regexp"
	"strings"

	"github.com/clearline-dev/clearline/internal/model"
	"github.com/clearline-dev/clearline/internal/normalize"
)

// MaybankCASAExtractor parses Maybank savings/current account statements.
//
// Layout per transaction line:
//
//	DD/MM/YY  DESCRIPTION            1,234.56+    15,000.00
//
// where the +/- suffix on the first amount gives the direction and the
// second amount is the running balance after the transaction. Description
// continuations follow on undated lines until the next dated row or a
// summary line.
type MaybankCASAExtractor struct{}

const maybankCASADateFormat = "02/01/06"

var (
	maybankCASAMarkers = []string{"MALAYAN BANKING BERHAD", "MAYBANK"}

	maybankCASATxn = regexp.MustCompile(
		`^(\d{2}/\d{2}/\d{2})\s+(.+?)\s+([\d,]+\.\d{2})([+-])\s+([\d,]+\.\d{2})\s*$`)

	maybankCASAOpening = regexp.MustCompile(`^BEGINNING BALANCE\s+([\d,]+\.\d{2})\s*$`)
	maybankCASAClosing = regexp.MustCompile(`^ENDING BALANCE\s+([\d,]+\.\d{2})\s*$`)
	maybankCASAAccount = regexp.MustCompile(`^ACCOUNT NO\s*:\s*([\d ]+)\s*$`)
	maybankCASADate    = regexp.MustCompile(`^STATEMENT DATE\s*:\s*(\d{2}/\d{2}/\d{2})\s*$`)
)

func (e *MaybankCASAExtractor) Name() string { return "maybank-casa" }

// Detect requires the Maybank letterhead plus an account-statement marker so
// card statements (checked earlier in the registry) do not collide here.
func (e *MaybankCASAExtractor) Detect(text string) bool {
	upper := strings.ToUpper(text)
	if strings.Contains(upper, "CREDIT CARD") {
		return false
	}
	for _, marker := range maybankCASAMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

func (e *MaybankCASAExtractor) Extract(lines []string, hints Hints) (Result, error) {
	res := Result{
		Statement: model.StatementMetadata{Bank: e.Name(), Currency: "MYR"},
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if m := maybankCASAOpening.FindStringSubmatch(trimmed); m != nil {
			if a, ok := normalize.Amount(m[1]); ok {
				res.Statement.OpeningBalance = a
			}
			continue
		}
		if m := maybankCASAClosing.FindStringSubmatch(trimmed); m != nil {
			if a, ok := normalize.Amount(m[1]); ok {
				res.Statement.ClosingBalance = a
				res.Statement.HasClosingBalance = true
			}
			continue
		}
		if m := maybankCASAAccount.FindStringSubmatch(trimmed); m != nil {
			res.Statement.AccountNumber = strings.ReplaceAll(m[1], " ", "")
			continue
		}
		if m := maybankCASADate.FindStringSubmatch(trimmed); m != nil {
			if d, ok := normalize.Date(m[1], []string{maybankCASADateFormat}); ok {
				res.Statement.PeriodEnd = d
			}
			continue
		}

		if m := maybankCASATxn.FindStringSubmatch(trimmed); m != nil {
			ordinal := len(res.Rows) + len(res.RowErrors) + 1

			date, ok := normalize.Date(m[1], []string{maybankCASADateFormat})
			if !ok {
				res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "date", m[1]))
				continue
			}
			amount, ok := normalize.Amount(m[3])
			if !ok {
				res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "amount", m[3]))
				continue
			}
			if m[4] == "-" {
				amount = amount.Neg()
			}
			balance, ok := normalize.Amount(m[5])
			if !ok {
				res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "balance", m[5]))
				continue
			}

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

		// Continuation: an undated, non-summary line after a parsed row
		// extends that row's description in source order.
		if len(res.Rows) > 0 && trimmed != "" && !maybankCASASummary(trimmed) {
			last := &res.Rows[len(res.Rows)-1]
			last.Description = normalize.Description(last.Description + " " + trimmed)
		}
	}

	if len(res.Rows) == 0 {
		return Result{}, ErrNoTransactions
	}

	res.Statement.PeriodStart = res.Rows[0].Date
	if res.Statement.PeriodEnd.IsZero() {
		res.Statement.PeriodEnd = res.Rows[len(res.Rows)-1].Date
	}
	applyHints(&res.Statement, hints)
	return res, nil
}

// maybankCASASummary recognizes footer/summary lines that terminate a
// description continuation.
func maybankCASASummary(line string) bool {
	upper := strings.ToUpper(line)
	for _, kw := range []string{"TOTAL", "ENDING BALANCE", "BEGINNING BALANCE", "PAGE", "MALAYAN BANKING"} {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return false
}
