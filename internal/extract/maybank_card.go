package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/clearline-dev/clearline/internal/model"
	"github.com/clearline-dev/clearline/internal/normalize"
)

// MaybankCardExtractor parses Maybank credit card statements.
//
// Layout per transaction line (posting date, transaction date, description,
// amount; payments and refunds carry a CR suffix):
//
//	01/01/25  03/01/25  TESCO STORES KUALA LUMPUR        120.50
//	05/01/25  05/01/25  PAYMENT RECEIVED - THANK YOU     500.00CR
//
// Card statements state balances from the bank's side: purchases grow the
// balance owed. So that the same closure arithmetic holds as for deposit
// accounts, the extractor negates the previous/current balances and signs
// purchases as debits and CR lines as credits. There is no per-row running
// balance; only the aggregate closure can be checked.
//
// The footer declares its own row count ("NO OF TRANSACTIONS : 12"), which
// the verifier checks against the extracted count.
type MaybankCardExtractor struct{}

const maybankCardDateFormat = "02/01/06"

var (
	maybankCardTxn = regexp.MustCompile(
		`^(\d{2}/\d{2}/\d{2})\s+(\d{2}/\d{2}/\d{2})\s+(.+?)\s+([\d,]+\.\d{2})(CR)?\s*$`)

	maybankCardPrevious = regexp.MustCompile(`^PREVIOUS BALANCE\s+([\d,]+\.\d{2})\s*$`)
	maybankCardCurrent  = regexp.MustCompile(`^CURRENT BALANCE\s+([\d,]+\.\d{2})\s*$`)
	maybankCardNumber   = regexp.MustCompile(`^CARD NO\s*:\s*([\dX ]+)\s*$`)
	maybankCardDate     = regexp.MustCompile(`^STATEMENT DATE\s*:\s*(\d{2}/\d{2}/\d{2})\s*$`)
	maybankCardCount    = regexp.MustCompile(`^(?:BILANGAN URUSNIAGA\s*/\s*)?NO OF TRANSACTIONS\s*:\s*(\d+)\s*$`)
)

func (e *MaybankCardExtractor) Name() string { return "maybank-card" }

func (e *MaybankCardExtractor) Detect(text string) bool {
	upper := strings.ToUpper(text)
	return (strings.Contains(upper, "MAYBANK") || strings.Contains(upper, "MALAYAN BANKING BERHAD")) &&
		strings.Contains(upper, "CREDIT CARD")
}

func (e *MaybankCardExtractor) Extract(lines []string, hints Hints) (Result, error) {
	res := Result{
		Statement: model.StatementMetadata{Bank: e.Name(), Currency: "MYR"},
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if m := maybankCardPrevious.FindStringSubmatch(trimmed); m != nil {
			if a, ok := normalize.Amount(m[1]); ok {
				res.Statement.OpeningBalance = a.Neg()
			}
			continue
		}
		if m := maybankCardCurrent.FindStringSubmatch(trimmed); m != nil {
			if a, ok := normalize.Amount(m[1]); ok {
				res.Statement.ClosingBalance = a.Neg()
				res.Statement.HasClosingBalance = true
			}
			continue
		}
		if m := maybankCardNumber.FindStringSubmatch(trimmed); m != nil {
			res.Statement.AccountNumber = lastFour(m[1])
			continue
		}
		if m := maybankCardDate.FindStringSubmatch(trimmed); m != nil {
			if d, ok := normalize.Date(m[1], []string{maybankCardDateFormat}); ok {
				res.Statement.PeriodEnd = d
			}
			continue
		}
		if m := maybankCardCount.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				res.Statement.DeclaredCount = n
				res.Statement.HasDeclaredCount = true
			}
			continue
		}

		m := maybankCardTxn.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		ordinal := len(res.Rows) + len(res.RowErrors) + 1

		// m[1] is the posting date; the transaction date governs.
		date, ok := normalize.Date(m[2], []string{maybankCardDateFormat})
		if !ok {
			res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "date", m[2]))
			continue
		}
		amount, ok := normalize.Amount(m[4])
		if !ok {
			res.RowErrors = append(res.RowErrors, rowError(ordinal, line, "amount", m[4]))
			continue
		}
		if m[5] != "CR" {
			// Purchase: money out from the holder's perspective.
			amount = amount.Neg()
		}

		res.Rows = append(res.Rows, model.RawTransaction{
			Ordinal:     ordinal,
			Date:        date,
			Description: normalize.Description(m[3]),
			Amount:      amount,
			HasAmount:   true,
		})
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

// lastFour reduces a card number to its last four digits, the bank's own
// masking policy for statement references.
func lastFour(s string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
