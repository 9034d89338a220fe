package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardStatement = `MAYBANK CREDIT CARD STATEMENT
CARD NO : 4523 XXXX XXXX 1234
STATEMENT DATE : 15/01/25
PREVIOUS BALANCE                            1,500.00
01/01/25 03/01/25 TESCO STORES KUALA LUMPUR          120.50
05/01/25 05/01/25 PAYMENT RECEIVED - THANK YOU       500.00CR
CURRENT BALANCE                             1,120.50
NO OF TRANSACTIONS : 2
`

func TestMaybankCardExtract(t *testing.T) {
	e := &MaybankCardExtractor{}
	res, err := e.Extract(strings.Split(cardStatement, "\n"), Hints{})
	require.NoError(t, err)

	st := res.Statement
	assert.Equal(t, "maybank-card", st.Bank)
	assert.Equal(t, "1234", st.AccountNumber)
	// Liability balances are negated so deposit-account closure arithmetic
	// holds: opening + credits - debits == closing.
	assert.True(t, st.OpeningBalance.Equal(dec("-1500.00")))
	require.True(t, st.HasClosingBalance)
	assert.True(t, st.ClosingBalance.Equal(dec("-1120.50")))
	require.True(t, st.HasDeclaredCount)
	assert.Equal(t, 2, st.DeclaredCount)

	require.Len(t, res.Rows, 2)

	purchase := res.Rows[0]
	// The transaction date (second column) governs, not the posting date.
	assert.Equal(t, time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), purchase.Date)
	assert.True(t, purchase.Amount.Equal(dec("-120.50")), "purchase is a debit")
	assert.False(t, purchase.HasBalance, "card rows carry no running balance")

	payment := res.Rows[1]
	assert.True(t, payment.Amount.Equal(dec("500.00")), "CR line is a credit")

	// Closure: -1500.00 - 120.50 + 500.00 == -1120.50.
	sum := st.OpeningBalance
	for _, r := range res.Rows {
		sum = sum.Add(r.Amount)
	}
	assert.True(t, sum.Equal(st.ClosingBalance))
}

func TestMaybankCardDetect(t *testing.T) {
	e := &MaybankCardExtractor{}
	assert.True(t, e.Detect(cardStatement))
	assert.False(t, e.Detect("MALAYAN BANKING BERHAD\nSAVINGS ACCOUNT STATEMENT"))
}

func TestMaybankCardLastFour(t *testing.T) {
	assert.Equal(t, "1234", lastFour("4523 XXXX XXXX 1234"))
	assert.Equal(t, "987", lastFour("987"))
}
