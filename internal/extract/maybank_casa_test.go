package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const casaStatement = `MALAYAN BANKING BERHAD
SAVINGS ACCOUNT STATEMENT
ACCOUNT NO : 1140 1234 5678
STATEMENT DATE : 31/01/25
BEGINNING BALANCE                                   10,000.00
01/01/25 SALARY CREDIT                 5,000.00+    15,000.00
02/01/25 SVG GIRO PAYMENT              2,000.00-    13,000.00
         TO ACME SDN BHD
ENDING BALANCE                                      13,000.00
`

func casaLines() []string {
	return strings.Split(casaStatement, "\n")
}

func TestMaybankCASAExtract(t *testing.T) {
	e := &MaybankCASAExtractor{}
	res, err := e.Extract(casaLines(), Hints{})
	require.NoError(t, err)

	st := res.Statement
	assert.Equal(t, "maybank-casa", st.Bank)
	assert.Equal(t, "114012345678", st.AccountNumber)
	assert.Equal(t, "MYR", st.Currency)
	assert.True(t, st.OpeningBalance.Equal(dec("10000.00")))
	require.True(t, st.HasClosingBalance)
	assert.True(t, st.ClosingBalance.Equal(dec("13000.00")))
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), st.PeriodEnd)

	require.Len(t, res.Rows, 2)
	assert.Empty(t, res.RowErrors)

	first := res.Rows[0]
	assert.Equal(t, 1, first.Ordinal)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "SALARY CREDIT", first.Description)
	assert.True(t, first.Amount.Equal(dec("5000.00")))
	assert.True(t, first.Balance.Equal(dec("15000.00")))

	second := res.Rows[1]
	assert.True(t, second.Amount.Equal(dec("-2000.00")))
	// Continuation line joined in source order.
	assert.Equal(t, "SVG GIRO PAYMENT TO ACME SDN BHD", second.Description)
}

func TestMaybankCASADetect(t *testing.T) {
	e := &MaybankCASAExtractor{}
	assert.True(t, e.Detect(casaStatement))
	assert.False(t, e.Detect("MAYBANK CREDIT CARD STATEMENT"))
	assert.False(t, e.Detect("METRO BANK STATEMENT"))
}

func TestMaybankCASANoTransactions(t *testing.T) {
	e := &MaybankCASAExtractor{}
	_, err := e.Extract([]string{"MALAYAN BANKING BERHAD", "BEGINNING BALANCE   100.00"}, Hints{})
	assert.ErrorIs(t, err, ErrNoTransactions)
}
