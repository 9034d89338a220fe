package extract

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearline-dev/clearline/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseCSVDebitCreditColumns(t *testing.T) {
	input := `Date,Description,Debit,Credit,Balance,Reference
2025-01-01,SALARY,0,5000.00,15000.00,SAL-01
2025-01-02,RENT,2000.00,0,13000.00,`

	res, err := ParseCSV(strings.NewReader(input), Hints{
		OpeningBalance: dec("10000.00"), HasOpeningBalance: true,
		ClosingBalance: dec("13000.00"), HasClosingBalance: true,
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Empty(t, res.RowErrors)

	first := res.Rows[0]
	assert.Equal(t, 1, first.Ordinal)
	assert.True(t, first.Amount.Equal(dec("5000.00")), "credit is positive")
	assert.True(t, first.HasAmount)
	assert.True(t, first.Balance.Equal(dec("15000.00")))
	assert.Equal(t, "SAL-01", first.Reference)

	second := res.Rows[1]
	assert.True(t, second.Amount.Equal(dec("-2000.00")), "debit is negative")

	assert.True(t, res.Statement.OpeningBalance.Equal(dec("10000.00")))
	assert.True(t, res.Statement.HasClosingBalance)
}

func TestParseCSVWithdrawalDepositAliases(t *testing.T) {
	input := `Transaction Date,Details,Withdrawal,Deposit,Running Balance
15/01/2025,ATM CASH,100.00,,900.00
16/01/2025,CHEQUE IN,,250.00,1150.00`

	res, err := ParseCSV(strings.NewReader(input), Hints{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.True(t, res.Rows[0].Amount.Equal(dec("-100.00")))
	assert.True(t, res.Rows[1].Amount.Equal(dec("250.00")))
}

func TestParseCSVSingleAmountColumn(t *testing.T) {
	input := `Date,Description,Amount
2025-02-01,REFUND,12.34
2025-02-02,SUBSCRIPTION,(9.99)`

	res, err := ParseCSV(strings.NewReader(input), Hints{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.True(t, res.Rows[0].Amount.Equal(dec("12.34")))
	assert.True(t, res.Rows[1].Amount.Equal(dec("-9.99")))
	assert.False(t, res.Rows[0].HasBalance)
}

func TestParseCSVRowErrorsDoNotAbort(t *testing.T) {
	input := `Date,Description,Debit,Credit,Balance
2025-01-01,GOOD ROW,10.00,,90.00
not-a-date,BAD DATE,5.00,,85.00
2025-01-03,BAD AMOUNT,N/A,,80.00
2025-01-04,ANOTHER GOOD,1.00,,79.00`

	res, err := ParseCSV(strings.NewReader(input), Hints{})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	require.Len(t, res.RowErrors, 2)

	assert.Equal(t, model.ViolationRowParse, res.RowErrors[0].Kind)
	assert.Equal(t, 2, res.RowErrors[0].Ordinal)
	assert.Equal(t, 3, res.RowErrors[1].Ordinal)
	// Ordinals of surviving rows keep their source positions.
	assert.Equal(t, 1, res.Rows[0].Ordinal)
	assert.Equal(t, 4, res.Rows[1].Ordinal)
}

func TestParseCSVBothSidesSetIsRowError(t *testing.T) {
	input := `Date,Description,Debit,Credit
2025-01-01,CONFUSED,10.00,20.00`

	_, err := ParseCSV(strings.NewReader(input), Hints{})
	// The only row fails, so the document has zero transactions.
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestParseCSVBalanceOnlyRow(t *testing.T) {
	input := `Date,Description,Debit,Credit,Balance
2025-01-01,PASSBOOK ENTRY,,,150.00`

	res, err := ParseCSV(strings.NewReader(input), Hints{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.False(t, res.Rows[0].HasAmount)
	assert.True(t, res.Rows[0].HasBalance)
}

func TestParseCSVNeitherAmountNorBalance(t *testing.T) {
	input := `Date,Description,Debit,Credit,Balance
2025-01-01,EMPTY ROW,,,`

	_, err := ParseCSV(strings.NewReader(input), Hints{})
	assert.ErrorIs(t, err, ErrNoTransactions)
}

func TestParseCSVUnrecognizedHeader(t *testing.T) {
	input := `Foo,Bar
1,2`

	_, err := ParseCSV(strings.NewReader(input), Hints{})
	assert.ErrorIs(t, err, ErrUnrecognizedFormat)
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""), Hints{})
	assert.ErrorIs(t, err, ErrNoTransactions)
}
