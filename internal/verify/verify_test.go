package verify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearline-dev/clearline/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func statement(opening, closing string) model.StatementMetadata {
	return model.StatementMetadata{
		DocumentID:        "doc-1",
		Bank:              "testbank",
		OpeningBalance:    dec(opening),
		ClosingBalance:    dec(closing),
		HasClosingBalance: true,
	}
}

func tx(ordinal int, dir model.Direction, amount, balance string) model.ReconciledTransaction {
	t := model.ReconciledTransaction{
		Ordinal:   ordinal,
		Date:      time.Date(2025, 1, ordinal, 0, 0, 0, 0, time.UTC),
		Direction: dir,
		Amount:    dec(amount),
		Source:    model.AmountStated,
	}
	if balance != "" {
		t.Balance = dec(balance)
		t.HasBalance = true
	}
	return t
}

func TestVerifyVerified(t *testing.T) {
	v := New(decimal.Zero)
	res := v.Verify(Input{
		Statement: statement("10000.00", "13000.00"),
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "5000.00", "15000.00"),
			tx(2, model.DirectionDebit, "2000.00", "13000.00"),
		},
	})

	assert.Equal(t, model.VerdictVerified, res.Verdict)
	assert.Empty(t, res.Discrepancies)
	assert.True(t, res.ExpectedClosing.Equal(dec("13000.00")))
}

func TestVerifyBalanceMismatch(t *testing.T) {
	v := New(decimal.Zero)
	res := v.Verify(Input{
		Statement: statement("10000.00", "13500.00"),
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "5000.00", "15000.00"),
			tx(2, model.DirectionDebit, "2000.00", "13000.00"),
		},
	})

	assert.Equal(t, model.VerdictBalanceMismatch, res.Verdict)
	require.Len(t, res.Discrepancies, 1)
	d := res.Discrepancies[0]
	assert.Equal(t, model.ViolationBalanceMismatch, d.Kind)
	assert.True(t, d.Expected.Equal(dec("13000.00")))
	assert.True(t, d.Actual.Equal(dec("13500.00")))
}

func TestVerifyCountMismatch(t *testing.T) {
	st := statement("100.00", "50.00")
	st.DeclaredCount = 21
	st.HasDeclaredCount = true

	var txs []model.ReconciledTransaction
	for i := 1; i <= 19; i++ {
		txs = append(txs, tx(i, model.DirectionDebit, "1.00", ""))
	}

	v := New(decimal.Zero)
	res := v.Verify(Input{Statement: st, Transactions: txs})

	assert.Equal(t, model.VerdictCountMismatch, res.Verdict)
	require.NotEmpty(t, res.Discrepancies)
	assert.Equal(t, model.ViolationCountMismatch, res.Discrepancies[0].Kind)
	assert.True(t, res.Discrepancies[0].Expected.Equal(dec("21")))
	assert.True(t, res.Discrepancies[0].Actual.Equal(dec("19")))
}

func TestVerifyCountCheckedBeforeBalance(t *testing.T) {
	// Both count and closing are wrong: count wins, balance never computed.
	st := statement("100.00", "999.00")
	st.DeclaredCount = 3
	st.HasDeclaredCount = true

	v := New(decimal.Zero)
	res := v.Verify(Input{
		Statement:    st,
		Transactions: []model.ReconciledTransaction{tx(1, model.DirectionDebit, "10.00", "")},
	})

	assert.Equal(t, model.VerdictCountMismatch, res.Verdict)
}

func TestVerifyPartialOnRowErrors(t *testing.T) {
	// Aggregate closes, but one row failed to parse at extraction.
	v := New(decimal.Zero)
	res := v.Verify(Input{
		Statement: statement("100.00", "150.00"),
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "50.00", "150.00"),
		},
		RowErrors: []model.Discrepancy{
			{Kind: model.ViolationRowParse, Ordinal: 2, Message: "row 2: unparseable amount \"N/A\""},
		},
	})

	assert.Equal(t, model.VerdictPartial, res.Verdict)
	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, model.ViolationRowParse, res.Discrepancies[0].Kind)
}

func TestVerifyPartialOnChainBreak(t *testing.T) {
	// Closing balance is right in aggregate but an intermediate stated
	// balance does not follow from its predecessor.
	v := New(decimal.Zero)
	res := v.Verify(Input{
		Statement: statement("100.00", "130.00"),
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "50.00", "170.00"), // should be 150.00
			tx(2, model.DirectionDebit, "20.00", "150.00"),
		},
	})

	assert.Equal(t, model.VerdictPartial, res.Verdict)
	require.Len(t, res.Discrepancies, 1)
	d := res.Discrepancies[0]
	assert.Equal(t, model.ViolationChainBreak, d.Kind)
	assert.Equal(t, 1, d.Ordinal)
	assert.True(t, d.Expected.Equal(dec("150.00")))
}

func TestVerifyChainBreakDoesNotCascade(t *testing.T) {
	// A single bad stated balance produces one break, not one per
	// following row.
	v := New(decimal.Zero)
	res := v.Verify(Input{
		Statement: statement("100.00", "120.00"),
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "50.00", "150.00"),
			tx(2, model.DirectionDebit, "40.00", "160.00"), // bad: should be 110.00
			tx(3, model.DirectionCredit, "10.00", "170.00"),
		},
	})

	assert.Equal(t, model.VerdictPartial, res.Verdict)
	chainBreaks := 0
	for _, d := range res.Discrepancies {
		if d.Kind == model.ViolationChainBreak {
			chainBreaks++
		}
	}
	assert.Equal(t, 1, chainBreaks)
}

func TestVerifyWithinTolerance(t *testing.T) {
	v := New(DefaultTolerance)
	res := v.Verify(Input{
		Statement: statement("100.00", "150.01"),
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "50.00", ""),
		},
	})
	assert.Equal(t, model.VerdictVerified, res.Verdict)
}

func TestVerifyZeroToleranceIsExact(t *testing.T) {
	// A configured tolerance of zero means exact matching, not the default.
	v := New(decimal.Zero)
	res := v.Verify(Input{
		Statement: statement("100.00", "150.01"),
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "50.00", ""),
		},
	})
	assert.Equal(t, model.VerdictBalanceMismatch, res.Verdict)
}

func TestVerifyDeclaredCountWithZeroDeltaRow(t *testing.T) {
	// A zero-delta row was extracted, just not signed: it counts toward the
	// declared total, and the statement is held as partial for manual review
	// rather than failed as count_mismatch.
	st := statement("474.01", "1474.01")
	st.DeclaredCount = 3
	st.HasDeclaredCount = true

	v := New(DefaultTolerance)
	res := v.Verify(Input{
		Statement: st,
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "500.00", "974.01"),
			tx(3, model.DirectionCredit, "500.00", "1474.01"),
		},
		RowErrors: []model.Discrepancy{
			{Kind: model.ViolationZeroDelta, Ordinal: 2, Message: "row 2: balance unchanged at 974.01"},
		},
	})

	assert.Equal(t, model.VerdictPartial, res.Verdict)
	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, model.ViolationZeroDelta, res.Discrepancies[0].Kind)
}

func TestVerifyDeclaredCountStillCatchesMissingRows(t *testing.T) {
	// Zero-delta rows only cover rows the document actually printed; a true
	// shortfall against the declared count is still a count_mismatch.
	st := statement("474.01", "1474.01")
	st.DeclaredCount = 4
	st.HasDeclaredCount = true

	v := New(DefaultTolerance)
	res := v.Verify(Input{
		Statement: st,
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "500.00", "974.01"),
			tx(3, model.DirectionCredit, "500.00", "1474.01"),
		},
		RowErrors: []model.Discrepancy{
			{Kind: model.ViolationZeroDelta, Ordinal: 2, Message: "row 2: balance unchanged at 974.01"},
		},
	})

	assert.Equal(t, model.VerdictCountMismatch, res.Verdict)
	assert.True(t, res.Discrepancies[0].Actual.Equal(dec("3")))
}

func TestVerifyNoClosingBalanceDeclared(t *testing.T) {
	// Some banks never print a closing figure; closure cannot be checked,
	// only chaining and row health.
	st := model.StatementMetadata{DocumentID: "doc-2", OpeningBalance: dec("100.00")}
	v := New(decimal.Zero)
	res := v.Verify(Input{
		Statement: st,
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionDebit, "25.00", "75.00"),
		},
	})
	assert.Equal(t, model.VerdictVerified, res.Verdict)
}

func TestVerifyIdempotent(t *testing.T) {
	v := New(decimal.Zero)
	in := Input{
		Statement: statement("10000.00", "13500.00"),
		Transactions: []model.ReconciledTransaction{
			tx(1, model.DirectionCredit, "5000.00", "15000.00"),
			tx(2, model.DirectionDebit, "2000.00", "13000.00"),
		},
	}
	first := v.Verify(in)
	second := v.Verify(in)
	assert.Equal(t, first.Verdict, second.Verdict)
	assert.Equal(t, first.Discrepancies, second.Discrepancies)
}
