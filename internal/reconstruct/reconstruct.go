// Package reconstruct infers signed amounts and directions for statement
// rows that only carry a running balance, by diffing consecutive balances.
package reconstruct

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/clearline-dev/clearline/internal/model"
)

// Result holds the reconciled transactions plus flags for rows the pass
// could not classify. A zero balance delta is ambiguous (fee-and-refund,
// duplicate print, or a true no-op) and is flagged for manual review rather
// than guessed at.
type Result struct {
	Transactions []model.ReconciledTransaction
	Ambiguous    []model.Discrepancy
}

// Run performs a single deterministic left-to-right pass over rows, using
// opening as the balance before the first row. Each row's delta against its
// predecessor's balance determines direction and magnitude. Rows that carry
// a stated amount are passed through unchanged with Source=stated; their
// balance still advances the chain so later inferred rows stay anchored.
func Run(opening decimal.Decimal, rows []model.RawTransaction) Result {
	var res Result
	prev := opening

	for _, row := range rows {
		if row.HasAmount {
			tx := fromStated(row)
			if row.HasBalance {
				prev = row.Balance
			} else {
				prev = prev.Add(row.Amount)
			}
			res.Transactions = append(res.Transactions, tx)
			continue
		}

		// Balance-only row: infer from the delta.
		delta := row.Balance.Sub(prev)
		switch {
		case delta.IsPositive():
			res.Transactions = append(res.Transactions, inferred(row, model.DirectionCredit, delta))
		case delta.IsNegative():
			res.Transactions = append(res.Transactions, inferred(row, model.DirectionDebit, delta.Neg()))
		default:
			res.Ambiguous = append(res.Ambiguous, model.Discrepancy{
				Kind:    model.ViolationZeroDelta,
				Ordinal: row.Ordinal,
				Message: fmt.Sprintf("row %d %q: balance unchanged at %s, direction cannot be inferred", row.Ordinal, row.Description, row.Balance.StringFixed(2)),
				Actual:  row.Balance,
			})
		}
		prev = row.Balance
	}

	return res
}

func fromStated(row model.RawTransaction) model.ReconciledTransaction {
	dir := model.DirectionCredit
	amount := row.Amount
	if amount.IsNegative() {
		dir = model.DirectionDebit
		amount = amount.Neg()
	}
	return model.ReconciledTransaction{
		Ordinal:     row.Ordinal,
		Date:        row.Date,
		Description: row.Description,
		Direction:   dir,
		Amount:      amount,
		Balance:     row.Balance,
		HasBalance:  row.HasBalance,
		Reference:   row.Reference,
		Source:      model.AmountStated,
	}
}

func inferred(row model.RawTransaction, dir model.Direction, amount decimal.Decimal) model.ReconciledTransaction {
	return model.ReconciledTransaction{
		Ordinal:     row.Ordinal,
		Date:        row.Date,
		Description: row.Description,
		Direction:   dir,
		Amount:      amount,
		Balance:     row.Balance,
		HasBalance:  true,
		Reference:   row.Reference,
		Source:      model.AmountInferred,
	}
}
