package accounts

import "github.com/clearline-dev/clearline/internal/model"

// DefaultChart returns the default chart of accounts for an entity type.
func DefaultChart(entityType string) []model.Account {
	switch entityType {
	case "sole_trader":
		return soleTraderChart()
	default:
		return soleTraderChart()
	}
}

func soleTraderChart() []model.Account {
	return []model.Account{
		{ID: 1010, Name: "Business Checking", Type: model.AccountTypeAsset, Active: true, Description: "Primary checking account"},
		{ID: 1020, Name: "Business Savings", Type: model.AccountTypeAsset, Active: true, Description: "Savings account"},
		{ID: 2010, Name: "Credit Card", Type: model.AccountTypeLiability, Active: true, Description: "Business credit card"},
		{ID: 3010, Name: "Owner's Equity", Type: model.AccountTypeEquity, Active: true, Description: "Owner drawings and injections"},
		{ID: 4010, Name: "Client Income", Type: model.AccountTypeRevenue, Active: true, Description: "Payments received from clients"},
		{ID: 4020, Name: "Interest Income", Type: model.AccountTypeRevenue, Active: true, Description: "Bank interest and dividends"},
		{ID: 5010, Name: "Rent", Type: model.AccountTypeExpense, Active: true, Description: "Office and workspace rent"},
		{ID: 5020, Name: "Software & Subscriptions", Type: model.AccountTypeExpense, Active: true, Description: "Software subscriptions"},
		{ID: 5030, Name: "Office Supplies", Type: model.AccountTypeExpense, Active: true, Description: "Office supplies and expenses"},
		{ID: 5040, Name: "Professional Services", Type: model.AccountTypeExpense, Active: true, Description: "Legal, accounting, consulting"},
		{ID: 5050, Name: "Bank Charges", Type: model.AccountTypeExpense, Active: true, Description: "Bank fees and card charges"},
		{ID: 5060, Name: "Utilities", Type: model.AccountTypeExpense, Active: true, Description: "Power, water, connectivity"},
	}
}
