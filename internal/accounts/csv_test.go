package accounts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearline-dev/clearline/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: 1010, Name: "Business Checking", Type: model.AccountTypeAsset, Active: true, Description: "Primary checking account"},
		{ID: 5020, Name: "Software & Subscriptions", Type: model.AccountTypeExpense, Active: false, Description: "Software subscriptions"},
	}

	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	require.NoError(t, err)

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, accounts[0].ID, got[0].ID)
	assert.Equal(t, accounts[0].Name, got[0].Name)
	assert.Equal(t, accounts[0].Type, got[0].Type)
	assert.True(t, got[0].Active)
	assert.Equal(t, accounts[0].Description, got[0].Description)

	assert.Equal(t, accounts[1].ID, got[1].ID)
	assert.False(t, got[1].Active, "inactive flag should survive round-trip")
}

func TestParentID(t *testing.T) {
	accounts := []model.Account{
		{ID: 1010, Name: "Checking", Type: model.AccountTypeAsset, Active: true},
		{ID: 1011, Name: "Sub-checking", Type: model.AccountTypeAsset, ParentID: 1010, Active: true},
	}

	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	require.NoError(t, err)

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 0, got[0].ParentID)
	assert.Equal(t, 1010, got[1].ParentID)
}

func TestDefaultChart(t *testing.T) {
	chart := DefaultChart("sole_trader")
	require.NotEmpty(t, chart)

	// Verify expected accounts exist.
	ids := make(map[int]bool)
	for _, acct := range chart {
		ids[acct.ID] = true
	}
	assert.True(t, ids[1010], "expected Business Checking (1010)")
	assert.True(t, ids[3010], "expected Owner's Equity (3010)")
	assert.True(t, ids[5050], "expected Bank Charges (5050)")

	// Verify all accounts have a name and type, and start active.
	for _, acct := range chart {
		assert.NotEmpty(t, acct.Name, "account %d missing name", acct.ID)
		assert.NotEmpty(t, acct.Type, "account %d missing type", acct.ID)
		assert.True(t, acct.Active, "account %d should start active", acct.ID)
	}
}

func TestDefaultChart_UnknownEntityType(t *testing.T) {
	// Unknown entity types fall back to the sole-trader chart.
	chart := DefaultChart("unknown_type")
	assert.NotEmpty(t, chart)
}

func TestAllAccountTypes(t *testing.T) {
	accountTypes := []model.AccountType{
		model.AccountTypeAsset,
		model.AccountTypeLiability,
		model.AccountTypeEquity,
		model.AccountTypeRevenue,
		model.AccountTypeExpense,
	}
	for _, at := range accountTypes {
		acct := model.Account{
			ID:     1000,
			Name:   "Test",
			Type:   at,
			Active: true,
		}

		var buf bytes.Buffer
		err := WriteAccounts(&buf, []model.Account{acct})
		require.NoError(t, err)

		got, err := ReadAccounts(&buf)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, at, got[0].Type, "account type %q should survive round-trip", at)
	}
}

func TestDefaultChartRoundTrip(t *testing.T) {
	// Write the default chart to CSV and read it back — verify nothing is lost.
	chart := DefaultChart("sole_trader")

	var buf bytes.Buffer
	err := WriteAccounts(&buf, chart)
	require.NoError(t, err)

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(chart))

	for i := range chart {
		assert.Equal(t, chart[i].ID, got[i].ID)
		assert.Equal(t, chart[i].Name, got[i].Name)
		assert.Equal(t, chart[i].Type, got[i].Type)
		assert.Equal(t, chart[i].ParentID, got[i].ParentID)
		assert.Equal(t, chart[i].Active, got[i].Active)
		assert.Equal(t, chart[i].Description, got[i].Description)
	}
}
