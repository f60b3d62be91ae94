package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian/internal/ledger"
)

func movement(date time.Time, ref string, amount int64, counter ledger.Account) ledger.CashMovement {
	return ledger.CashMovement{Date: date, Ref: ref, Amount: dec(amount), Counter: counter}
}

func TestBuildCashFlowSectionsByCounterAccount(t *testing.T) {
	sales := ledger.Account{ID: 2, Code: "4001", Name: "Sales", Type: ledger.AccountTypeIncome}
	supplier := ledger.Account{ID: 3, Code: "2001", Name: "Supplier Co", PartyType: ledger.PartyTypeSupplier}
	equipment := ledger.Account{ID: 4, Code: "1501", Name: "Equipment", Type: ledger.AccountTypeAsset}
	loan := ledger.Account{ID: 5, Code: "2501", Name: "Bank Loan", Type: ledger.AccountTypeLiability}

	movements := []ledger.CashMovement{
		movement(d(2024, time.March, 1), "CRV-000001", 1000, sales),
		movement(d(2024, time.March, 5), "CPV-000001", -300, supplier),
		movement(d(2024, time.March, 10), "CPV-000002", -500, equipment),
		movement(d(2024, time.March, 15), "CRV-000002", 800, loan),
	}

	cf := BuildCashFlow(movements, d(2024, time.March, 1), d(2024, time.March, 31))

	require.True(t, cf.Operating.Total.Equal(dec(700)))
	require.True(t, cf.Investing.Total.Equal(dec(-500)))
	require.True(t, cf.Financing.Total.Equal(dec(800)))
	require.True(t, cf.NetCashFlow.Equal(dec(1000)))
}

func TestBuildCashFlowAggregatesPerCounterAccount(t *testing.T) {
	sales := ledger.Account{ID: 2, Code: "4001", Name: "Sales", Type: ledger.AccountTypeIncome}

	movements := []ledger.CashMovement{
		movement(d(2024, time.March, 1), "CRV-000001", 400, sales),
		movement(d(2024, time.March, 8), "CRV-000002", 600, sales),
	}

	cf := BuildCashFlow(movements, d(2024, time.March, 1), d(2024, time.March, 31))

	require.Len(t, cf.Operating.Lines, 1)
	require.True(t, cf.Operating.Lines[0].Amount.Equal(dec(1000)))
}

func TestBuildCashFlowFiltersDateRange(t *testing.T) {
	sales := ledger.Account{ID: 2, Code: "4001", Name: "Sales", Type: ledger.AccountTypeIncome}

	movements := []ledger.CashMovement{
		movement(d(2024, time.February, 28), "CRV-000001", 999, sales),
		movement(d(2024, time.March, 1), "CRV-000002", 100, sales),
		movement(d(2024, time.April, 1), "CRV-000003", 999, sales),
	}

	cf := BuildCashFlow(movements, d(2024, time.March, 1), d(2024, time.March, 31))

	require.True(t, cf.NetCashFlow.Equal(dec(100)))
}

func TestBuildCashFlowDropsUnmappedCounters(t *testing.T) {
	suspense := ledger.Account{ID: 9, Code: "9001", Name: "Suspense", Type: "SUSPENSE"}
	sales := ledger.Account{ID: 2, Code: "4001", Name: "Sales", Type: ledger.AccountTypeIncome}

	movements := []ledger.CashMovement{
		movement(d(2024, time.March, 1), "JV-000001", 500, suspense),
		movement(d(2024, time.March, 2), "CRV-000001", 100, sales),
	}

	cf := BuildCashFlow(movements, d(2024, time.March, 1), d(2024, time.March, 31))

	require.True(t, cf.NetCashFlow.Equal(dec(100)))
	require.Empty(t, cf.Investing.Lines)
	require.Empty(t, cf.Financing.Lines)
}

func TestBuildCashFlowDropsZeroNetLines(t *testing.T) {
	sales := ledger.Account{ID: 2, Code: "4001", Name: "Sales", Type: ledger.AccountTypeIncome}

	movements := []ledger.CashMovement{
		movement(d(2024, time.March, 1), "CRV-000001", 250, sales),
		movement(d(2024, time.March, 9), "JV-000001", -250, sales),
	}

	cf := BuildCashFlow(movements, d(2024, time.March, 1), d(2024, time.March, 31))

	require.Empty(t, cf.Operating.Lines)
	require.True(t, cf.NetCashFlow.IsZero())
}
