package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/ledger"
)

// BalanceSheetLine is one account (or derived) line in a section.
type BalanceSheetLine struct {
	Code    string
	Name    string
	Balance decimal.Decimal
	Derived bool
}

// BalanceSheetSection groups lines with their total.
type BalanceSheetSection struct {
	Label string
	Lines []BalanceSheetLine
	Total decimal.Decimal
}

// BalanceSheet is the structured balance sheet payload.
type BalanceSheet struct {
	AsOf        time.Time
	Assets      BalanceSheetSection
	Liabilities BalanceSheetSection
	Equity      BalanceSheetSection
	NetProfit   decimal.Decimal
	IsBalanced  bool
}

// balanceTolerance is the rounding slack allowed on the accounting identity.
var balanceTolerance = decimal.NewFromInt(1)

// BuildBalanceSheet assembles assets, liabilities, and equity from closing
// balances as of a date. Asset- and liability-bucketed accounts land on the
// side their closing sign dictates: positive closings list as assets,
// negative closings flip sign and list as liabilities (a customer advance is
// a liability however the account is bucketed). Equity closings flip sign
// into the equity section. Income and expense accounts are not listed; their
// full-period net profit is added to equity as a derived line so that total
// assets equal liabilities plus equity. OTHER-bucketed accounts are excluded
// from every section, which surfaces through IsBalanced instead of being
// silently absorbed.
func BuildBalanceSheet(activities []AccountActivity, asOf time.Time) BalanceSheet {
	bs := BalanceSheet{
		AsOf:        ledger.Day(asOf),
		Assets:      BalanceSheetSection{Label: "Assets", Total: decimal.Zero},
		Liabilities: BalanceSheetSection{Label: "Liabilities", Total: decimal.Zero},
		Equity:      BalanceSheetSection{Label: "Equity", Total: decimal.Zero},
	}
	income := decimal.Zero
	expense := decimal.Zero

	for _, act := range activities {
		closing := ledger.BalanceAsOf(act.Account, act.Postings, asOf)
		if closing.IsZero() {
			continue
		}
		line := BalanceSheetLine{Code: act.Account.Code, Name: act.Account.Name}
		switch Classify(act.Account) {
		case BucketAsset, BucketLiability:
			if closing.IsPositive() {
				line.Balance = closing
				bs.Assets.Lines = append(bs.Assets.Lines, line)
				bs.Assets.Total = bs.Assets.Total.Add(closing)
			} else {
				line.Balance = closing.Neg()
				bs.Liabilities.Lines = append(bs.Liabilities.Lines, line)
				bs.Liabilities.Total = bs.Liabilities.Total.Add(line.Balance)
			}
		case BucketEquity:
			line.Balance = closing.Neg()
			bs.Equity.Lines = append(bs.Equity.Lines, line)
			bs.Equity.Total = bs.Equity.Total.Add(line.Balance)
		case BucketIncome:
			// Credit balances are negative; income is their magnitude.
			income = income.Sub(closing)
		case BucketExpense:
			expense = expense.Add(closing)
		}
	}

	for _, section := range []*BalanceSheetSection{&bs.Assets, &bs.Liabilities, &bs.Equity} {
		lines := section.Lines
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].Code < lines[j].Code })
	}

	bs.NetProfit = income.Sub(expense)
	if !bs.NetProfit.IsZero() {
		bs.Equity.Lines = append(bs.Equity.Lines, BalanceSheetLine{
			Name:    "Net Profit",
			Balance: bs.NetProfit,
			Derived: true,
		})
		bs.Equity.Total = bs.Equity.Total.Add(bs.NetProfit)
	}

	diff := bs.Assets.Total.Sub(bs.Liabilities.Total.Add(bs.Equity.Total))
	bs.IsBalanced = diff.Abs().LessThanOrEqual(balanceTolerance)
	return bs
}
