package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/ledger"
)

// AccountActivity pairs an account with its full posting stream.
type AccountActivity struct {
	Account  ledger.Account
	Postings []ledger.Posting
}

// TrialBalanceRow is one account line of the trial balance. Opening and
// closing nets are presented single-sided: whichever of debit or credit is
// positive carries the value.
type TrialBalanceRow struct {
	Code         string
	Name         string
	Bucket       Bucket
	OpenDebit    decimal.Decimal
	OpenCredit   decimal.Decimal
	PeriodDebit  decimal.Decimal
	PeriodCredit decimal.Decimal
	CloseDebit   decimal.Decimal
	CloseCredit  decimal.Decimal
}

// TrialBalanceTotals aggregates all emitted rows. PeriodDebit equals
// PeriodCredit whenever every input entry is a true double-entry posting;
// a deviation signals upstream data error, not an aggregation bug.
type TrialBalanceTotals struct {
	OpenDebit    decimal.Decimal
	OpenCredit   decimal.Decimal
	PeriodDebit  decimal.Decimal
	PeriodCredit decimal.Decimal
	CloseDebit   decimal.Decimal
	CloseCredit  decimal.Decimal
}

// TrialBalance is the aggregated report payload.
type TrialBalance struct {
	Rows   []TrialBalanceRow
	Totals TrialBalanceTotals
}

func sided(net decimal.Decimal) (debit, credit decimal.Decimal) {
	if net.IsNegative() {
		return decimal.Zero, net.Neg()
	}
	return net, decimal.Zero
}

// BuildTrialBalance computes opening, period, and closing debit/credit values
// for every account with activity. Opening is the balance strictly before
// from; an account whose opening date falls inside the range carries its
// opening net in the opening column, so closing (opening plus the signed
// period movement) always reconciles with the balance calculator at to.
// Accounts with zero opening and no period activity are skipped. Rows sort
// by code so repeated runs are identical.
func BuildTrialBalance(activities []AccountActivity, from, to time.Time) TrialBalance {
	sorted := make([]AccountActivity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Account.Code < sorted[j].Account.Code
	})

	tb := TrialBalance{Totals: TrialBalanceTotals{
		OpenDebit: decimal.Zero, OpenCredit: decimal.Zero,
		PeriodDebit: decimal.Zero, PeriodCredit: decimal.Zero,
		CloseDebit: decimal.Zero, CloseCredit: decimal.Zero,
	}}
	dayBefore := ledger.Day(from).AddDate(0, 0, -1)

	for _, act := range sorted {
		opening := ledger.BalanceAsOf(act.Account, act.Postings, dayBefore)
		if act.Account.OpenedWithin(from, to) {
			opening = opening.Add(act.Account.OpeningNet())
		}
		periodDebit, periodCredit := ledger.PeriodMovement(act.Postings, from, to)
		if opening.IsZero() && periodDebit.IsZero() && periodCredit.IsZero() {
			continue
		}
		closing := opening.Add(periodDebit).Sub(periodCredit)

		row := TrialBalanceRow{
			Code:         act.Account.Code,
			Name:         act.Account.Name,
			Bucket:       Classify(act.Account),
			PeriodDebit:  periodDebit,
			PeriodCredit: periodCredit,
		}
		row.OpenDebit, row.OpenCredit = sided(opening)
		row.CloseDebit, row.CloseCredit = sided(closing)
		tb.Rows = append(tb.Rows, row)

		tb.Totals.OpenDebit = tb.Totals.OpenDebit.Add(row.OpenDebit)
		tb.Totals.OpenCredit = tb.Totals.OpenCredit.Add(row.OpenCredit)
		tb.Totals.PeriodDebit = tb.Totals.PeriodDebit.Add(row.PeriodDebit)
		tb.Totals.PeriodCredit = tb.Totals.PeriodCredit.Add(row.PeriodCredit)
		tb.Totals.CloseDebit = tb.Totals.CloseDebit.Add(row.CloseDebit)
		tb.Totals.CloseCredit = tb.Totals.CloseCredit.Add(row.CloseCredit)
	}
	return tb
}
