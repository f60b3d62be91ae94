package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerRow is one line of a composed account statement.
type LedgerRow struct {
	Date      time.Time
	Ref       string
	Narration string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Balance   decimal.Decimal
	IsOpening bool
}

// ComposeLedger merges the account's posting stream into a chronologically
// ordered statement for [from, to]. The first row is always the opening
// balance as of the day before from; every subsequent row accumulates a
// running balance. An account whose opening date falls inside the range
// surfaces its opening net as a dated line, so the final running balance
// always reconciles with BalanceAsOf at to. Mirror vouchers are excluded by
// kind so an invoice never appears twice. Ties on the same day keep insertion
// order (Seq), which makes repeated calls with identical inputs produce
// identical output.
func ComposeLedger(acc Account, postings []Posting, from, to time.Time) []LedgerRow {
	lo, hi := Day(from), Day(to)

	opening := BalanceAsOf(acc, postings, lo.AddDate(0, 0, -1))
	rows := []LedgerRow{{
		Date:      lo,
		Narration: "Opening Balance",
		Balance:   opening,
		IsOpening: true,
	}}

	inRange := make([]Posting, 0, len(postings)+1)
	if acc.OpenedWithin(lo, hi) && !acc.OpeningNet().IsZero() {
		// Sorts ahead of real postings on its day.
		inRange = append(inRange, Posting{
			Kind:      PostingKindVoucher,
			Date:      Day(acc.OpenDate),
			Narration: "Account Opening",
			Amount:    acc.OpeningNet(),
			Seq:       math.MinInt64,
		})
	}
	for _, p := range postings {
		if p.IsMirror() {
			continue
		}
		d := Day(p.Date)
		if d.Before(lo) || d.After(hi) {
			continue
		}
		inRange = append(inRange, p)
	}
	sort.SliceStable(inRange, func(i, j int) bool {
		di, dj := Day(inRange[i].Date), Day(inRange[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return inRange[i].Seq < inRange[j].Seq
	})

	balance := opening
	for _, p := range inRange {
		row := LedgerRow{
			Date:      Day(p.Date),
			Ref:       p.Ref,
			Narration: p.Narration,
		}
		if p.Amount.IsNegative() {
			row.Credit = p.Amount.Neg()
		} else {
			row.Debit = p.Amount
		}
		balance = balance.Add(p.Amount)
		row.Balance = balance
		rows = append(rows, row)
	}
	return rows
}
