package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceAsOf returns the account's signed closing balance at the end of the
// asOf day: opening net (when openDate <= asOf) plus every non-mirror posting
// dated on or before asOf. Postings must already be scoped to the account's
// company. Pure; an account with no activity yields its opening net unchanged.
func BalanceAsOf(acc Account, postings []Posting, asOf time.Time) decimal.Decimal {
	cutoff := Day(asOf)
	balance := decimal.Zero
	if !acc.OpenDate.IsZero() && !Day(acc.OpenDate).After(cutoff) {
		balance = acc.OpeningNet()
	}
	for _, p := range postings {
		if p.IsMirror() {
			continue
		}
		if Day(p.Date).After(cutoff) {
			continue
		}
		balance = balance.Add(p.Amount)
	}
	return balance
}

// PeriodMovement sums non-mirror postings dated within [from, to] into
// separate debit and credit totals.
func PeriodMovement(postings []Posting, from, to time.Time) (debit, credit decimal.Decimal) {
	lo, hi := Day(from), Day(to)
	debit, credit = decimal.Zero, decimal.Zero
	for _, p := range postings {
		if p.IsMirror() {
			continue
		}
		d := Day(p.Date)
		if d.Before(lo) || d.After(hi) {
			continue
		}
		if p.Amount.IsNegative() {
			credit = credit.Add(p.Amount.Neg())
		} else {
			debit = debit.Add(p.Amount)
		}
	}
	return debit, credit
}
