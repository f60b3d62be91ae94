package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AgeingSide selects which quasi-ledger records count as bills.
type AgeingSide string

const (
	AgeingReceivable AgeingSide = "RECEIVABLE"
	AgeingPayable    AgeingSide = "PAYABLE"
)

// AgeingRow is one unpaid (or partially paid) bill after FIFO allocation.
type AgeingRow struct {
	BillRef    string
	Date       time.Time
	Narration  string
	BillAmount decimal.Decimal
	Balance    decimal.Decimal
	AgeDays    int
	Cumulative decimal.Decimal
}

// AgeingBuckets holds day-range totals over the emitted rows.
type AgeingBuckets struct {
	Days0To30  decimal.Decimal
	Days31To60 decimal.Decimal
	Days61To90 decimal.Decimal
	Over90     decimal.Decimal
}

// AgeingResult is the ageing report payload for one party account.
type AgeingResult struct {
	Rows        []AgeingRow
	Buckets     AgeingBuckets
	Outstanding decimal.Decimal
}

// SplitBillsAndCredits partitions a party account's posting stream as of a
// date into outstanding bills and the credit pool available to settle them.
// For receivables the bills are sale invoices and every other posting that
// reduces the balance (receipts, returns, journal credits) feeds the pool;
// for payables the roles flip sign. Mirror vouchers are skipped.
func SplitBillsAndCredits(postings []Posting, side AgeingSide, asOf time.Time) ([]Bill, decimal.Decimal) {
	cutoff := Day(asOf)
	var bills []Bill
	pool := decimal.Zero
	for _, p := range postings {
		if p.IsMirror() || Day(p.Date).After(cutoff) {
			continue
		}
		switch side {
		case AgeingPayable:
			if p.Kind == PostingKindPurchaseInvoice && p.Amount.IsNegative() {
				bills = append(bills, Bill{Ref: p.Ref, Date: Day(p.Date), Narration: p.Narration, Amount: p.Amount.Neg(), Seq: p.Seq})
			} else if p.Amount.IsPositive() {
				pool = pool.Add(p.Amount)
			}
		default:
			if p.Kind == PostingKindSaleInvoice && p.Amount.IsPositive() {
				bills = append(bills, Bill{Ref: p.Ref, Date: Day(p.Date), Narration: p.Narration, Amount: p.Amount, Seq: p.Seq})
			} else if p.Amount.IsNegative() {
				pool = pool.Add(p.Amount.Neg())
			}
		}
	}
	return bills, pool
}

// AllocateBills applies the credit pool to bills oldest-first: the oldest
// unpaid bill absorbs credit until it is settled or the pool runs out, and
// only then does allocation advance. A bill settled in this pass is never
// re-opened; the whole allocation is recomputed fresh for each as-of date.
// Bills with a remaining balance are emitted with their age in whole days and
// a cumulative running total. An over-large pool is simply left unused.
func AllocateBills(bills []Bill, pool decimal.Decimal, asOf time.Time) AgeingResult {
	sorted := make([]Bill, len(bills))
	copy(sorted, bills)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	cutoff := Day(asOf)
	result := AgeingResult{Outstanding: decimal.Zero}
	result.Buckets = AgeingBuckets{
		Days0To30:  decimal.Zero,
		Days31To60: decimal.Zero,
		Days61To90: decimal.Zero,
		Over90:     decimal.Zero,
	}
	cumulative := decimal.Zero
	remainingPool := pool

	for _, bill := range sorted {
		balance := bill.Amount
		if remainingPool.IsPositive() {
			if remainingPool.GreaterThanOrEqual(balance) {
				remainingPool = remainingPool.Sub(balance)
				continue
			}
			balance = balance.Sub(remainingPool)
			remainingPool = decimal.Zero
		}
		if !balance.IsPositive() {
			continue
		}
		days := int(cutoff.Sub(Day(bill.Date)).Hours() / 24)
		cumulative = cumulative.Add(balance)
		row := AgeingRow{
			BillRef:    bill.Ref,
			Date:       bill.Date,
			Narration:  bill.Narration,
			BillAmount: bill.Amount,
			Balance:    balance,
			AgeDays:    days,
			Cumulative: cumulative,
		}
		result.Rows = append(result.Rows, row)
		result.Outstanding = result.Outstanding.Add(balance)
		switch {
		case days <= 30:
			result.Buckets.Days0To30 = result.Buckets.Days0To30.Add(balance)
		case days <= 60:
			result.Buckets.Days31To60 = result.Buckets.Days31To60.Add(balance)
		case days <= 90:
			result.Buckets.Days61To90 = result.Buckets.Days61To90.Add(balance)
		default:
			result.Buckets.Over90 = result.Buckets.Over90.Add(balance)
		}
	}
	return result
}
