package reports

import (
	"github.com/meridian-erp/meridian/internal/ledger"
)

// Bucket is the reporting classification of an account.
type Bucket string

const (
	BucketAsset     Bucket = "ASSET"
	BucketLiability Bucket = "LIABILITY"
	BucketEquity    Bucket = "EQUITY"
	BucketIncome    Bucket = "INCOME"
	BucketExpense   Bucket = "EXPENSE"
	BucketOther     Bucket = "OTHER"
)

// Activity is a cash flow statement section.
type Activity string

const (
	ActivityOperating Activity = "OPERATING"
	ActivityInvesting Activity = "INVESTING"
	ActivityFinancing Activity = "FINANCING"
)

// Classify buckets an account for reporting. Party type heuristics take
// precedence over the generic type field: a customer is always a receivable
// asset and a supplier always a payable liability, whatever their nominal
// type says. Accounts matching neither heuristic fall into BucketOther; both
// the balance sheet and the cash flow treat that bucket the same way
// (excluded from section totals).
func Classify(acc ledger.Account) Bucket {
	switch acc.PartyType {
	case ledger.PartyTypeCustomer:
		return BucketAsset
	case ledger.PartyTypeSupplier:
		return BucketLiability
	case ledger.PartyTypeBanks, ledger.PartyTypeCash, ledger.PartyTypeEmployee:
		return BucketAsset
	}
	switch acc.Type {
	case ledger.AccountTypeAsset:
		return BucketAsset
	case ledger.AccountTypeLiability:
		return BucketLiability
	case ledger.AccountTypeEquity, ledger.AccountTypeCapital:
		return BucketEquity
	case ledger.AccountTypeIncome, ledger.AccountTypeRevenue:
		return BucketIncome
	case ledger.AccountTypeExpense, ledger.AccountTypeCost:
		return BucketExpense
	}
	return BucketOther
}

// ActivityFor maps the counter-account of a cash movement to its cash flow
// section: revenue, expense, and trade parties are operating; non-cash assets
// are investing; liabilities, equity, and capital are financing. Counter
// accounts bucketed OTHER report no activity (ok=false).
func ActivityFor(counter ledger.Account) (Activity, bool) {
	switch counter.PartyType {
	case ledger.PartyTypeCustomer, ledger.PartyTypeSupplier:
		return ActivityOperating, true
	}
	switch Classify(counter) {
	case BucketIncome, BucketExpense:
		return ActivityOperating, true
	case BucketAsset:
		return ActivityInvesting, true
	case BucketLiability, BucketEquity:
		return ActivityFinancing, true
	}
	return "", false
}
