package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeCapital   AccountType = "CAPITAL"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
	AccountTypeCost      AccountType = "COST"
)

// PartyType marks accounts that represent an external or internal party.
// It takes precedence over AccountType when classifying for reports.
type PartyType string

const (
	PartyTypeCustomer PartyType = "CUSTOMER"
	PartyTypeSupplier PartyType = "SUPPLIER"
	PartyTypeBanks    PartyType = "BANKS"
	PartyTypeCash     PartyType = "CASH"
	PartyTypeEmployee PartyType = "EMPLOYEE"
)

// VoucherType enumerates transaction header types.
type VoucherType string

const (
	VoucherTypeCPV        VoucherType = "CPV"
	VoucherTypeCRV        VoucherType = "CRV"
	VoucherTypeContra     VoucherType = "CONTRA"
	VoucherTypeJournal    VoucherType = "JOURNAL"
	VoucherTypeExpense    VoucherType = "EXPENSE"
	VoucherTypeSale       VoucherType = "SALE"
	VoucherTypePurchase   VoucherType = "PURCHASE"
	VoucherTypeSaleReturn VoucherType = "SALE_RETURN"
	VoucherTypeYearEnd    VoucherType = "YEAR_END"
)

// YearStatus enumerates financial year lifecycle states. The transition
// OPEN -> CLOSED is terminal.
type YearStatus string

const (
	YearStatusOpen   YearStatus = "OPEN"
	YearStatusClosed YearStatus = "CLOSED"
)

// PostingKind identifies the source table a posting was read from.
type PostingKind string

const (
	PostingKindVoucher         PostingKind = "VOUCHER"
	PostingKindSaleInvoice     PostingKind = "SALE_INVOICE"
	PostingKindPurchaseInvoice PostingKind = "PURCHASE_INVOICE"
	PostingKindSaleReturn      PostingKind = "SALE_RETURN"
)

// Account models a chart of accounts node scoped to a company.
type Account struct {
	ID         int64
	CompanyID  int64
	Code       string
	Name       string
	Type       AccountType
	PartyType  PartyType
	OpenDebit  decimal.Decimal
	OpenCredit decimal.Decimal
	OpenDate   time.Time
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// OpeningNet returns openDebit - openCredit.
func (a Account) OpeningNet() decimal.Decimal {
	return a.OpenDebit.Sub(a.OpenCredit)
}

// OpenedWithin reports whether the account's opening date falls inside
// [from, to] on day boundaries.
func (a Account) OpenedWithin(from, to time.Time) bool {
	if a.OpenDate.IsZero() {
		return false
	}
	open := Day(a.OpenDate)
	return !open.Before(Day(from)) && !open.After(Day(to))
}

// IsCashLike reports whether the account holds cash or bank money.
func (a Account) IsCashLike() bool {
	return a.PartyType == PartyTypeCash || a.PartyType == PartyTypeBanks
}

// Voucher is a dated transaction header owning two or more entries.
type Voucher struct {
	ID        int64
	CompanyID int64
	Number    int64
	Ref       string
	Type      VoucherType
	Date      time.Time
	Narration string
	CreatedBy int64
	CreatedAt time.Time
	Entries   []VoucherEntry
}

// VoucherEntry is a signed posting against one account. Positive amounts
// increase the debit side. Entries are never mutated in place; corrections
// happen via new offsetting vouchers.
type VoucherEntry struct {
	ID        int64
	VoucherID int64
	AccountID int64
	Amount    decimal.Decimal
	Narration string
	CreatedAt time.Time
}

// FinancialYear is a company-scoped fiscal period.
type FinancialYear struct {
	ID        int64
	CompanyID int64
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    YearStatus
	ClosedBy  *int64
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Posting is one signed movement against an account, drawn from the unified
// stream of vouchers and quasi-ledger records (invoices, returns). Seq is the
// stable insertion-order tiebreak for same-day postings.
type Posting struct {
	Kind        PostingKind
	VoucherType VoucherType
	Date        time.Time
	Ref         string
	Narration   string
	Amount      decimal.Decimal
	Seq         int64
}

// IsMirror reports whether the posting is the voucher-side mirror of an
// invoice or return that the stream already carries as its own row. Mirrors
// must be excluded before any balance or ledger computation to avoid double
// counting; the check is by transaction kind, never by value matching.
func (p Posting) IsMirror() bool {
	if p.Kind != PostingKindVoucher {
		return false
	}
	switch p.VoucherType {
	case VoucherTypeSale, VoucherTypePurchase, VoucherTypeSaleReturn:
		return true
	}
	return strings.HasPrefix(p.Ref, "INV-") || strings.HasPrefix(p.Ref, "PUR-") || strings.HasPrefix(p.Ref, "SRN-")
}

// Bill is an outstanding invoice considered by the ageing allocator.
type Bill struct {
	Ref       string
	Date      time.Time
	Narration string
	Amount    decimal.Decimal
	Seq       int64
}

// CashMovement is one cash or bank impact paired with its counter-account.
type CashMovement struct {
	Date    time.Time
	Ref     string
	Amount  decimal.Decimal
	Counter Account
}

var (
	// ErrCompanyRequired indicates a missing tenant identifier.
	ErrCompanyRequired = errors.New("ledger: company id required")
	// ErrAccountRequired indicates a missing account identifier.
	ErrAccountRequired = errors.New("ledger: account id required")
	// ErrAccountNotFound indicates the account does not exist in the company.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrTooFewEntries indicates a voucher with less than two entries.
	ErrTooFewEntries = errors.New("ledger: voucher requires at least two entries")
	// ErrUnbalanced indicates voucher entries do not sum to zero.
	ErrUnbalanced = errors.New("ledger: voucher entries must sum to zero")
	// ErrZeroAmountEntry indicates an entry with amount zero.
	ErrZeroAmountEntry = errors.New("ledger: voucher entry amount cannot be zero")
	// ErrYearNotFound indicates no financial year covers the voucher date.
	ErrYearNotFound = errors.New("ledger: no financial year for date")
	// ErrYearClosed indicates a write into a closed financial year.
	ErrYearClosed = errors.New("ledger: financial year is closed")
	// ErrInvalidRange indicates from is after to.
	ErrInvalidRange = errors.New("ledger: from date after to date")
)

// EntryInput describes one voucher line in a posting request.
type EntryInput struct {
	AccountID int64
	Amount    decimal.Decimal
	Narration string
}

// PostVoucherInput groups fields required to create a voucher.
type PostVoucherInput struct {
	CompanyID int64
	Type      VoucherType
	Date      time.Time
	Narration string
	CreatedBy int64
	Entries   []EntryInput
}

// Validate enforces the double-entry invariant at write time: every voucher
// must carry at least two non-zero entries whose signed amounts sum to zero.
func (in PostVoucherInput) Validate() error {
	if in.CompanyID == 0 {
		return ErrCompanyRequired
	}
	if in.Type == "" {
		return errors.New("ledger: voucher type required")
	}
	if in.Date.IsZero() {
		return errors.New("ledger: voucher date required")
	}
	if len(in.Entries) < 2 {
		return ErrTooFewEntries
	}
	sum := decimal.Zero
	for idx, entry := range in.Entries {
		if entry.AccountID == 0 {
			return fmt.Errorf("ledger: entry %d missing account", idx)
		}
		if entry.Amount.IsZero() {
			return ErrZeroAmountEntry
		}
		sum = sum.Add(entry.Amount)
	}
	if !sum.IsZero() {
		return ErrUnbalanced
	}
	return nil
}

// Day truncates t to its UTC day boundary.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's UTC day, making the
// "to" boundary of range filters inclusive.
func EndOfDay(t time.Time) time.Time {
	return Day(t).Add(24*time.Hour - time.Millisecond)
}
