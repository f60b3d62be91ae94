package ledger

import (
	"context"
	"time"
)

// ReaderPort exposes the read side of the entry repository. Every method is
// scoped by company; no computation may cross the tenant boundary.
type ReaderPort interface {
	GetAccount(ctx context.Context, companyID, accountID int64) (Account, error)
	ListAccounts(ctx context.Context, companyID int64) ([]Account, error)
	// ListPostings returns the unified voucher/invoice/return stream for one
	// account, dated on or before until, in insertion order.
	ListPostings(ctx context.Context, companyID, accountID int64, until time.Time) ([]Posting, error)
	// ListCompanyPostings returns the posting stream for every account in the
	// company, keyed by account id.
	ListCompanyPostings(ctx context.Context, companyID int64, until time.Time) (map[int64][]Posting, error)
	// ListCashMovements returns signed cash/bank impacts in [from, to] paired
	// with their counter-accounts.
	ListCashMovements(ctx context.Context, companyID int64, from, to time.Time) ([]CashMovement, error)
	GetYear(ctx context.Context, companyID, yearID int64) (FinancialYear, error)
	GetYearForDate(ctx context.Context, companyID int64, date time.Time) (FinancialYear, error)
	ListYears(ctx context.Context, companyID int64) ([]FinancialYear, error)
}

// TxRepository exposes operations available inside a transaction.
type TxRepository interface {
	// InsertVoucher persists a voucher header with its entries as one unit and
	// allocates the voucher number from an atomic per-company counter. Callers
	// must have validated the input first.
	InsertVoucher(ctx context.Context, in PostVoucherInput) (Voucher, error)
	GetYearForUpdate(ctx context.Context, companyID, yearID int64) (FinancialYear, error)
	GetYearForDate(ctx context.Context, companyID int64, date time.Time) (FinancialYear, error)
	ListAccounts(ctx context.Context, companyID int64) ([]Account, error)
	ListPostings(ctx context.Context, companyID, accountID int64, until time.Time) ([]Posting, error)
	MarkYearClosed(ctx context.Context, yearID, closedBy int64, closedAt time.Time) error
}

// RepositoryPort is the full repository contract: reads plus transactional
// writes. It is injected per service, never shared through package globals,
// so tests can substitute an in-memory fake.
type RepositoryPort interface {
	ReaderPort
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}
