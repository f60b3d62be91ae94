package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/shared"
)

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates voucher posting and the per-account report primitives.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the ledger service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// PostVoucher validates and persists a new voucher atomically. The voucher
// number comes from an atomic counter inside the same transaction, so
// concurrent writers for one company can never collide.
func (s *Service) PostVoucher(ctx context.Context, in PostVoucherInput) (Voucher, error) {
	if err := in.Validate(); err != nil {
		return Voucher{}, err
	}
	var voucher Voucher
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		year, err := tx.GetYearForDate(ctx, in.CompanyID, in.Date)
		if err != nil {
			return err
		}
		if year.Status == YearStatusClosed {
			return ErrYearClosed
		}
		voucher, err = tx.InsertVoucher(ctx, in)
		return err
	})
	if err != nil {
		return Voucher{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  in.CreatedBy,
			Action:   "voucher.post",
			Entity:   "voucher",
			EntityID: fmt.Sprintf("%d", voucher.ID),
			Meta: map[string]any{
				"company_id": in.CompanyID,
				"type":       string(in.Type),
				"ref":        voucher.Ref,
			},
			At: s.now(),
		})
	}
	return voucher, nil
}

// AccountBalance returns the account's signed balance at the end of asOf.
func (s *Service) AccountBalance(ctx context.Context, companyID, accountID int64, asOf time.Time) (decimal.Decimal, error) {
	if companyID == 0 {
		return decimal.Zero, ErrCompanyRequired
	}
	if accountID == 0 {
		return decimal.Zero, ErrAccountRequired
	}
	acc, err := s.repo.GetAccount(ctx, companyID, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	postings, err := s.repo.ListPostings(ctx, companyID, accountID, EndOfDay(asOf))
	if err != nil {
		return decimal.Zero, err
	}
	return BalanceAsOf(acc, postings, asOf), nil
}

// Ledger composes the account statement for [from, to].
func (s *Service) Ledger(ctx context.Context, companyID, accountID int64, from, to time.Time) (Account, []LedgerRow, error) {
	if companyID == 0 {
		return Account{}, nil, ErrCompanyRequired
	}
	if accountID == 0 {
		return Account{}, nil, ErrAccountRequired
	}
	if Day(from).After(Day(to)) {
		return Account{}, nil, ErrInvalidRange
	}
	acc, err := s.repo.GetAccount(ctx, companyID, accountID)
	if err != nil {
		return Account{}, nil, err
	}
	postings, err := s.repo.ListPostings(ctx, companyID, accountID, EndOfDay(to))
	if err != nil {
		return Account{}, nil, err
	}
	return acc, ComposeLedger(acc, postings, from, to), nil
}

// Ageing allocates credits against the party account's bills as of a date.
// When side is empty it is derived from the account's party type.
func (s *Service) Ageing(ctx context.Context, companyID, accountID int64, side AgeingSide, asOf time.Time) (AgeingResult, error) {
	if companyID == 0 {
		return AgeingResult{}, ErrCompanyRequired
	}
	if accountID == 0 {
		return AgeingResult{}, ErrAccountRequired
	}
	acc, err := s.repo.GetAccount(ctx, companyID, accountID)
	if err != nil {
		return AgeingResult{}, err
	}
	if side == "" {
		if acc.PartyType == PartyTypeSupplier {
			side = AgeingPayable
		} else {
			side = AgeingReceivable
		}
	}
	postings, err := s.repo.ListPostings(ctx, companyID, accountID, EndOfDay(asOf))
	if err != nil {
		return AgeingResult{}, err
	}
	bills, pool := SplitBillsAndCredits(postings, side, asOf)
	return AllocateBills(bills, pool, asOf), nil
}
