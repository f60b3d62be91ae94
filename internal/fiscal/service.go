package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/ledger"
	"github.com/meridian-erp/meridian/internal/shared"
)

// AuditPort records close events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service performs the irreversible year-end close: it zeroes every income
// and expense account into the company's capital account through one
// synthetic YEAR_END voucher and stamps the year CLOSED. The transition is
// terminal; a second invocation is rejected by the state machine, never
// silently re-applied.
type Service struct {
	repo  ledger.RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the fiscal service.
func NewService(repo ledger.RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// ListYears returns the company's financial years.
func (s *Service) ListYears(ctx context.Context, companyID int64) ([]ledger.FinancialYear, error) {
	if companyID == 0 {
		return nil, ledger.ErrCompanyRequired
	}
	return s.repo.ListYears(ctx, companyID)
}

func isIncomeType(t ledger.AccountType) bool {
	return t == ledger.AccountTypeIncome || t == ledger.AccountTypeRevenue
}

func isExpenseType(t ledger.AccountType) bool {
	return t == ledger.AccountTypeExpense || t == ledger.AccountTypeCost
}

// CloseYear executes the close as one atomic transaction: the row-locked
// status check, the closing voucher, and the CLOSED stamp either all succeed
// or all fail together. Returns the closing voucher; a voucher with no
// entries (nothing to close) still transitions the year but writes nothing.
func (s *Service) CloseYear(ctx context.Context, in CloseYearInput) (ledger.Voucher, error) {
	if err := in.Validate(); err != nil {
		return ledger.Voucher{}, err
	}
	var voucher ledger.Voucher
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx ledger.TxRepository) error {
		year, err := tx.GetYearForUpdate(ctx, in.CompanyID, in.YearID)
		if err != nil {
			return err
		}
		if year.Status == ledger.YearStatusClosed {
			return ledger.ErrYearClosed
		}
		closeDate := in.CloseDate
		if closeDate.IsZero() {
			closeDate = year.EndDate
		}
		closeDate = ledger.Day(closeDate)
		if closeDate.Before(ledger.Day(year.StartDate)) || closeDate.After(ledger.Day(year.EndDate)) {
			return ErrCloseDateOutsideYear
		}

		accounts, err := tx.ListAccounts(ctx, in.CompanyID)
		if err != nil {
			return err
		}
		var capital *ledger.Account
		for i := range accounts {
			if accounts[i].Type == ledger.AccountTypeCapital {
				capital = &accounts[i]
				break
			}
		}
		if capital == nil {
			return ErrNoCapitalAccount
		}

		var entries []ledger.EntryInput
		profit := decimal.Zero
		for _, acc := range accounts {
			if !isIncomeType(acc.Type) && !isExpenseType(acc.Type) {
				continue
			}
			postings, err := tx.ListPostings(ctx, in.CompanyID, acc.ID, ledger.EndOfDay(closeDate))
			if err != nil {
				return err
			}
			balance := ledger.BalanceAsOf(acc, postings, closeDate)
			if balance.IsZero() {
				continue
			}
			// Posting the negation zeroes the account; the sum of these
			// negations is the net profit (income credits minus expense
			// debits).
			entries = append(entries, ledger.EntryInput{
				AccountID: acc.ID,
				Amount:    balance.Neg(),
				Narration: fmt.Sprintf("Year end close %s", acc.Code),
			})
			profit = profit.Add(balance.Neg())
		}

		if len(entries) > 0 {
			if !profit.IsZero() {
				// Profit posts to capital's credit side.
				entries = append(entries, ledger.EntryInput{
					AccountID: capital.ID,
					Amount:    profit.Neg(),
					Narration: "Net profit for the year",
				})
			}
			posting := ledger.PostVoucherInput{
				CompanyID: in.CompanyID,
				Type:      ledger.VoucherTypeYearEnd,
				Date:      closeDate,
				Narration: fmt.Sprintf("Year end closing %s", year.Name),
				CreatedBy: in.ActorID,
				Entries:   entries,
			}
			if err := posting.Validate(); err != nil {
				return err
			}
			voucher, err = tx.InsertVoucher(ctx, posting)
			if err != nil {
				return err
			}
		}
		return tx.MarkYearClosed(ctx, in.YearID, in.ActorID, s.now())
	})
	if err != nil {
		return ledger.Voucher{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  in.ActorID,
			Action:   "year.close",
			Entity:   "financial_year",
			EntityID: fmt.Sprintf("%d", in.YearID),
			Meta: map[string]any{
				"company_id":  in.CompanyID,
				"voucher_ref": voucher.Ref,
			},
			At: s.now(),
		})
	}
	return voucher, nil
}
