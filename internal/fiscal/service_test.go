package fiscal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian/internal/ledger"
	"github.com/meridian-erp/meridian/internal/shared"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// memoryLedgerRepo is an in-memory ledger.RepositoryPort for close tests.
type memoryLedgerRepo struct {
	accounts map[int64]ledger.Account
	postings map[int64][]ledger.Posting
	years    map[int64]*ledger.FinancialYear
	vouchers []ledger.Voucher
	nextSeq  int64
	counter  int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		accounts: make(map[int64]ledger.Account),
		postings: make(map[int64][]ledger.Posting),
		years:    make(map[int64]*ledger.FinancialYear),
	}
}

func (r *memoryLedgerRepo) addAccount(acc ledger.Account) {
	r.accounts[acc.ID] = acc
}

func (r *memoryLedgerRepo) seed(accountID int64, p ledger.Posting) {
	r.nextSeq++
	p.Seq = r.nextSeq
	r.postings[accountID] = append(r.postings[accountID], p)
}

func (r *memoryLedgerRepo) GetAccount(ctx context.Context, companyID, accountID int64) (ledger.Account, error) {
	acc, ok := r.accounts[accountID]
	if !ok || acc.CompanyID != companyID {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return acc, nil
}

func (r *memoryLedgerRepo) ListAccounts(ctx context.Context, companyID int64) ([]ledger.Account, error) {
	var out []ledger.Account
	for _, acc := range r.accounts {
		if acc.CompanyID == companyID {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *memoryLedgerRepo) ListPostings(ctx context.Context, companyID, accountID int64, until time.Time) ([]ledger.Posting, error) {
	var out []ledger.Posting
	for _, p := range r.postings[accountID] {
		if p.Date.After(until) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryLedgerRepo) ListCompanyPostings(ctx context.Context, companyID int64, until time.Time) (map[int64][]ledger.Posting, error) {
	out := make(map[int64][]ledger.Posting)
	for id := range r.accounts {
		postings, _ := r.ListPostings(ctx, companyID, id, until)
		out[id] = postings
	}
	return out, nil
}

func (r *memoryLedgerRepo) ListCashMovements(ctx context.Context, companyID int64, from, to time.Time) ([]ledger.CashMovement, error) {
	return nil, nil
}

func (r *memoryLedgerRepo) GetYear(ctx context.Context, companyID, yearID int64) (ledger.FinancialYear, error) {
	y, ok := r.years[yearID]
	if !ok || y.CompanyID != companyID {
		return ledger.FinancialYear{}, ledger.ErrYearNotFound
	}
	return *y, nil
}

func (r *memoryLedgerRepo) GetYearForDate(ctx context.Context, companyID int64, date time.Time) (ledger.FinancialYear, error) {
	day := ledger.Day(date)
	for _, y := range r.years {
		if y.CompanyID != companyID {
			continue
		}
		if !day.Before(ledger.Day(y.StartDate)) && !day.After(ledger.Day(y.EndDate)) {
			return *y, nil
		}
	}
	return ledger.FinancialYear{}, ledger.ErrYearNotFound
}

func (r *memoryLedgerRepo) ListYears(ctx context.Context, companyID int64) ([]ledger.FinancialYear, error) {
	var out []ledger.FinancialYear
	for _, y := range r.years {
		if y.CompanyID == companyID {
			out = append(out, *y)
		}
	}
	return out, nil
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryLedgerRepo) GetYearForUpdate(ctx context.Context, companyID, yearID int64) (ledger.FinancialYear, error) {
	return r.GetYear(ctx, companyID, yearID)
}

func (r *memoryLedgerRepo) InsertVoucher(ctx context.Context, in ledger.PostVoucherInput) (ledger.Voucher, error) {
	r.counter++
	voucher := ledger.Voucher{
		ID:        r.counter,
		CompanyID: in.CompanyID,
		Number:    r.counter,
		Ref:       fmt.Sprintf("YE-%06d", r.counter),
		Type:      in.Type,
		Date:      ledger.Day(in.Date),
		Narration: in.Narration,
		CreatedBy: in.CreatedBy,
	}
	for _, e := range in.Entries {
		r.nextSeq++
		voucher.Entries = append(voucher.Entries, ledger.VoucherEntry{
			AccountID: e.AccountID,
			Amount:    e.Amount,
			Narration: e.Narration,
		})
		r.postings[e.AccountID] = append(r.postings[e.AccountID], ledger.Posting{
			Kind:        ledger.PostingKindVoucher,
			VoucherType: in.Type,
			Date:        voucher.Date,
			Ref:         voucher.Ref,
			Narration:   e.Narration,
			Amount:      e.Amount,
			Seq:         r.nextSeq,
		})
	}
	r.vouchers = append(r.vouchers, voucher)
	return voucher, nil
}

func (r *memoryLedgerRepo) MarkYearClosed(ctx context.Context, yearID, closedBy int64, closedAt time.Time) error {
	y, ok := r.years[yearID]
	if !ok {
		return ledger.ErrYearNotFound
	}
	if y.Status == ledger.YearStatusClosed {
		return ledger.ErrYearClosed
	}
	y.Status = ledger.YearStatusClosed
	y.ClosedBy = &closedBy
	y.ClosedAt = &closedAt
	return nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func tradingYearRepo() *memoryLedgerRepo {
	repo := newMemoryLedgerRepo()
	repo.years[1] = &ledger.FinancialYear{
		ID:        1,
		CompanyID: 1,
		Name:      "FY 2024",
		StartDate: d(2024, time.January, 1),
		EndDate:   d(2024, time.December, 31),
		Status:    ledger.YearStatusOpen,
	}
	repo.addAccount(ledger.Account{ID: 1, CompanyID: 1, Code: "3001", Name: "Capital", Type: ledger.AccountTypeCapital})
	repo.addAccount(ledger.Account{ID: 2, CompanyID: 1, Code: "4001", Name: "Sales", Type: ledger.AccountTypeIncome})
	repo.addAccount(ledger.Account{ID: 3, CompanyID: 1, Code: "5001", Name: "Rent", Type: ledger.AccountTypeExpense})
	repo.addAccount(ledger.Account{ID: 4, CompanyID: 1, Code: "1001", Name: "Cash", PartyType: ledger.PartyTypeCash})

	// Sales 1000 credit, rent 400 debit: net profit 600.
	repo.seed(2, ledger.Posting{Kind: ledger.PostingKindVoucher, VoucherType: ledger.VoucherTypeCRV, Date: d(2024, time.March, 1), Ref: "CRV-000001", Amount: dec(-1000)})
	repo.seed(3, ledger.Posting{Kind: ledger.PostingKindVoucher, VoucherType: ledger.VoucherTypeCPV, Date: d(2024, time.April, 1), Ref: "CPV-000001", Amount: dec(400)})
	repo.seed(4, ledger.Posting{Kind: ledger.PostingKindVoucher, VoucherType: ledger.VoucherTypeCRV, Date: d(2024, time.March, 1), Ref: "CRV-000001", Amount: dec(1000)})
	repo.seed(4, ledger.Posting{Kind: ledger.PostingKindVoucher, VoucherType: ledger.VoucherTypeCPV, Date: d(2024, time.April, 1), Ref: "CPV-000001", Amount: dec(-400)})
	return repo
}

func TestCloseYearPostsClosingVoucher(t *testing.T) {
	repo := tradingYearRepo()
	audit := &memoryAudit{}
	svc := NewService(repo, audit)
	svc.WithNow(func() time.Time { return d(2025, time.January, 5) })

	voucher, err := svc.CloseYear(context.Background(), CloseYearInput{CompanyID: 1, YearID: 1, ActorID: 9})
	require.NoError(t, err)
	require.Equal(t, ledger.VoucherTypeYearEnd, voucher.Type)
	require.Len(t, voucher.Entries, 3)

	// The closing entries zero income and expense and move the profit to
	// capital's credit side.
	byAccount := make(map[int64]decimal.Decimal)
	for _, e := range voucher.Entries {
		byAccount[e.AccountID] = e.Amount
	}
	require.True(t, byAccount[2].Equal(dec(1000)))
	require.True(t, byAccount[3].Equal(dec(-400)))
	require.True(t, byAccount[1].Equal(dec(-600)))

	asOf := d(2024, time.December, 31)
	for _, id := range []int64{2, 3} {
		postings, err := repo.ListPostings(context.Background(), 1, id, ledger.EndOfDay(asOf))
		require.NoError(t, err)
		require.True(t, ledger.BalanceAsOf(repo.accounts[id], postings, asOf).IsZero())
	}

	year, err := repo.GetYear(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, ledger.YearStatusClosed, year.Status)
	require.NotNil(t, year.ClosedAt)
	require.Equal(t, int64(9), *year.ClosedBy)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "year.close", audit.logs[0].Action)
}

func TestCloseYearIsIrreversible(t *testing.T) {
	repo := tradingYearRepo()
	svc := NewService(repo, nil)

	_, err := svc.CloseYear(context.Background(), CloseYearInput{CompanyID: 1, YearID: 1, ActorID: 9})
	require.NoError(t, err)

	_, err = svc.CloseYear(context.Background(), CloseYearInput{CompanyID: 1, YearID: 1, ActorID: 9})
	require.ErrorIs(t, err, ledger.ErrYearClosed)

	// Exactly one closing voucher exists after the retry.
	require.Len(t, repo.vouchers, 1)
}

func TestCloseYearRequiresCapitalAccount(t *testing.T) {
	repo := tradingYearRepo()
	delete(repo.accounts, 1)
	svc := NewService(repo, nil)

	_, err := svc.CloseYear(context.Background(), CloseYearInput{CompanyID: 1, YearID: 1, ActorID: 9})
	require.ErrorIs(t, err, ErrNoCapitalAccount)

	year, err := repo.GetYear(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, ledger.YearStatusOpen, year.Status)
	require.Empty(t, repo.vouchers)
}

func TestCloseYearRejectsDateOutsideYear(t *testing.T) {
	repo := tradingYearRepo()
	svc := NewService(repo, nil)

	_, err := svc.CloseYear(context.Background(), CloseYearInput{
		CompanyID: 1,
		YearID:    1,
		ActorID:   9,
		CloseDate: d(2025, time.June, 1),
	})
	require.ErrorIs(t, err, ErrCloseDateOutsideYear)
}

func TestCloseYearWithNoActivityStillCloses(t *testing.T) {
	repo := newMemoryLedgerRepo()
	repo.years[1] = &ledger.FinancialYear{
		ID:        1,
		CompanyID: 1,
		Name:      "FY 2024",
		StartDate: d(2024, time.January, 1),
		EndDate:   d(2024, time.December, 31),
		Status:    ledger.YearStatusOpen,
	}
	repo.addAccount(ledger.Account{ID: 1, CompanyID: 1, Code: "3001", Name: "Capital", Type: ledger.AccountTypeCapital})
	svc := NewService(repo, nil)

	voucher, err := svc.CloseYear(context.Background(), CloseYearInput{CompanyID: 1, YearID: 1, ActorID: 9})
	require.NoError(t, err)
	require.Empty(t, voucher.Entries)
	require.Empty(t, repo.vouchers)

	year, err := repo.GetYear(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Equal(t, ledger.YearStatusClosed, year.Status)
}

func TestCloseYearBreakEvenOmitsCapitalEntry(t *testing.T) {
	repo := tradingYearRepo()
	// Extra expense of 600 makes income and expense cancel exactly.
	repo.seed(3, ledger.Posting{Kind: ledger.PostingKindVoucher, VoucherType: ledger.VoucherTypeCPV, Date: d(2024, time.May, 1), Ref: "CPV-000002", Amount: dec(600)})
	repo.seed(4, ledger.Posting{Kind: ledger.PostingKindVoucher, VoucherType: ledger.VoucherTypeCPV, Date: d(2024, time.May, 1), Ref: "CPV-000002", Amount: dec(-600)})
	svc := NewService(repo, nil)

	voucher, err := svc.CloseYear(context.Background(), CloseYearInput{CompanyID: 1, YearID: 1, ActorID: 9})
	require.NoError(t, err)
	require.Len(t, voucher.Entries, 2)
	for _, e := range voucher.Entries {
		require.NotEqual(t, int64(1), e.AccountID)
	}
}

func TestListYearsRequiresCompany(t *testing.T) {
	svc := NewService(newMemoryLedgerRepo(), nil)

	_, err := svc.ListYears(context.Background(), 0)
	require.ErrorIs(t, err, ledger.ErrCompanyRequired)
}
