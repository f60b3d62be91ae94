package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/platform/db"
)

// Repository persists ledger entities in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

const accountColumns = `id, company_id, code, name, type, COALESCE(party_type, ''), open_debit, open_credit, open_date, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var openDebit, openCredit string
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.PartyType, &openDebit, &openCredit, &a.OpenDate, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	if a.OpenDebit, err = decimal.NewFromString(openDebit); err != nil {
		return Account{}, fmt.Errorf("ledger: parse open_debit: %w", err)
	}
	if a.OpenCredit, err = decimal.NewFromString(openCredit); err != nil {
		return Account{}, fmt.Errorf("ledger: parse open_credit: %w", err)
	}
	return a, nil
}

func getAccount(ctx context.Context, q querier, companyID, accountID int64) (Account, error) {
	row := q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id = $1 AND id = $2`, companyID, accountID)
	acc, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return acc, err
}

func listAccounts(ctx context.Context, q querier, companyID int64) ([]Account, error) {
	rows, err := q.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id = $1 ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// postingUnion merges voucher entries with the quasi-ledger tables into one
// stream. Invoices and returns post against the party account with the sign
// of their balance impact; seq preserves insertion order inside each day.
const postingUnion = `
SELECT 'VOUCHER' AS kind, v.type AS voucher_type, v.date, v.ref, COALESCE(e.narration, v.narration), e.amount, e.id AS seq, e.account_id
FROM voucher_entries e
JOIN vouchers v ON v.id = e.voucher_id
WHERE v.company_id = $1 AND v.date <= $2
UNION ALL
SELECT 'SALE_INVOICE', '', si.date, si.ref, si.narration, si.total, si.id, si.account_id
FROM sales_invoices si
WHERE si.company_id = $1 AND si.date <= $2
UNION ALL
SELECT 'PURCHASE_INVOICE', '', pi.date, pi.ref, pi.narration, -pi.total, pi.id, pi.account_id
FROM purchase_invoices pi
WHERE pi.company_id = $1 AND pi.date <= $2
UNION ALL
SELECT 'SALE_RETURN', '', sr.date, sr.ref, sr.narration, -sr.total, sr.id, sr.account_id
FROM sale_returns sr
WHERE sr.company_id = $1 AND sr.date <= $2`

func listPostings(ctx context.Context, q querier, companyID, accountID int64, until time.Time) ([]Posting, error) {
	rows, err := q.Query(ctx, `SELECT kind, voucher_type, date, ref, narration, amount, seq FROM (`+postingUnion+`) p WHERE p.account_id = $3 ORDER BY date, seq`, companyID, until, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var postings []Posting
	for rows.Next() {
		p, _, err := scanPosting(rows, false)
		if err != nil {
			return nil, err
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func scanPosting(rows pgx.Rows, withAccount bool) (Posting, int64, error) {
	var p Posting
	var amount string
	var accountID int64
	var err error
	if withAccount {
		err = rows.Scan(&p.Kind, &p.VoucherType, &p.Date, &p.Ref, &p.Narration, &amount, &p.Seq, &accountID)
	} else {
		err = rows.Scan(&p.Kind, &p.VoucherType, &p.Date, &p.Ref, &p.Narration, &amount, &p.Seq)
	}
	if err != nil {
		return Posting{}, 0, err
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return Posting{}, 0, fmt.Errorf("ledger: parse posting amount: %w", err)
	}
	return p, accountID, nil
}

// GetAccount implements ReaderPort.
func (r *Repository) GetAccount(ctx context.Context, companyID, accountID int64) (Account, error) {
	return getAccount(ctx, r.pool, companyID, accountID)
}

// ListAccounts implements ReaderPort.
func (r *Repository) ListAccounts(ctx context.Context, companyID int64) ([]Account, error) {
	return listAccounts(ctx, r.pool, companyID)
}

// ListPostings implements ReaderPort.
func (r *Repository) ListPostings(ctx context.Context, companyID, accountID int64, until time.Time) ([]Posting, error) {
	return listPostings(ctx, r.pool, companyID, accountID, until)
}

// ListCompanyPostings implements ReaderPort.
func (r *Repository) ListCompanyPostings(ctx context.Context, companyID int64, until time.Time) (map[int64][]Posting, error) {
	rows, err := r.pool.Query(ctx, `SELECT kind, voucher_type, date, ref, narration, amount, seq, account_id FROM (`+postingUnion+`) p ORDER BY date, seq`, companyID, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byAccount := make(map[int64][]Posting)
	for rows.Next() {
		p, accountID, err := scanPosting(rows, true)
		if err != nil {
			return nil, err
		}
		byAccount[accountID] = append(byAccount[accountID], p)
	}
	return byAccount, rows.Err()
}

// ListCashMovements implements ReaderPort. For every voucher that touches a
// cash or bank account, each non-cash entry contributes one movement whose
// amount is the cash impact of that counter line.
func (r *Repository) ListCashMovements(ctx context.Context, companyID int64, from, to time.Time) ([]CashMovement, error) {
	rows, err := r.pool.Query(ctx, `
SELECT v.date, v.ref, -(e.amount), `+prefixedAccountColumns("a")+`
FROM vouchers v
JOIN voucher_entries e ON e.voucher_id = v.id
JOIN accounts a ON a.id = e.account_id
WHERE v.company_id = $1 AND v.date >= $2 AND v.date <= $3
  AND COALESCE(a.party_type, '') NOT IN ('CASH', 'BANKS')
  AND EXISTS (
    SELECT 1 FROM voucher_entries x
    JOIN accounts xa ON xa.id = x.account_id
    WHERE x.voucher_id = v.id AND xa.party_type IN ('CASH', 'BANKS')
  )
ORDER BY v.date, e.id`, companyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []CashMovement
	for rows.Next() {
		var m CashMovement
		var amount, openDebit, openCredit string
		err := rows.Scan(&m.Date, &m.Ref, &amount,
			&m.Counter.ID, &m.Counter.CompanyID, &m.Counter.Code, &m.Counter.Name, &m.Counter.Type, &m.Counter.PartyType,
			&openDebit, &openCredit, &m.Counter.OpenDate, &m.Counter.IsActive, &m.Counter.CreatedAt, &m.Counter.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if m.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("ledger: parse movement amount: %w", err)
		}
		if m.Counter.OpenDebit, err = decimal.NewFromString(openDebit); err != nil {
			return nil, err
		}
		if m.Counter.OpenCredit, err = decimal.NewFromString(openCredit); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func prefixedAccountColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.company_id, %[1]s.code, %[1]s.name, %[1]s.type, COALESCE(%[1]s.party_type, ''), %[1]s.open_debit, %[1]s.open_credit, %[1]s.open_date, %[1]s.is_active, %[1]s.created_at, %[1]s.updated_at`, alias)
}

const yearColumns = `id, company_id, name, start_date, end_date, status, closed_by, closed_at, created_at, updated_at`

func scanYear(row pgx.Row) (FinancialYear, error) {
	var y FinancialYear
	err := row.Scan(&y.ID, &y.CompanyID, &y.Name, &y.StartDate, &y.EndDate, &y.Status, &y.ClosedBy, &y.ClosedAt, &y.CreatedAt, &y.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return FinancialYear{}, ErrYearNotFound
	}
	return y, err
}

// GetYear implements ReaderPort.
func (r *Repository) GetYear(ctx context.Context, companyID, yearID int64) (FinancialYear, error) {
	return scanYear(r.pool.QueryRow(ctx, `SELECT `+yearColumns+` FROM financial_years WHERE company_id = $1 AND id = $2`, companyID, yearID))
}

// GetYearForDate implements ReaderPort.
func (r *Repository) GetYearForDate(ctx context.Context, companyID int64, date time.Time) (FinancialYear, error) {
	return scanYear(r.pool.QueryRow(ctx, `SELECT `+yearColumns+` FROM financial_years WHERE company_id = $1 AND start_date <= $2 AND end_date >= $2`, companyID, date))
}

// ListYears implements ReaderPort.
func (r *Repository) ListYears(ctx context.Context, companyID int64) ([]FinancialYear, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+yearColumns+` FROM financial_years WHERE company_id = $1 ORDER BY start_date`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var years []FinancialYear
	for rows.Next() {
		y, err := scanYear(rows)
		if err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

var refPrefixes = map[VoucherType]string{
	VoucherTypeCPV:        "CPV-",
	VoucherTypeCRV:        "CRV-",
	VoucherTypeContra:     "CON-",
	VoucherTypeJournal:    "JV-",
	VoucherTypeExpense:    "EXP-",
	VoucherTypeSale:       "INV-",
	VoucherTypePurchase:   "PUR-",
	VoucherTypeSaleReturn: "SRN-",
	VoucherTypeYearEnd:    "YE-",
}

// InsertVoucher implements TxRepository. The voucher number comes from a
// single-statement counter upsert, so two transactions bumping the same
// counter serialize on the row instead of racing a count+1 read.
func (t *txRepository) InsertVoucher(ctx context.Context, in PostVoucherInput) (Voucher, error) {
	var number int64
	err := t.tx.QueryRow(ctx, `
INSERT INTO voucher_counters (company_id, voucher_type, n) VALUES ($1, $2, 1)
ON CONFLICT (company_id, voucher_type) DO UPDATE SET n = voucher_counters.n + 1
RETURNING n`, in.CompanyID, in.Type).Scan(&number)
	if err != nil {
		return Voucher{}, fmt.Errorf("ledger: allocate voucher number: %w", err)
	}
	ref := fmt.Sprintf("%s%06d", refPrefixes[in.Type], number)

	voucher := Voucher{
		CompanyID: in.CompanyID,
		Number:    number,
		Ref:       ref,
		Type:      in.Type,
		Date:      Day(in.Date),
		Narration: in.Narration,
		CreatedBy: in.CreatedBy,
	}
	err = t.tx.QueryRow(ctx, `
INSERT INTO vouchers (company_id, number, ref, type, date, narration, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`,
		in.CompanyID, number, ref, in.Type, voucher.Date, in.Narration, in.CreatedBy).Scan(&voucher.ID, &voucher.CreatedAt)
	if err != nil {
		return Voucher{}, fmt.Errorf("ledger: insert voucher: %w", err)
	}

	for _, entry := range in.Entries {
		var e VoucherEntry
		e.VoucherID = voucher.ID
		e.AccountID = entry.AccountID
		e.Amount = entry.Amount
		e.Narration = entry.Narration
		err := t.tx.QueryRow(ctx, `
INSERT INTO voucher_entries (voucher_id, account_id, amount, narration)
VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
			voucher.ID, entry.AccountID, entry.Amount.String(), entry.Narration).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return Voucher{}, fmt.Errorf("ledger: insert voucher entry: %w", err)
		}
		voucher.Entries = append(voucher.Entries, e)
	}
	return voucher, nil
}

// GetYearForUpdate implements TxRepository with a row lock, so concurrent
// close attempts serialize and the loser sees CLOSED.
func (t *txRepository) GetYearForUpdate(ctx context.Context, companyID, yearID int64) (FinancialYear, error) {
	return scanYear(t.tx.QueryRow(ctx, `SELECT `+yearColumns+` FROM financial_years WHERE company_id = $1 AND id = $2 FOR UPDATE`, companyID, yearID))
}

// GetYearForDate implements TxRepository.
func (t *txRepository) GetYearForDate(ctx context.Context, companyID int64, date time.Time) (FinancialYear, error) {
	return scanYear(t.tx.QueryRow(ctx, `SELECT `+yearColumns+` FROM financial_years WHERE company_id = $1 AND start_date <= $2 AND end_date >= $2`, companyID, date))
}

// ListAccounts implements TxRepository.
func (t *txRepository) ListAccounts(ctx context.Context, companyID int64) ([]Account, error) {
	return listAccounts(ctx, t.tx, companyID)
}

// ListPostings implements TxRepository.
func (t *txRepository) ListPostings(ctx context.Context, companyID, accountID int64, until time.Time) ([]Posting, error) {
	return listPostings(ctx, t.tx, companyID, accountID, until)
}

// MarkYearClosed implements TxRepository.
func (t *txRepository) MarkYearClosed(ctx context.Context, yearID, closedBy int64, closedAt time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE financial_years SET status = 'CLOSED', closed_by = $2, closed_at = $3, updated_at = NOW() WHERE id = $1 AND status = 'OPEN'`, yearID, closedBy, closedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrYearClosed
	}
	return nil
}
