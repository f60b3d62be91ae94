package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-erp/meridian/internal/ledger"
)

// epoch is the "beginning of records" default for open-ended ranges.
var epoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Service is the report façade: it assembles report payloads from the entry
// repository, caches them, and collapses concurrent identical builds. Report
// computations are idempotent and side-effect-free, so they are served
// concurrently without coordination.
type Service struct {
	repo  ledger.ReaderPort
	cache *Cache
	group singleflight.Group
	now   func() time.Time
}

// NewService constructs the report service. cache may be nil.
func NewService(repo ledger.ReaderPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// LedgerQuery parameterises the ledger report.
type LedgerQuery struct {
	CompanyID int64
	AccountID int64
	From      time.Time
	To        time.Time
}

// AgeingQuery parameterises the ageing report.
type AgeingQuery struct {
	CompanyID int64
	AccountID int64
	Side      ledger.AgeingSide
	AsOf      time.Time
}

// RangeQuery parameterises company-wide range reports.
type RangeQuery struct {
	CompanyID int64
	From      time.Time
	To        time.Time
}

// AsOfQuery parameterises point-in-time reports.
type AsOfQuery struct {
	CompanyID int64
	AsOf      time.Time
}

func (s *Service) defaults(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		from = epoch
	}
	if to.IsZero() {
		to = s.now()
	}
	return ledger.Day(from), ledger.Day(to)
}

// fetch runs the loader behind the cache and a singleflight group keyed by
// the cache key, so concurrent identical requests build the payload once.
// The group shares the marshalled payload; every caller, winner or joiner,
// decodes those bytes into its own destination.
func (s *Service) fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	raw, err, _ := s.group.Do(key, func() (any, error) {
		return s.cache.FetchJSON(ctx, key, loader)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Ledger returns the account statement for [from, to].
func (s *Service) Ledger(ctx context.Context, q LedgerQuery) (LedgerVM, error) {
	if q.CompanyID == 0 {
		return LedgerVM{}, ledger.ErrCompanyRequired
	}
	if q.AccountID == 0 {
		return LedgerVM{}, ledger.ErrAccountRequired
	}
	from, to := s.defaults(q.From, q.To)
	if from.After(to) {
		return LedgerVM{}, ledger.ErrInvalidRange
	}
	key := s.cache.BuildKey(ctx, "reports", "ledger",
		fmt.Sprintf("%d:%d:%s:%s", q.CompanyID, q.AccountID, from.Format(dateLayout), to.Format(dateLayout)))
	var vm LedgerVM
	err := s.fetch(ctx, key, &vm, func(ctx context.Context) (any, error) {
		acc, err := s.repo.GetAccount(ctx, q.CompanyID, q.AccountID)
		if err != nil {
			return nil, err
		}
		postings, err := s.repo.ListPostings(ctx, q.CompanyID, q.AccountID, ledger.EndOfDay(to))
		if err != nil {
			return nil, err
		}
		return NewLedgerVM(acc, ledger.ComposeLedger(acc, postings, from, to), from, to), nil
	})
	return vm, err
}

// Ageing returns the FIFO-allocated bill ageing for a party account.
func (s *Service) Ageing(ctx context.Context, q AgeingQuery) (AgeingVM, error) {
	if q.CompanyID == 0 {
		return AgeingVM{}, ledger.ErrCompanyRequired
	}
	if q.AccountID == 0 {
		return AgeingVM{}, ledger.ErrAccountRequired
	}
	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = ledger.Day(asOf)
	key := s.cache.BuildKey(ctx, "reports", "ageing",
		fmt.Sprintf("%d:%d:%s:%s", q.CompanyID, q.AccountID, q.Side, asOf.Format(dateLayout)))
	var vm AgeingVM
	err := s.fetch(ctx, key, &vm, func(ctx context.Context) (any, error) {
		acc, err := s.repo.GetAccount(ctx, q.CompanyID, q.AccountID)
		if err != nil {
			return nil, err
		}
		side := q.Side
		if side == "" {
			if acc.PartyType == ledger.PartyTypeSupplier {
				side = ledger.AgeingPayable
			} else {
				side = ledger.AgeingReceivable
			}
		}
		postings, err := s.repo.ListPostings(ctx, q.CompanyID, q.AccountID, ledger.EndOfDay(asOf))
		if err != nil {
			return nil, err
		}
		bills, pool := ledger.SplitBillsAndCredits(postings, side, asOf)
		return NewAgeingVM(acc, ledger.AllocateBills(bills, pool, asOf), asOf), nil
	})
	return vm, err
}

func (s *Service) companyActivities(ctx context.Context, companyID int64, until time.Time) ([]AccountActivity, error) {
	accounts, err := s.repo.ListAccounts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	postings, err := s.repo.ListCompanyPostings(ctx, companyID, until)
	if err != nil {
		return nil, err
	}
	activities := make([]AccountActivity, 0, len(accounts))
	for _, acc := range accounts {
		activities = append(activities, AccountActivity{Account: acc, Postings: postings[acc.ID]})
	}
	return activities, nil
}

// TrialBalance returns the company trial balance for [from, to].
func (s *Service) TrialBalance(ctx context.Context, q RangeQuery) (TrialBalanceVM, error) {
	if q.CompanyID == 0 {
		return TrialBalanceVM{}, ledger.ErrCompanyRequired
	}
	from, to := s.defaults(q.From, q.To)
	if from.After(to) {
		return TrialBalanceVM{}, ledger.ErrInvalidRange
	}
	key := s.cache.BuildKey(ctx, "reports", "tb",
		fmt.Sprintf("%d:%s:%s", q.CompanyID, from.Format(dateLayout), to.Format(dateLayout)))
	var vm TrialBalanceVM
	err := s.fetch(ctx, key, &vm, func(ctx context.Context) (any, error) {
		activities, err := s.companyActivities(ctx, q.CompanyID, ledger.EndOfDay(to))
		if err != nil {
			return nil, err
		}
		return NewTrialBalanceVM(BuildTrialBalance(activities, from, to), from, to), nil
	})
	return vm, err
}

// BalanceSheet returns the company balance sheet as of a date.
func (s *Service) BalanceSheet(ctx context.Context, q AsOfQuery) (BalanceSheetVM, error) {
	if q.CompanyID == 0 {
		return BalanceSheetVM{}, ledger.ErrCompanyRequired
	}
	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = ledger.Day(asOf)
	key := s.cache.BuildKey(ctx, "reports", "bs",
		fmt.Sprintf("%d:%s", q.CompanyID, asOf.Format(dateLayout)))
	var vm BalanceSheetVM
	err := s.fetch(ctx, key, &vm, func(ctx context.Context) (any, error) {
		activities, err := s.companyActivities(ctx, q.CompanyID, ledger.EndOfDay(asOf))
		if err != nil {
			return nil, err
		}
		return NewBalanceSheetVM(BuildBalanceSheet(activities, asOf)), nil
	})
	return vm, err
}

// CashFlow returns the company cash flow statement for [from, to].
func (s *Service) CashFlow(ctx context.Context, q RangeQuery) (CashFlowVM, error) {
	if q.CompanyID == 0 {
		return CashFlowVM{}, ledger.ErrCompanyRequired
	}
	from, to := s.defaults(q.From, q.To)
	if from.After(to) {
		return CashFlowVM{}, ledger.ErrInvalidRange
	}
	key := s.cache.BuildKey(ctx, "reports", "cf",
		fmt.Sprintf("%d:%s:%s", q.CompanyID, from.Format(dateLayout), to.Format(dateLayout)))
	var vm CashFlowVM
	err := s.fetch(ctx, key, &vm, func(ctx context.Context) (any, error) {
		movements, err := s.repo.ListCashMovements(ctx, q.CompanyID, from, ledger.EndOfDay(to))
		if err != nil {
			return nil, err
		}
		return NewCashFlowVM(BuildCashFlow(movements, from, to)), nil
	})
	return vm, err
}
