package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/ledger"
)

const dateLayout = "2006-01-02"

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func fmtAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// LedgerRowVM is one JSON ledger statement row.
type LedgerRowVM struct {
	Date       string `json:"date"`
	VoucherRef string `json:"voucherRef,omitempty"`
	Narration  string `json:"narration"`
	Debit      string `json:"debit"`
	Credit     string `json:"credit"`
	Balance    string `json:"balance"`
	IsOpening  bool   `json:"isOpening,omitempty"`
}

// LedgerVM is the full ledger report payload.
type LedgerVM struct {
	AccountCode string        `json:"accountCode"`
	AccountName string        `json:"accountName"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	Rows        []LedgerRowVM `json:"rows"`
}

// NewLedgerVM maps composed rows onto the wire shape.
func NewLedgerVM(acc ledger.Account, rows []ledger.LedgerRow, from, to time.Time) LedgerVM {
	vm := LedgerVM{
		AccountCode: acc.Code,
		AccountName: acc.Name,
		From:        fmtDate(ledger.Day(from)),
		To:          fmtDate(ledger.Day(to)),
		Rows:        make([]LedgerRowVM, 0, len(rows)),
	}
	for _, row := range rows {
		vm.Rows = append(vm.Rows, LedgerRowVM{
			Date:       fmtDate(row.Date),
			VoucherRef: row.Ref,
			Narration:  row.Narration,
			Debit:      fmtAmount(row.Debit),
			Credit:     fmtAmount(row.Credit),
			Balance:    fmtAmount(row.Balance),
			IsOpening:  row.IsOpening,
		})
	}
	return vm
}

// AgeingRowVM is one JSON ageing row.
type AgeingRowVM struct {
	BillRef           string `json:"billRef"`
	Date              string `json:"date"`
	Narration         string `json:"narration,omitempty"`
	BillAmount        string `json:"billAmount"`
	BillBalance       string `json:"billBalance"`
	AgeDays           int    `json:"ageDays"`
	CumulativeBalance string `json:"cumulativeBalance"`
}

// AgeingVM is the full ageing report payload with day-bucket totals.
type AgeingVM struct {
	AccountCode string        `json:"accountCode"`
	AccountName string        `json:"accountName"`
	AsOf        string        `json:"asOf"`
	Rows        []AgeingRowVM `json:"rows"`
	Days0To30   string        `json:"days0to30"`
	Days31To60  string        `json:"days31to60"`
	Days61To90  string        `json:"days61to90"`
	Over90      string        `json:"over90"`
	Outstanding string        `json:"outstanding"`
}

// NewAgeingVM maps an allocation result onto the wire shape.
func NewAgeingVM(acc ledger.Account, result ledger.AgeingResult, asOf time.Time) AgeingVM {
	vm := AgeingVM{
		AccountCode: acc.Code,
		AccountName: acc.Name,
		AsOf:        fmtDate(ledger.Day(asOf)),
		Rows:        make([]AgeingRowVM, 0, len(result.Rows)),
		Days0To30:   fmtAmount(result.Buckets.Days0To30),
		Days31To60:  fmtAmount(result.Buckets.Days31To60),
		Days61To90:  fmtAmount(result.Buckets.Days61To90),
		Over90:      fmtAmount(result.Buckets.Over90),
		Outstanding: fmtAmount(result.Outstanding),
	}
	for _, row := range result.Rows {
		vm.Rows = append(vm.Rows, AgeingRowVM{
			BillRef:           row.BillRef,
			Date:              fmtDate(row.Date),
			Narration:         row.Narration,
			BillAmount:        fmtAmount(row.BillAmount),
			BillBalance:       fmtAmount(row.Balance),
			AgeDays:           row.AgeDays,
			CumulativeBalance: fmtAmount(row.Cumulative),
		})
	}
	return vm
}

// TrialBalanceRowVM is one JSON trial balance row.
type TrialBalanceRowVM struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Bucket       string `json:"bucket"`
	OpenDebit    string `json:"openDebit"`
	OpenCredit   string `json:"openCredit"`
	PeriodDebit  string `json:"periodDebit"`
	PeriodCredit string `json:"periodCredit"`
	CloseDebit   string `json:"closeDebit"`
	CloseCredit  string `json:"closeCredit"`
}

// TrialBalanceTotalsVM mirrors TrialBalanceTotals on the wire.
type TrialBalanceTotalsVM struct {
	OpenDebit    string `json:"openDebit"`
	OpenCredit   string `json:"openCredit"`
	PeriodDebit  string `json:"periodDebit"`
	PeriodCredit string `json:"periodCredit"`
	CloseDebit   string `json:"closeDebit"`
	CloseCredit  string `json:"closeCredit"`
}

// TrialBalanceVM is the full trial balance payload.
type TrialBalanceVM struct {
	From   string               `json:"from"`
	To     string               `json:"to"`
	Rows   []TrialBalanceRowVM  `json:"rows"`
	Totals TrialBalanceTotalsVM `json:"totals"`
}

// NewTrialBalanceVM maps the aggregate onto the wire shape.
func NewTrialBalanceVM(tb TrialBalance, from, to time.Time) TrialBalanceVM {
	vm := TrialBalanceVM{
		From: fmtDate(ledger.Day(from)),
		To:   fmtDate(ledger.Day(to)),
		Rows: make([]TrialBalanceRowVM, 0, len(tb.Rows)),
		Totals: TrialBalanceTotalsVM{
			OpenDebit:    fmtAmount(tb.Totals.OpenDebit),
			OpenCredit:   fmtAmount(tb.Totals.OpenCredit),
			PeriodDebit:  fmtAmount(tb.Totals.PeriodDebit),
			PeriodCredit: fmtAmount(tb.Totals.PeriodCredit),
			CloseDebit:   fmtAmount(tb.Totals.CloseDebit),
			CloseCredit:  fmtAmount(tb.Totals.CloseCredit),
		},
	}
	for _, row := range tb.Rows {
		vm.Rows = append(vm.Rows, TrialBalanceRowVM{
			Code:         row.Code,
			Name:         row.Name,
			Bucket:       string(row.Bucket),
			OpenDebit:    fmtAmount(row.OpenDebit),
			OpenCredit:   fmtAmount(row.OpenCredit),
			PeriodDebit:  fmtAmount(row.PeriodDebit),
			PeriodCredit: fmtAmount(row.PeriodCredit),
			CloseDebit:   fmtAmount(row.CloseDebit),
			CloseCredit:  fmtAmount(row.CloseCredit),
		})
	}
	return vm
}

// BalanceSheetLineVM is one JSON balance sheet line.
type BalanceSheetLineVM struct {
	Code    string `json:"code,omitempty"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
	Derived bool   `json:"derived,omitempty"`
}

// BalanceSheetVM is the full balance sheet payload.
type BalanceSheetVM struct {
	AsOf             string               `json:"asOf"`
	Assets           []BalanceSheetLineVM `json:"assets"`
	Liabilities      []BalanceSheetLineVM `json:"liabilities"`
	Equity           []BalanceSheetLineVM `json:"equity"`
	TotalAssets      string               `json:"totalAssets"`
	TotalLiabilities string               `json:"totalLiabilities"`
	TotalEquity      string               `json:"totalEquity"`
	NetProfit        string               `json:"netProfit"`
	IsBalanced       bool                 `json:"isBalanced"`
}

func bsLines(section BalanceSheetSection) []BalanceSheetLineVM {
	lines := make([]BalanceSheetLineVM, 0, len(section.Lines))
	for _, line := range section.Lines {
		lines = append(lines, BalanceSheetLineVM{
			Code:    line.Code,
			Name:    line.Name,
			Balance: fmtAmount(line.Balance),
			Derived: line.Derived,
		})
	}
	return lines
}

// NewBalanceSheetVM maps the balance sheet onto the wire shape.
func NewBalanceSheetVM(bs BalanceSheet) BalanceSheetVM {
	return BalanceSheetVM{
		AsOf:             fmtDate(bs.AsOf),
		Assets:           bsLines(bs.Assets),
		Liabilities:      bsLines(bs.Liabilities),
		Equity:           bsLines(bs.Equity),
		TotalAssets:      fmtAmount(bs.Assets.Total),
		TotalLiabilities: fmtAmount(bs.Liabilities.Total),
		TotalEquity:      fmtAmount(bs.Equity.Total),
		NetProfit:        fmtAmount(bs.NetProfit),
		IsBalanced:       bs.IsBalanced,
	}
}

// CashFlowLineVM is one JSON cash flow line.
type CashFlowLineVM struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// CashFlowSectionVM is one activity section with subtotal.
type CashFlowSectionVM struct {
	Lines []CashFlowLineVM `json:"lines"`
	Total string           `json:"total"`
}

// CashFlowVM is the full cash flow payload.
type CashFlowVM struct {
	From        string            `json:"from"`
	To          string            `json:"to"`
	Operating   CashFlowSectionVM `json:"operating"`
	Investing   CashFlowSectionVM `json:"investing"`
	Financing   CashFlowSectionVM `json:"financing"`
	NetCashFlow string            `json:"netCashFlow"`
}

func cfSection(section CashFlowSection) CashFlowSectionVM {
	vm := CashFlowSectionVM{Lines: make([]CashFlowLineVM, 0, len(section.Lines)), Total: fmtAmount(section.Total)}
	for _, line := range section.Lines {
		vm.Lines = append(vm.Lines, CashFlowLineVM{Code: line.Code, Name: line.Name, Amount: fmtAmount(line.Amount)})
	}
	return vm
}

// NewCashFlowVM maps the cash flow onto the wire shape.
func NewCashFlowVM(cf CashFlow) CashFlowVM {
	return CashFlowVM{
		From:        fmtDate(cf.From),
		To:          fmtDate(cf.To),
		Operating:   cfSection(cf.Operating),
		Investing:   cfSection(cf.Investing),
		Financing:   cfSection(cf.Financing),
		NetCashFlow: fmtAmount(cf.NetCashFlow),
	}
}
