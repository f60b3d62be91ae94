package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian/internal/ledger"
)

// CashFlowLine is one counter-account's contribution to a section.
type CashFlowLine struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// CashFlowSection groups lines for one activity with its subtotal.
type CashFlowSection struct {
	Label string
	Lines []CashFlowLine
	Total decimal.Decimal
}

// CashFlow is the structured cash flow payload.
type CashFlow struct {
	From        time.Time
	To          time.Time
	Operating   CashFlowSection
	Investing   CashFlowSection
	Financing   CashFlowSection
	NetCashFlow decimal.Decimal
}

// BuildCashFlow classifies cash movements into operating, investing, and
// financing sections by the bucket of each movement's counter-account, then
// aggregates per counter-account. Movements whose counter-account has no
// activity mapping are dropped from the sections and from net cash flow.
func BuildCashFlow(movements []ledger.CashMovement, from, to time.Time) CashFlow {
	cf := CashFlow{
		From:        ledger.Day(from),
		To:          ledger.Day(to),
		Operating:   CashFlowSection{Label: "Operating Activities", Total: decimal.Zero},
		Investing:   CashFlowSection{Label: "Investing Activities", Total: decimal.Zero},
		Financing:   CashFlowSection{Label: "Financing Activities", Total: decimal.Zero},
		NetCashFlow: decimal.Zero,
	}
	lo, hi := ledger.Day(from), ledger.Day(to)

	type key struct {
		activity Activity
		code     string
	}
	sums := make(map[key]*CashFlowLine)
	var order []key

	for _, m := range movements {
		d := ledger.Day(m.Date)
		if d.Before(lo) || d.After(hi) {
			continue
		}
		activity, ok := ActivityFor(m.Counter)
		if !ok {
			continue
		}
		k := key{activity: activity, code: m.Counter.Code}
		line, seen := sums[k]
		if !seen {
			line = &CashFlowLine{Code: m.Counter.Code, Name: m.Counter.Name, Amount: decimal.Zero}
			sums[k] = line
			order = append(order, k)
		}
		line.Amount = line.Amount.Add(m.Amount)
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].code < order[j].code })
	for _, k := range order {
		line := *sums[k]
		if line.Amount.IsZero() {
			continue
		}
		switch k.activity {
		case ActivityOperating:
			cf.Operating.Lines = append(cf.Operating.Lines, line)
			cf.Operating.Total = cf.Operating.Total.Add(line.Amount)
		case ActivityInvesting:
			cf.Investing.Lines = append(cf.Investing.Lines, line)
			cf.Investing.Total = cf.Investing.Total.Add(line.Amount)
		case ActivityFinancing:
			cf.Financing.Lines = append(cf.Financing.Lines, line)
			cf.Financing.Total = cf.Financing.Total.Add(line.Amount)
		}
	}
	cf.NetCashFlow = cf.Operating.Total.Add(cf.Investing.Total).Add(cf.Financing.Total)
	return cf
}
