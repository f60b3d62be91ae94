package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComposeLedgerStartsWithOpeningRow(t *testing.T) {
	acc := Account{ID: 1, OpenDebit: dec(250), OpenDate: d(2024, time.January, 1)}
	postings := []Posting{
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCRV, Date: d(2024, time.January, 15), Ref: "CRV-000001", Amount: dec(100), Seq: 1},
	}

	rows := ComposeLedger(acc, postings, d(2024, time.February, 1), d(2024, time.February, 29))

	require.Len(t, rows, 1)
	require.True(t, rows[0].IsOpening)
	require.Equal(t, "Opening Balance", rows[0].Narration)
	require.True(t, rows[0].Balance.Equal(dec(350)))
}

func TestComposeLedgerRunningBalanceMatchesBalanceAsOf(t *testing.T) {
	acc := Account{ID: 1, OpenDebit: dec(500), OpenDate: d(2024, time.January, 1)}
	postings := []Posting{
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCRV, Date: d(2024, time.January, 3), Ref: "CRV-000001", Amount: dec(1000), Seq: 1},
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCPV, Date: d(2024, time.January, 8), Ref: "CPV-000001", Amount: dec(-400), Seq: 2},
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeJournal, Date: d(2024, time.January, 20), Ref: "JV-000001", Amount: dec(-50), Seq: 3},
	}

	to := d(2024, time.January, 31)
	rows := ComposeLedger(acc, postings, d(2024, time.January, 1), to)

	require.Len(t, rows, 4)
	last := rows[len(rows)-1]
	require.True(t, last.Balance.Equal(BalanceAsOf(acc, postings, to)))
}

func TestComposeLedgerAccountOpenedInsideRange(t *testing.T) {
	acc := Account{ID: 1, OpenDebit: dec(1000), OpenDate: d(2024, time.January, 10)}
	postings := []Posting{
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCRV, Date: d(2024, time.January, 10), Ref: "CRV-000001", Amount: dec(200), Seq: 1},
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCPV, Date: d(2024, time.January, 15), Ref: "CPV-000001", Amount: dec(-400), Seq: 2},
	}

	to := d(2024, time.January, 31)
	rows := ComposeLedger(acc, postings, d(2024, time.January, 1), to)

	require.Len(t, rows, 4)
	require.True(t, rows[0].IsOpening)
	require.True(t, rows[0].Balance.IsZero())

	// The opening net surfaces as a dated line ahead of same-day postings.
	require.Equal(t, "Account Opening", rows[1].Narration)
	require.Equal(t, d(2024, time.January, 10), rows[1].Date)
	require.True(t, rows[1].Debit.Equal(dec(1000)))
	require.True(t, rows[1].Balance.Equal(dec(1000)))
	require.Equal(t, "CRV-000001", rows[2].Ref)

	last := rows[len(rows)-1]
	require.True(t, last.Balance.Equal(dec(800)))
	require.True(t, last.Balance.Equal(BalanceAsOf(acc, postings, to)))
}

func TestComposeLedgerSplitsDebitCreditColumns(t *testing.T) {
	acc := Account{ID: 1}
	postings := []Posting{
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCRV, Date: d(2024, time.January, 3), Ref: "CRV-000001", Amount: dec(1000), Seq: 1},
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCPV, Date: d(2024, time.January, 8), Ref: "CPV-000001", Amount: dec(-400), Seq: 2},
	}

	rows := ComposeLedger(acc, postings, d(2024, time.January, 1), d(2024, time.January, 31))

	require.Len(t, rows, 3)
	require.True(t, rows[1].Debit.Equal(dec(1000)))
	require.True(t, rows[1].Credit.IsZero())
	require.True(t, rows[2].Debit.IsZero())
	require.True(t, rows[2].Credit.Equal(dec(400)))
	require.True(t, rows[2].Balance.Equal(dec(600)))
}

func TestComposeLedgerSameDayKeepsInsertionOrder(t *testing.T) {
	acc := Account{ID: 1}
	day := d(2024, time.January, 10)
	postings := []Posting{
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCRV, Date: day, Ref: "CRV-000002", Amount: dec(20), Seq: 2},
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCRV, Date: day, Ref: "CRV-000001", Amount: dec(10), Seq: 1},
	}

	rows := ComposeLedger(acc, postings, day, day)

	require.Len(t, rows, 3)
	require.Equal(t, "CRV-000001", rows[1].Ref)
	require.Equal(t, "CRV-000002", rows[2].Ref)
}

func TestComposeLedgerDeterministic(t *testing.T) {
	acc := Account{ID: 1, OpenDebit: dec(42), OpenDate: d(2024, time.January, 1)}
	postings := []Posting{
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCRV, Date: d(2024, time.January, 5), Ref: "CRV-000001", Amount: dec(100), Seq: 1},
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeCPV, Date: d(2024, time.January, 5), Ref: "CPV-000001", Amount: dec(-30), Seq: 2},
	}

	first := ComposeLedger(acc, postings, d(2024, time.January, 1), d(2024, time.January, 31))
	second := ComposeLedger(acc, postings, d(2024, time.January, 1), d(2024, time.January, 31))
	require.Equal(t, first, second)
}

func TestComposeLedgerExcludesMirrorVouchers(t *testing.T) {
	acc := Account{ID: 1}
	postings := []Posting{
		{Kind: PostingKindSaleInvoice, Date: d(2024, time.January, 5), Ref: "INV-000001", Amount: dec(500), Seq: 1},
		{Kind: PostingKindVoucher, VoucherType: VoucherTypeSale, Date: d(2024, time.January, 5), Ref: "INV-000001", Amount: dec(500), Seq: 2},
	}

	rows := ComposeLedger(acc, postings, d(2024, time.January, 1), d(2024, time.January, 31))

	require.Len(t, rows, 2)
	require.Equal(t, "INV-000001", rows[1].Ref)
	require.True(t, rows[1].Balance.Equal(dec(500)))
}
