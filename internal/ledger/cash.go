package ledger

// CashMovementsFromVouchers derives cash movements from voucher data in
// memory: for every voucher with at least one cash or bank entry, each
// non-cash entry contributes one movement whose amount is the negation of
// that counter line, which equals the cash impact attributable to it because
// voucher entries sum to zero. Pure cash-to-cash transfers produce nothing.
// The SQL reader in repo.sql.go applies the same rule; this form serves the
// in-memory repository used in tests.
func CashMovementsFromVouchers(vouchers []Voucher, accounts map[int64]Account) []CashMovement {
	var movements []CashMovement
	for _, v := range vouchers {
		touchesCash := false
		for _, e := range v.Entries {
			if accounts[e.AccountID].IsCashLike() {
				touchesCash = true
				break
			}
		}
		if !touchesCash {
			continue
		}
		for _, e := range v.Entries {
			counter, ok := accounts[e.AccountID]
			if !ok || counter.IsCashLike() {
				continue
			}
			movements = append(movements, CashMovement{
				Date:    Day(v.Date),
				Ref:     v.Ref,
				Amount:  e.Amount.Neg(),
				Counter: counter,
			})
		}
	}
	return movements
}
