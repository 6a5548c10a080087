package ledger

// Running-balance reconstruction. The list must already be sorted date
// descending (newest first); the anchor is the balance *after* the newest
// transaction. Walking newest-to-oldest, the balance after each row is
// the accumulator before advancing, then the accumulator advances by the
// signed amount: adding a negative inflow lowers the "before this credit
// arrived" figure consistently when stepping backward in time.

// RunningBalances returns, per row, the account balance in cents
// immediately after that transaction. A negative balance is a valid,
// displayable result, not an error.
func RunningBalances(rows []Transaction, startingCents int64) []int64 {
	out := make([]int64, len(rows))
	acc := startingCents
	for i, t := range rows {
		out[i] = acc
		acc += t.AmountCents
	}
	return out
}

// BalanceAnchor picks the starting balance for reconstruction.
//
// With an account filter active, the filtered account's live balance is
// the anchor. With exactly one account in scope, that account's balance
// is the anchor. Multiple accounts with no filter aggregate into a ledger
// whose combined running balance is not well-defined; the anchor is zero
// so the column reads as unreliable rather than misleading.
func BalanceAnchor(accounts []Account, accountFilter string) int64 {
	if accountFilter != "" {
		for _, a := range accounts {
			if a.ID == accountFilter {
				return balanceOrZero(a)
			}
		}
		return 0
	}
	if len(accounts) == 1 {
		return balanceOrZero(accounts[0])
	}
	return 0
}

func balanceOrZero(a Account) int64 {
	if a.CurrentBalanceCents == nil {
		return 0
	}
	return *a.CurrentBalanceCents
}
