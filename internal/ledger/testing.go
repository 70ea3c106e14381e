package ledger

import "github.com/loopmarket/loopmarket/internal/money"

// SeedBalance is a test helper that overwrites a wallet balance when using
// the in-memory store.
func SeedBalance(s Store, walletID string, balance money.Money) {
	if mem, ok := s.(*memoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		w := mem.wallets[walletID]
		w.Balance = balance
		mem.wallets[walletID] = w
	}
}
