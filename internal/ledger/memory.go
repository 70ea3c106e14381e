package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loopmarket/loopmarket/internal/money"
)

type memoryStore struct {
	mu      sync.RWMutex
	wallets map[string]Wallet              // keyed by wallet id
	byOwner map[string]string              // owner id -> wallet id
	records map[string][]TransactionRecord // wallet id -> records
}

// NewMemoryStore creates a concurrency-safe in-memory ledger store used by
// unit tests and the development fallback when no database is configured.
func NewMemoryStore() Store {
	return &memoryStore{
		wallets: make(map[string]Wallet),
		byOwner: make(map[string]string),
		records: make(map[string][]TransactionRecord),
	}
}

func (s *memoryStore) WalletByOwner(_ context.Context, ownerID string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byOwner[ownerID]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return s.wallets[id], nil
}

func (s *memoryStore) CreateWallet(_ context.Context, ownerID string, seed money.Money, currency string) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byOwner[ownerID]; exists {
		return Wallet{}, ErrWalletExists
	}
	now := time.Now().UTC()
	w := Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Balance:   seed,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.wallets[w.ID] = w
	s.byOwner[ownerID] = w.ID
	return w, nil
}

func (s *memoryStore) UpdateBalance(_ context.Context, walletID string, newBalance, expectedPrior money.Money) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	if !w.Balance.Equal(expectedPrior) {
		return Wallet{}, ErrConflict
	}
	w.Balance = newBalance
	w.UpdatedAt = time.Now().UTC()
	s.wallets[walletID] = w
	return w, nil
}

func (s *memoryStore) AppendTransaction(_ context.Context, record TransactionRecord) (TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records[record.WalletID] = append(s.records[record.WalletID], record)
	return record, nil
}

func (s *memoryStore) Transactions(_ context.Context, walletID string) ([]TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]TransactionRecord, len(s.records[walletID]))
	copy(records, s.records[walletID])
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}
