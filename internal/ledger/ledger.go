package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/loopmarket/loopmarket/internal/money"
)

var (
	// ErrWalletNotFound occurs when no wallet exists for the requested owner or id.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrWalletExists indicates a wallet already exists for the owner; every
	// owner holds exactly one wallet.
	ErrWalletExists = errors.New("wallet already exists")

	// ErrConflict indicates a conditional balance write observed a stale prior
	// balance. The caller should re-read and retry.
	ErrConflict = errors.New("balance conflict")

	// ErrInsufficientFunds occurs when a debit would drive a balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount indicates a non-positive amount was supplied.
	ErrInvalidAmount = errors.New("invalid amount")
)

const (
	// TypeDebit marks a record that removed funds from its wallet.
	TypeDebit = "debit"
	// TypeCredit marks a record that added funds to its wallet.
	TypeCredit = "credit"
)

const (
	// ReferenceClassified links a record to a posted classified ad.
	ReferenceClassified = "classified"
	// ReferenceTopUp links a record to a mock top-up.
	ReferenceTopUp = "top_up"
)

// Wallet is the stored balance for a single owner.
type Wallet struct {
	ID        string
	OwnerID   string
	Balance   money.Money
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionRecord is an append-only ledger entry. Records are never
// updated or deleted once written.
type TransactionRecord struct {
	ID            string
	WalletID      string
	Amount        money.Money
	Type          string
	Description   string
	ReferenceType string
	ReferenceID   string
	CreatedAt     time.Time
}

// Store is the persistence contract for wallets and their transaction
// history. The balance write is conditional: it only lands when the stored
// balance still equals the expected prior value, which serializes concurrent
// mutations per wallet without row locking.
type Store interface {
	WalletByOwner(ctx context.Context, ownerID string) (Wallet, error)
	CreateWallet(ctx context.Context, ownerID string, seed money.Money, currency string) (Wallet, error)
	UpdateBalance(ctx context.Context, walletID string, newBalance, expectedPrior money.Money) (Wallet, error)
	AppendTransaction(ctx context.Context, record TransactionRecord) (TransactionRecord, error)
	Transactions(ctx context.Context, walletID string) ([]TransactionRecord, error)
}
