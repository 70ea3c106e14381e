package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/loopmarket/internal/ledger"
	"github.com/loopmarket/loopmarket/internal/money"
	"github.com/loopmarket/loopmarket/internal/notification"
	"github.com/loopmarket/loopmarket/internal/transfer"
)

// Conflicting conditional writes are retried with fresh reads a bounded
// number of times before the conflict is surfaced to the caller.
const (
	maxAttempts    = 5
	initialBackoff = 10 * time.Millisecond
)

// FeePolicy fixes the posting fee and the platform wallet that collects it.
// It is resolved once at process start and read-only afterwards.
type FeePolicy struct {
	Fee             money.Money
	PlatformOwnerID string
}

// Service exposes the public wallet operations: lazy wallet creation,
// transaction history, mock top-ups and the posting-fee charge.
type Service struct {
	store  ledger.Store
	engine *transfer.Engine
	policy FeePolicy
	alerts notification.Notifier
	logger *slog.Logger

	seedBalance  money.Money
	currency     string
	baseCurrency string
	exchangeRate decimal.Decimal
}

// Options carries the policy values the service is constructed with.
type Options struct {
	Policy       FeePolicy
	SeedBalance  money.Money
	Currency     string
	BaseCurrency string
	ExchangeRate decimal.Decimal
}

// NewService builds a wallet service instance.
func NewService(store ledger.Store, engine *transfer.Engine, opts Options, alerts notification.Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:        store,
		engine:       engine,
		policy:       opts.Policy,
		alerts:       alerts,
		logger:       logger,
		seedBalance:  opts.SeedBalance,
		currency:     opts.Currency,
		baseCurrency: opts.BaseCurrency,
		exchangeRate: opts.ExchangeRate,
	}
}

// Policy returns the fee policy the service was built with.
func (s *Service) Policy() FeePolicy { return s.policy }

// ExchangeRate returns the configured base-currency conversion rate.
func (s *Service) ExchangeRate() decimal.Decimal { return s.exchangeRate }

// Currency returns the ledger currency symbol.
func (s *Service) Currency() string { return s.currency }

// BaseCurrency returns the external currency top-ups are denominated in.
func (s *Service) BaseCurrency() string { return s.baseCurrency }

// GetOrCreate returns the owner's wallet, creating it with the seed balance
// on first access. Creation losing a race to a concurrent call is resolved
// by re-reading, so every caller observes the same wallet.
func (s *Service) GetOrCreate(ctx context.Context, ownerID string) (ledger.Wallet, error) {
	w, err := s.store.WalletByOwner(ctx, ownerID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ledger.ErrWalletNotFound) {
		return ledger.Wallet{}, err
	}

	w, err = s.store.CreateWallet(ctx, ownerID, s.seedBalance, s.currency)
	if err == nil {
		s.logger.Info("wallet created", "owner_id", ownerID, "seed_balance", w.Balance.String())
		return w, nil
	}
	if errors.Is(err, ledger.ErrWalletExists) {
		return s.store.WalletByOwner(ctx, ownerID)
	}
	return ledger.Wallet{}, err
}

// EnsurePlatformWallet creates the fee-collecting platform wallet with a
// zero balance. Safe to call on every startup.
func (s *Service) EnsurePlatformWallet(ctx context.Context) error {
	_, err := s.store.CreateWallet(ctx, s.policy.PlatformOwnerID, money.Zero, s.currency)
	if err != nil && !errors.Is(err, ledger.ErrWalletExists) {
		return fmt.Errorf("ensure platform wallet: %w", err)
	}
	return nil
}

// Transactions lists the owner's ledger history, newest first.
func (s *Service) Transactions(ctx context.Context, ownerID string) ([]ledger.TransactionRecord, error) {
	w, err := s.store.WalletByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.store.Transactions(ctx, w.ID)
}

// TopUpResult reports the outcome of a mock top-up.
type TopUpResult struct {
	Wallet ledger.Wallet
	Credit money.Money
	Record ledger.TransactionRecord
}

// TopUp converts an external-currency amount at the configured rate and adds
// it to the owner's wallet. This is a mock funding path: the credit has no
// paired debit because no external wallet exists yet. The conditional write
// is retried with fresh reads on conflict.
func (s *Service) TopUp(ctx context.Context, ownerID string, externalAmount decimal.Decimal) (TopUpResult, error) {
	if !externalAmount.IsPositive() {
		return TopUpResult{}, ledger.ErrInvalidAmount
	}
	credit := money.FromDecimal(externalAmount.Mul(s.exchangeRate))
	if !credit.IsPositive() {
		return TopUpResult{}, ledger.ErrInvalidAmount
	}

	var updated ledger.Wallet
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		w, err := s.store.WalletByOwner(ctx, ownerID)
		if err != nil {
			return TopUpResult{}, err
		}
		updated, err = s.store.UpdateBalance(ctx, w.ID, w.Balance.Add(credit), w.Balance)
		if err == nil {
			break
		}
		if !errors.Is(err, ledger.ErrConflict) || attempt == maxAttempts {
			return TopUpResult{}, err
		}
		time.Sleep(backoff)
		backoff *= 2
	}

	record, err := s.store.AppendTransaction(ctx, ledger.TransactionRecord{
		WalletID:      updated.ID,
		Amount:        credit,
		Type:          ledger.TypeCredit,
		Description:   fmt.Sprintf("Added %s (%s %s)", externalAmount.StringFixed(2), s.currency, credit),
		ReferenceType: ledger.ReferenceTopUp,
	})
	if err != nil {
		// The balance is already committed; surface the gap, keep the credit.
		s.logger.Warn("top-up record append failed after balance commit",
			"wallet_id", updated.ID, "amount", credit.String(), "error", err)
		if s.alerts != nil {
			_ = s.alerts.Send(ctx, notification.Alert{
				Kind:   notification.KindLedgerRecordGap,
				Detail: fmt.Sprintf("missing top_up credit record for wallet %s amount %s", updated.ID, credit),
			})
		}
	}

	return TopUpResult{Wallet: updated, Credit: credit, Record: record}, nil
}

// ChargePostingFee moves the configured posting fee from the user's wallet
// to the platform wallet, retrying with fresh reads when a concurrent
// transfer wins the conditional debit. Insufficient funds is reported before
// any externally visible side effect.
func (s *Service) ChargePostingFee(ctx context.Context, ownerID, referenceID, title string) (transfer.Result, error) {
	in := transfer.Input{
		SourceOwnerID:     ownerID,
		DestOwnerID:       s.policy.PlatformOwnerID,
		Amount:            s.policy.Fee,
		ReferenceType:     ledger.ReferenceClassified,
		ReferenceID:       referenceID,
		DebitDescription:  fmt.Sprintf("Posted classified: %s", title),
		CreditDescription: fmt.Sprintf("Posting fee from user: %s", title),
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		res, err := s.engine.Transfer(ctx, in)
		if err == nil {
			s.logger.Info("posting fee charged",
				"owner_id", ownerID, "fee", s.policy.Fee.String(), "reference_id", referenceID)
			return res, nil
		}
		if !errors.Is(err, ledger.ErrConflict) || attempt == maxAttempts {
			return res, err
		}
		time.Sleep(backoff)
		backoff *= 2
	}
}
