package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/loopmarket/loopmarket/internal/ledger"
	"github.com/loopmarket/loopmarket/internal/logging"
	"github.com/loopmarket/loopmarket/internal/money"
	"github.com/loopmarket/loopmarket/internal/notification"
)

// flakyStore wraps a real store and fails selected conditional writes, which
// lets tests force the credit or compensation step to break deterministically.
type flakyStore struct {
	ledger.Store
	failFor map[string]error // wallet id -> error returned by UpdateBalance
}

func (s *flakyStore) UpdateBalance(ctx context.Context, walletID string, newBalance, expectedPrior money.Money) (ledger.Wallet, error) {
	if err, ok := s.failFor[walletID]; ok {
		return ledger.Wallet{}, err
	}
	return s.Store.UpdateBalance(ctx, walletID, newBalance, expectedPrior)
}

type captureNotifier struct {
	alerts []notification.Alert
}

func (n *captureNotifier) Send(_ context.Context, alert notification.Alert) error {
	n.alerts = append(n.alerts, alert)
	return nil
}

func setup(t *testing.T) (ledger.Store, ledger.Wallet, ledger.Wallet) {
	t.Helper()
	store := ledger.NewMemoryStore()
	ctx := context.Background()
	source, err := store.CreateWallet(ctx, uuid.NewString(), money.FromMajor(1000), "LooP")
	if err != nil {
		t.Fatalf("create source wallet: %v", err)
	}
	dest, err := store.CreateWallet(ctx, uuid.NewString(), money.Zero, "LooP")
	if err != nil {
		t.Fatalf("create destination wallet: %v", err)
	}
	return store, source, dest
}

func input(source, dest ledger.Wallet, amount money.Money) Input {
	return Input{
		SourceOwnerID:     source.OwnerID,
		DestOwnerID:       dest.OwnerID,
		Amount:            amount,
		ReferenceType:     ledger.ReferenceClassified,
		ReferenceID:       uuid.NewString(),
		DebitDescription:  "Posted classified: bicycle",
		CreditDescription: "Posting fee from user: bicycle",
	}
}

func TestTransferCommitsAndConserves(t *testing.T) {
	store, source, dest := setup(t)
	engine := NewEngine(store, nil, logging.Discard())
	ctx := context.Background()

	in := input(source, dest, money.FromMajor(10))
	res, err := engine.Transfer(ctx, in)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.Outcome != OutcomeCommitted {
		t.Fatalf("expected committed outcome, got %s", res.Outcome)
	}
	if res.SourceBalance.String() != "990.00" || res.DestBalance.String() != "10.00" {
		t.Fatalf("unexpected balances: %s / %s", res.SourceBalance, res.DestBalance)
	}

	// Conservation: the total across both wallets is unchanged.
	before := source.Balance.Add(dest.Balance)
	after := res.SourceBalance.Add(res.DestBalance)
	if !before.Equal(after) {
		t.Fatalf("total not conserved: %s != %s", before, after)
	}

	// Pairing: one debit and one credit, equal amounts, same reference.
	if res.Debit.Type != ledger.TypeDebit || res.Credit.Type != ledger.TypeCredit {
		t.Fatalf("unexpected record types: %s / %s", res.Debit.Type, res.Credit.Type)
	}
	if !res.Debit.Amount.Equal(res.Credit.Amount) {
		t.Fatalf("record amounts differ: %s / %s", res.Debit.Amount, res.Credit.Amount)
	}
	if res.Debit.ReferenceID != in.ReferenceID || res.Credit.ReferenceID != in.ReferenceID {
		t.Fatalf("records do not share the transfer reference")
	}

	sourceRecords, _ := store.Transactions(ctx, res.Debit.WalletID)
	destRecords, _ := store.Transactions(ctx, res.Credit.WalletID)
	if len(sourceRecords) != 1 || len(destRecords) != 1 {
		t.Fatalf("expected one record per wallet, got %d and %d", len(sourceRecords), len(destRecords))
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	store, source, dest := setup(t)
	ledger.SeedBalance(store, source.ID, money.FromMajor(5))
	engine := NewEngine(store, nil, logging.Discard())
	ctx := context.Background()

	_, err := engine.Transfer(ctx, input(source, dest, money.FromMajor(10)))
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	// No state was mutated and no records were written.
	w, _ := store.WalletByOwner(ctx, source.OwnerID)
	if !w.Balance.Equal(money.FromMajor(5)) {
		t.Fatalf("source balance mutated: %s", w.Balance)
	}
	records, _ := store.Transactions(ctx, source.ID)
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestTransferInvalidAmount(t *testing.T) {
	store, source, dest := setup(t)
	engine := NewEngine(store, nil, logging.Discard())

	if _, err := engine.Transfer(context.Background(), input(source, dest, money.Zero)); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestTransferMissingWallets(t *testing.T) {
	store, source, dest := setup(t)
	engine := NewEngine(store, nil, logging.Discard())
	ctx := context.Background()

	in := input(source, dest, money.FromMajor(10))
	in.SourceOwnerID = uuid.NewString()
	if _, err := engine.Transfer(ctx, in); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("expected wallet not found for source, got %v", err)
	}

	in = input(source, dest, money.FromMajor(10))
	in.DestOwnerID = uuid.NewString()
	if _, err := engine.Transfer(ctx, in); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("expected wallet not found for destination, got %v", err)
	}
}

func TestTransferDebitConflict(t *testing.T) {
	store, source, dest := setup(t)
	flaky := &flakyStore{Store: store, failFor: map[string]error{source.ID: ledger.ErrConflict}}
	engine := NewEngine(flaky, nil, logging.Discard())

	_, err := engine.Transfer(context.Background(), input(source, dest, money.FromMajor(10)))
	if !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTransferCreditFailureRollsBack(t *testing.T) {
	store, source, dest := setup(t)
	flaky := &flakyStore{Store: store, failFor: map[string]error{dest.ID: errors.New("store unavailable")}}
	engine := NewEngine(flaky, nil, logging.Discard())
	ctx := context.Background()

	in := input(source, dest, money.FromMajor(10))
	res, err := engine.Transfer(ctx, in)
	if !errors.Is(err, ErrCreditFailed) {
		t.Fatalf("expected credit failed, got %v", err)
	}
	if res.Outcome != OutcomeRolledBack {
		t.Fatalf("expected rolled back outcome, got %s", res.Outcome)
	}

	// The compensating reversal restored the source balance.
	w, _ := store.WalletByOwner(ctx, source.OwnerID)
	if !w.Balance.Equal(money.FromMajor(1000)) {
		t.Fatalf("source balance not restored: %s", w.Balance)
	}

	// Zero records exist for the failed reference.
	for _, walletID := range []string{source.ID, dest.ID} {
		records, _ := store.Transactions(ctx, walletID)
		if len(records) != 0 {
			t.Fatalf("expected no records for wallet %s, got %d", walletID, len(records))
		}
	}
}

func TestTransferCompensationConflictTreatedAsReverted(t *testing.T) {
	store, source, dest := setup(t)
	// Credit fails, then the compensation write observes a conflict because
	// the balance was already reverted; the engine must treat that as success.
	flaky := &flakyStore{Store: store, failFor: map[string]error{dest.ID: errors.New("timeout")}}
	engine := NewEngine(flaky, nil, logging.Discard())
	ctx := context.Background()

	// Force the compensation conflict by resetting the source after the debit
	// would have been taken: simplest is to make the source fail with conflict
	// only on the second write.
	var calls int
	conflictOnSecond := &countingStore{Store: store, walletID: source.ID, calls: &calls}
	flaky.Store = conflictOnSecond
	res, err := engine.Transfer(ctx, input(source, dest, money.FromMajor(10)))
	if !errors.Is(err, ErrCreditFailed) {
		t.Fatalf("expected credit failed, got %v", err)
	}
	if res.Outcome != OutcomeRolledBack {
		t.Fatalf("expected rolled back outcome, got %s", res.Outcome)
	}
}

// countingStore lets the first conditional write on walletID through and
// fails the second with ErrConflict, mimicking a compensation retry landing
// on an already-reverted balance.
type countingStore struct {
	ledger.Store
	walletID string
	calls    *int
}

func (s *countingStore) UpdateBalance(ctx context.Context, walletID string, newBalance, expectedPrior money.Money) (ledger.Wallet, error) {
	if walletID == s.walletID {
		*s.calls++
		if *s.calls > 1 {
			return ledger.Wallet{}, ledger.ErrConflict
		}
	}
	return s.Store.UpdateBalance(ctx, walletID, newBalance, expectedPrior)
}

func TestTransferReconciliationRequired(t *testing.T) {
	store, source, dest := setup(t)
	notifier := &captureNotifier{}
	ctx := context.Background()

	storeErr := errors.New("store unavailable")
	flaky := &flakyStore{Store: store, failFor: map[string]error{dest.ID: storeErr}}
	engine := NewEngine(flaky, notifier, logging.Discard())

	in := input(source, dest, money.FromMajor(10))

	// After the debit lands, make every further source write fail too so the
	// compensation cannot be applied.
	var calls int
	breakAfterFirst := &breakingStore{Store: store, walletID: source.ID, calls: &calls, err: storeErr}
	flaky.Store = breakAfterFirst

	res, err := engine.Transfer(ctx, in)
	if !errors.Is(err, ErrReconciliationRequired) {
		t.Fatalf("expected reconciliation required, got %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", res.Outcome)
	}

	if len(notifier.alerts) != 1 || notifier.alerts[0].Kind != notification.KindReconciliationRequired {
		t.Fatalf("expected one reconciliation alert, got %+v", notifier.alerts)
	}
	if notifier.alerts[0].ReferenceID != in.ReferenceID {
		t.Fatalf("alert does not carry the transfer reference")
	}
}

// breakingStore lets the first conditional write on walletID through and
// fails later ones with a hard store error.
type breakingStore struct {
	ledger.Store
	walletID string
	calls    *int
	err      error
}

func (s *breakingStore) UpdateBalance(ctx context.Context, walletID string, newBalance, expectedPrior money.Money) (ledger.Wallet, error) {
	if walletID == s.walletID {
		*s.calls++
		if *s.calls > 1 {
			return ledger.Wallet{}, s.err
		}
	}
	return s.Store.UpdateBalance(ctx, walletID, newBalance, expectedPrior)
}
