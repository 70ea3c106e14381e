package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/loopmarket/loopmarket/internal/ledger"
	"github.com/loopmarket/loopmarket/internal/money"
	"github.com/loopmarket/loopmarket/internal/notification"
)

var (
	// ErrCreditFailed indicates the credit step failed and the debit was
	// fully reverted; no money moved and the transfer is safe to retry.
	ErrCreditFailed = errors.New("credit failed, transfer reverted")

	// ErrReconciliationRequired indicates money was debited but neither the
	// credit nor the compensating reversal could be confirmed. This state is
	// fatal and must reach an operator; callers must never retry it blindly.
	ErrReconciliationRequired = errors.New("transfer requires manual reconciliation")
)

// Outcome tags the terminal state of a transfer attempt.
type Outcome string

const (
	// OutcomeCommitted means both balance writes landed.
	OutcomeCommitted Outcome = "committed"
	// OutcomeRolledBack means the debit was compensated after a failed credit.
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomeFailed means the transfer ended in an irrecoverable state.
	OutcomeFailed Outcome = "failed"
)

// Input describes one two-party transfer.
type Input struct {
	SourceOwnerID     string
	DestOwnerID       string
	Amount            money.Money
	ReferenceType     string
	ReferenceID       string
	DebitDescription  string
	CreditDescription string
}

// Result is the outcome of a transfer. On commit both new balances and both
// appended records are populated.
type Result struct {
	Outcome       Outcome
	SourceBalance money.Money
	DestBalance   money.Money
	Debit         ledger.TransactionRecord
	Credit        ledger.TransactionRecord
}

// Engine moves value between two wallets as a single logical unit on top of
// a store that offers no multi-row transaction. The source is always debited
// before the destination is credited; a failed credit is compensated with a
// conditional reversal keyed on the balance the debit just wrote.
type Engine struct {
	store  ledger.Store
	alerts notification.Notifier
	logger *slog.Logger
}

// NewEngine constructs a transfer engine.
func NewEngine(store ledger.Store, alerts notification.Notifier, logger *slog.Logger) *Engine {
	return &Engine{store: store, alerts: alerts, logger: logger}
}

// Transfer debits the source owner and credits the destination owner with
// all-or-nothing semantics. ErrConflict from the debit step means a
// concurrent transfer won the conditional write; nothing has changed and the
// caller should retry from a fresh read.
func (e *Engine) Transfer(ctx context.Context, in Input) (Result, error) {
	if !in.Amount.IsPositive() {
		return Result{}, ledger.ErrInvalidAmount
	}

	source, err := e.store.WalletByOwner(ctx, in.SourceOwnerID)
	if err != nil {
		return Result{}, fmt.Errorf("load source wallet: %w", err)
	}
	// A missing destination is a configuration fault, not a user error.
	dest, err := e.store.WalletByOwner(ctx, in.DestOwnerID)
	if err != nil {
		return Result{}, fmt.Errorf("load destination wallet %s: %w", in.DestOwnerID, err)
	}

	debitedBalance, err := source.Balance.Sub(in.Amount)
	if err != nil {
		return Result{}, ledger.ErrInsufficientFunds
	}

	debited, err := e.store.UpdateBalance(ctx, source.ID, debitedBalance, source.Balance)
	if err != nil {
		// Conflict or store error before any mutation we own: no partial effect.
		return Result{}, fmt.Errorf("debit source: %w", err)
	}

	credited, err := e.store.UpdateBalance(ctx, dest.ID, dest.Balance.Add(in.Amount), dest.Balance)
	if err != nil {
		return e.compensate(ctx, in, source, debited, err)
	}

	result := Result{
		Outcome:       OutcomeCommitted,
		SourceBalance: debited.Balance,
		DestBalance:   credited.Balance,
	}
	result.Debit = e.appendRecord(ctx, ledger.TransactionRecord{
		WalletID:      source.ID,
		Amount:        in.Amount,
		Type:          ledger.TypeDebit,
		Description:   in.DebitDescription,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
	})
	result.Credit = e.appendRecord(ctx, ledger.TransactionRecord{
		WalletID:      dest.ID,
		Amount:        in.Amount,
		Type:          ledger.TypeCredit,
		Description:   in.CreditDescription,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
	})
	return result, nil
}

// compensate re-applies the source's original balance after a failed credit.
// The reversal is conditional on the balance written by our own debit, so a
// retry that lands on an already-reverted wallet fails with ErrConflict and
// is treated as success.
func (e *Engine) compensate(ctx context.Context, in Input, source, debited ledger.Wallet, creditErr error) (Result, error) {
	_, err := e.store.UpdateBalance(ctx, source.ID, source.Balance, debited.Balance)
	if err == nil || errors.Is(err, ledger.ErrConflict) {
		e.logger.Warn("transfer reverted after credit failure",
			"source_wallet", source.ID, "reference_id", in.ReferenceID, "error", creditErr)
		return Result{Outcome: OutcomeRolledBack}, fmt.Errorf("%w: %v", ErrCreditFailed, creditErr)
	}

	e.logger.Error("transfer compensation failed",
		"source_wallet", source.ID, "amount", in.Amount, "reference_id", in.ReferenceID,
		"credit_error", creditErr, "compensation_error", err)
	if e.alerts != nil {
		_ = e.alerts.Send(ctx, notification.Alert{
			Kind:        notification.KindReconciliationRequired,
			ReferenceID: in.ReferenceID,
			Detail: fmt.Sprintf("wallet %s debited %s without confirmed credit: credit=%v compensation=%v",
				source.ID, in.Amount, creditErr, err),
		})
	}
	return Result{Outcome: OutcomeFailed}, fmt.Errorf("%w: %v", ErrReconciliationRequired, creditErr)
}

// appendRecord writes one side of the transfer's paired records. Append
// failure after the balances have committed is surfaced as a reconciliation
// warning but does not roll the transfer back; balance correctness wins over
// record completeness and a background audit closes the gap.
func (e *Engine) appendRecord(ctx context.Context, record ledger.TransactionRecord) ledger.TransactionRecord {
	written, err := e.store.AppendTransaction(ctx, record)
	if err == nil {
		return written
	}
	e.logger.Warn("transaction record append failed after balance commit",
		"wallet_id", record.WalletID, "type", record.Type, "reference_id", record.ReferenceID, "error", err)
	if e.alerts != nil {
		_ = e.alerts.Send(ctx, notification.Alert{
			Kind:        notification.KindLedgerRecordGap,
			ReferenceID: record.ReferenceID,
			Detail:      fmt.Sprintf("missing %s record for wallet %s amount %s", record.Type, record.WalletID, record.Amount),
		})
	}
	return record
}
