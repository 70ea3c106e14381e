package notification

import (
	"context"
	"log/slog"
)

const (
	// KindReconciliationRequired signals money left a wallet without a
	// confirmed credit; an operator must reconcile by hand.
	KindReconciliationRequired = "reconciliation_required"
	// KindLedgerRecordGap signals a balance change whose transaction record
	// could not be appended.
	KindLedgerRecordGap = "ledger_record_gap"
)

// Alert describes an operator-visible ledger event.
type Alert struct {
	Kind        string
	ReferenceID string
	Detail      string
}

// Notifier delivers ledger alerts to an operator/audit channel.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// LoggerNotifier is a stub implementation that writes alerts to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the alert to the structured logger at error level so it is
// never lost in routine output.
func (n *LoggerNotifier) Send(_ context.Context, alert Alert) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Error("ledger alert", "kind", alert.Kind, "reference_id", alert.ReferenceID, "detail", alert.Detail)
	return nil
}
