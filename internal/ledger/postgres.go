package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopmarket/loopmarket/internal/money"
)

const uniqueViolation = "23505"

// PostgresStore persists wallets and transaction records in PostgreSQL.
// Balances are stored as BIGINT minor units; the conditional update compares
// the stored balance against the expected prior value instead of locking.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const walletColumns = `id, owner_id, balance, currency, created_at, updated_at`

// WalletByOwner fetches the wallet belonging to the given owner.
func (s *PostgresStore) WalletByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, fmt.Errorf("parse owner id: %w", err)
	}
	row := s.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1`, ownerUUID)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	return w, nil
}

// CreateWallet inserts a wallet seeded with the provided balance. The unique
// constraint on owner_id enforces one wallet per owner.
func (s *PostgresStore) CreateWallet(ctx context.Context, ownerID string, seed money.Money, currency string) (Wallet, error) {
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return Wallet{}, fmt.Errorf("parse owner id: %w", err)
	}
	now := time.Now().UTC()
	row := s.db.QueryRow(ctx, `INSERT INTO wallets (id, owner_id, balance, currency, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        RETURNING `+walletColumns,
		uuid.New(), ownerUUID, seed.Units(), currency, now)
	w, err := scanWallet(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Wallet{}, ErrWalletExists
		}
		return Wallet{}, err
	}
	return w, nil
}

// UpdateBalance applies a conditional balance write. The update only lands
// when the stored balance still equals expectedPrior; a stale expectation
// fails with ErrConflict and leaves the row untouched.
func (s *PostgresStore) UpdateBalance(ctx context.Context, walletID string, newBalance, expectedPrior money.Money) (Wallet, error) {
	walletUUID, err := uuid.Parse(walletID)
	if err != nil {
		return Wallet{}, fmt.Errorf("parse wallet id: %w", err)
	}
	row := s.db.QueryRow(ctx, `UPDATE wallets
        SET balance = $1, updated_at = $2
        WHERE id = $3 AND balance = $4
        RETURNING `+walletColumns,
		newBalance.Units(), time.Now().UTC(), walletUUID, expectedPrior.Units())
	w, err := scanWallet(row)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Wallet{}, err
	}

	// No row matched: distinguish a missing wallet from a stale balance.
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)`, walletUUID).Scan(&exists); err != nil {
		return Wallet{}, err
	}
	if !exists {
		return Wallet{}, ErrWalletNotFound
	}
	return Wallet{}, ErrConflict
}

// AppendTransaction writes one immutable ledger record.
func (s *PostgresStore) AppendTransaction(ctx context.Context, record TransactionRecord) (TransactionRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	var refID any
	if record.ReferenceID != "" {
		refUUID, err := uuid.Parse(record.ReferenceID)
		if err != nil {
			return TransactionRecord{}, fmt.Errorf("parse reference id: %w", err)
		}
		refID = refUUID
	}
	_, err := s.db.Exec(ctx, `INSERT INTO wallet_transactions
        (id, wallet_id, amount, type, description, reference_type, reference_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.MustParse(record.ID), uuid.MustParse(record.WalletID), record.Amount.Units(),
		record.Type, record.Description, record.ReferenceType, refID, record.CreatedAt)
	if err != nil {
		return TransactionRecord{}, err
	}
	return record, nil
}

// Transactions lists a wallet's records newest first.
func (s *PostgresStore) Transactions(ctx context.Context, walletID string) ([]TransactionRecord, error) {
	walletUUID, err := uuid.Parse(walletID)
	if err != nil {
		return nil, fmt.Errorf("parse wallet id: %w", err)
	}
	rows, err := s.db.Query(ctx, `SELECT id, wallet_id, amount, type, description, reference_type, reference_id, created_at
        FROM wallet_transactions WHERE wallet_id = $1 ORDER BY created_at DESC`, walletUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TransactionRecord
	for rows.Next() {
		var (
			rec       TransactionRecord
			id        uuid.UUID
			wid       uuid.UUID
			amount    int64
			refID     *uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &wid, &amount, &rec.Type, &rec.Description, &rec.ReferenceType, &refID, &createdAt); err != nil {
			return nil, err
		}
		rec.ID = id.String()
		rec.WalletID = wid.String()
		rec.Amount = money.FromUnits(amount)
		if refID != nil {
			rec.ReferenceID = refID.String()
		}
		rec.CreatedAt = createdAt.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id        uuid.UUID
		ownerID   uuid.UUID
		balance   int64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &ownerID, &balance, &w.Currency, &createdAt, &updatedAt); err != nil {
		return Wallet{}, err
	}
	w.ID = id.String()
	w.OwnerID = ownerID.String()
	w.Balance = money.FromUnits(balance)
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}
