package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL UNIQUE,
        balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
        currency TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
        id UUID PRIMARY KEY,
        wallet_id UUID NOT NULL REFERENCES wallets (id),
        amount BIGINT NOT NULL CHECK (amount > 0),
        type TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        reference_type TEXT NOT NULL DEFAULT '',
        reference_id UUID,
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_wallet
        ON wallet_transactions (wallet_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS classifieds (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL,
        title TEXT NOT NULL,
        description TEXT NOT NULL,
        price BIGINT,
        category TEXT NOT NULL DEFAULT '',
        location TEXT NOT NULL DEFAULT '',
        phone TEXT NOT NULL DEFAULT '',
        posting_fee BIGINT NOT NULL,
        status TEXT NOT NULL DEFAULT 'active',
        media_urls TEXT[] NOT NULL DEFAULT '{}',
        media_types TEXT[] NOT NULL DEFAULT '{}',
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_classifieds_status
        ON classifieds (status, created_at DESC)`,
}

// EnsureSchema creates the application tables when they do not exist yet.
// Balance and amount columns hold minor units as BIGINT; the CHECK
// constraints are a backstop behind the conditional-write logic.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
