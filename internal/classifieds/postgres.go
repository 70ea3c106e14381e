package classifieds

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopmarket/loopmarket/internal/money"
)

// PostgresStore persists ads in PostgreSQL. Prices are stored as BIGINT
// minor units like every other monetary column.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds an ad store backed by PostgreSQL.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const adColumns = `id, owner_id, title, description, price, category, location, phone,
    posting_fee, status, media_urls, media_types, created_at`

// Create inserts a new ad.
func (s *PostgresStore) Create(ctx context.Context, ad Ad) (Ad, error) {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	if ad.CreatedAt.IsZero() {
		ad.CreatedAt = time.Now().UTC()
	}
	if ad.Status == "" {
		ad.Status = StatusActive
	}
	if ad.MediaURLs == nil {
		ad.MediaURLs = []string{}
	}
	if ad.MediaTypes == nil {
		ad.MediaTypes = []string{}
	}
	var price *int64
	if ad.Price != nil {
		units := ad.Price.Units()
		price = &units
	}
	_, err := s.db.Exec(ctx, `INSERT INTO classifieds
        (id, owner_id, title, description, price, category, location, phone, posting_fee, status, media_urls, media_types, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.MustParse(ad.ID), uuid.MustParse(ad.OwnerID), ad.Title, ad.Description, price,
		ad.Category, ad.Location, ad.Phone, ad.PostingFee.Units(), ad.Status,
		ad.MediaURLs, ad.MediaTypes, ad.CreatedAt)
	if err != nil {
		return Ad{}, fmt.Errorf("insert classified: %w", err)
	}
	return ad, nil
}

// ListByStatus returns ads with the given status, newest first, optionally
// filtered by category.
func (s *PostgresStore) ListByStatus(ctx context.Context, status, category string) ([]Ad, error) {
	query := `SELECT ` + adColumns + ` FROM classifieds WHERE status = $1`
	args := []any{status}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAds(rows)
}

// ListByOwner returns the owner's ads, newest first.
func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]Ad, error) {
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}
	rows, err := s.db.Query(ctx, `SELECT `+adColumns+` FROM classifieds
        WHERE owner_id = $1 ORDER BY created_at DESC`, ownerUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAds(rows)
}

// UpdateMedia sets the media columns for an ad owned by ownerID.
func (s *PostgresStore) UpdateMedia(ctx context.Context, id, ownerID string, mediaURLs, mediaTypes []string) error {
	adUUID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("parse ad id: %w", err)
	}
	ownerUUID, err := uuid.Parse(ownerID)
	if err != nil {
		return fmt.Errorf("parse owner id: %w", err)
	}
	if mediaTypes == nil {
		mediaTypes = []string{}
	}
	tag, err := s.db.Exec(ctx, `UPDATE classifieds SET media_urls = $1, media_types = $2
        WHERE id = $3 AND owner_id = $4`, mediaURLs, mediaTypes, adUUID, ownerUUID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdNotFound
	}
	return nil
}

func scanAds(rows pgx.Rows) ([]Ad, error) {
	var ads []Ad
	for rows.Next() {
		var (
			ad         Ad
			id         uuid.UUID
			ownerID    uuid.UUID
			price      *int64
			postingFee int64
			createdAt  time.Time
		)
		if err := rows.Scan(&id, &ownerID, &ad.Title, &ad.Description, &price, &ad.Category,
			&ad.Location, &ad.Phone, &postingFee, &ad.Status, &ad.MediaURLs, &ad.MediaTypes, &createdAt); err != nil {
			return nil, err
		}
		ad.ID = id.String()
		ad.OwnerID = ownerID.String()
		if price != nil {
			p := money.FromUnits(*price)
			ad.Price = &p
		}
		ad.PostingFee = money.FromUnits(postingFee)
		ad.CreatedAt = createdAt.UTC()
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}
