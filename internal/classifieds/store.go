package classifieds

import (
	"context"
	"errors"
)

// ErrAdNotFound occurs when no ad matches the requested id (and owner, for
// owner-scoped operations).
var ErrAdNotFound = errors.New("classified not found")

// Store persists classified ads.
type Store interface {
	Create(ctx context.Context, ad Ad) (Ad, error)
	ListByStatus(ctx context.Context, status, category string) ([]Ad, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Ad, error)
	UpdateMedia(ctx context.Context, id, ownerID string, mediaURLs, mediaTypes []string) error
}
