package classifieds

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryStore is an in-memory ad store for development and tests.
type memoryStore struct {
	mu  sync.RWMutex
	ads map[string]Ad
}

// NewMemoryStore builds an empty in-memory ad store.
func NewMemoryStore() Store {
	return &memoryStore{ads: make(map[string]Ad)}
}

func (s *memoryStore) Create(_ context.Context, ad Ad) (Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	s.ads[ad.ID] = ad
	return ad, nil
}

func (s *memoryStore) ListByStatus(_ context.Context, status, category string) ([]Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Ad
	for _, ad := range s.ads {
		if ad.Status != status {
			continue
		}
		if category != "" && ad.Category != category {
			continue
		}
		out = append(out, ad)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *memoryStore) ListByOwner(_ context.Context, ownerID string) ([]Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Ad
	for _, ad := range s.ads {
		if ad.OwnerID == ownerID {
			out = append(out, ad)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *memoryStore) UpdateMedia(_ context.Context, id, ownerID string, mediaURLs, mediaTypes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ad, ok := s.ads[id]
	if !ok || ad.OwnerID != ownerID {
		return ErrAdNotFound
	}
	if mediaTypes == nil {
		mediaTypes = []string{}
	}
	ad.MediaURLs = mediaURLs
	ad.MediaTypes = mediaTypes
	s.ads[id] = ad
	return nil
}

func sortNewestFirst(ads []Ad) {
	sort.Slice(ads, func(i, j int) bool {
		return ads[i].CreatedAt.After(ads[j].CreatedAt)
	})
}
