package classifieds

import (
	"context"
	"fmt"
	"time"
)

// MaxMediaPerAd caps how many upload handles a single ad receives.
const MaxMediaPerAd = 10

// UploadHandle is a pre-authorized slot for one media object.
type UploadHandle struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MediaIssuer represents a connector to an external object store that hands
// out short-lived upload destinations for ad media.
type MediaIssuer interface {
	IssueUploads(ctx context.Context, ownerID, adID string, count int) ([]UploadHandle, error)
}

// StaticIssuer simulates a successful object store integration. Handles point
// at a fixed base URL and expire after a short window.
type StaticIssuer struct {
	BaseURL string
	TTL     time.Duration
}

// NewStaticIssuer builds a media issuer serving handles under baseURL.
func NewStaticIssuer(baseURL string) StaticIssuer {
	return StaticIssuer{BaseURL: baseURL, TTL: 15 * time.Minute}
}

// IssueUploads mints count handles keyed under the owner and ad.
func (i StaticIssuer) IssueUploads(_ context.Context, ownerID, adID string, count int) ([]UploadHandle, error) {
	if count > MaxMediaPerAd {
		count = MaxMediaPerAd
	}
	expires := time.Now().UTC().Add(i.TTL)
	handles := make([]UploadHandle, 0, count)
	for n := 0; n < count; n++ {
		key := fmt.Sprintf("classifieds/%s/%s/media_%d", ownerID, adID, n)
		handles = append(handles, UploadHandle{
			Key:       key,
			UploadURL: fmt.Sprintf("%s/upload/%s", i.BaseURL, key),
			PublicURL: fmt.Sprintf("%s/%s", i.BaseURL, key),
			ExpiresAt: expires,
		})
	}
	return handles, nil
}
