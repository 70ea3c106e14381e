package classifieds

import (
	"time"

	"github.com/loopmarket/loopmarket/internal/money"
)

const (
	// StatusActive marks ads visible in public listings.
	StatusActive = "active"
)

// Ad is a posted classified listing. The posting fee recorded here matches
// the ledger transfer that paid for it; both carry the ad id as reference.
type Ad struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Price       *money.Money `json:"price,omitempty"`
	Category    string       `json:"category,omitempty"`
	Location    string       `json:"location,omitempty"`
	Phone       string       `json:"phone"`
	PostingFee  money.Money  `json:"posting_fee"`
	Status      string       `json:"status"`
	MediaURLs   []string     `json:"media_urls"`
	MediaTypes  []string     `json:"media_types"`
	CreatedAt   time.Time    `json:"created_at"`
}
