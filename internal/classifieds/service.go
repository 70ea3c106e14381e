package classifieds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/loopmarket/internal/money"
	"github.com/loopmarket/loopmarket/internal/wallet"
)

// ErrInvalidAd occurs when a posting request fails validation.
var ErrInvalidAd = errors.New("invalid classified")

// Service coordinates ad posting with the wallet that pays for it.
type Service struct {
	store   Store
	wallets *wallet.Service
	media   MediaIssuer
	logger  *slog.Logger
}

// NewService wires the ad store, the wallet service charging posting fees,
// and the media issuer handing out upload slots.
func NewService(store Store, wallets *wallet.Service, media MediaIssuer, logger *slog.Logger) *Service {
	return &Service{store: store, wallets: wallets, media: media, logger: logger}
}

// PostInput carries a new ad submission.
type PostInput struct {
	OwnerID     string
	Title       string
	Description string
	Price       *decimal.Decimal
	Category    string
	Location    string
	Phone       string
	MediaCount  int
}

// PostResult is the outcome of a successful posting.
type PostResult struct {
	Ad         Ad
	NewBalance money.Money
	Uploads    []UploadHandle
}

// Post validates the submission, charges the posting fee and persists the
// ad. The fee transfer settles before the ad becomes visible; when the
// transfer fails nothing is stored.
func (s *Service) Post(ctx context.Context, in PostInput) (PostResult, error) {
	if err := validate(in); err != nil {
		return PostResult{}, err
	}

	if _, err := s.wallets.GetOrCreate(ctx, in.OwnerID); err != nil {
		return PostResult{}, err
	}

	adID := uuid.NewString()
	res, err := s.wallets.ChargePostingFee(ctx, in.OwnerID, adID, in.Title)
	if err != nil {
		return PostResult{}, err
	}

	ad := Ad{
		ID:          adID,
		OwnerID:     in.OwnerID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Location:    in.Location,
		Phone:       in.Phone,
		PostingFee:  s.wallets.Policy().Fee,
		Status:      StatusActive,
	}
	if in.Price != nil {
		p := money.FromDecimal(*in.Price)
		ad.Price = &p
	}

	stored, err := s.store.Create(ctx, ad)
	if err != nil {
		// The fee already settled. Surface the ledger reference so the
		// ad can be recreated or the fee refunded by hand.
		s.logger.Error("classified not stored after fee settled",
			"ad_id", adID, "owner_id", in.OwnerID, "error", err)
		return PostResult{}, fmt.Errorf("store classified %s: %w", adID, err)
	}

	var uploads []UploadHandle
	if in.MediaCount > 0 {
		uploads, err = s.media.IssueUploads(ctx, in.OwnerID, adID, in.MediaCount)
		if err != nil {
			s.logger.Warn("media upload handles unavailable", "ad_id", adID, "error", err)
			uploads = nil
		}
	}

	s.logger.Info("classified posted",
		"ad_id", adID, "owner_id", in.OwnerID, "fee", ad.PostingFee.String())

	return PostResult{Ad: stored, NewBalance: res.SourceBalance, Uploads: uploads}, nil
}

// List returns active ads, optionally filtered by category.
func (s *Service) List(ctx context.Context, category string) ([]Ad, error) {
	return s.store.ListByStatus(ctx, StatusActive, category)
}

// Mine returns the caller's own ads regardless of status.
func (s *Service) Mine(ctx context.Context, ownerID string) ([]Ad, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// AttachMedia records uploaded media locations on an ad the caller owns.
func (s *Service) AttachMedia(ctx context.Context, adID, ownerID string, mediaURLs, mediaTypes []string) error {
	if len(mediaURLs) > MaxMediaPerAd {
		return fmt.Errorf("%w: at most %d media items", ErrInvalidAd, MaxMediaPerAd)
	}
	if len(mediaTypes) != 0 && len(mediaTypes) != len(mediaURLs) {
		return fmt.Errorf("%w: media types must match media urls", ErrInvalidAd)
	}
	return s.store.UpdateMedia(ctx, adID, ownerID, mediaURLs, mediaTypes)
}

func validate(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidAd)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidAd)
	}
	if digitCount(in.Phone) < 10 {
		return fmt.Errorf("%w: phone must have at least 10 digits", ErrInvalidAd)
	}
	if in.Price != nil && in.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidAd)
	}
	if in.MediaCount < 0 || in.MediaCount > MaxMediaPerAd {
		return fmt.Errorf("%w: media count must be between 0 and %d", ErrInvalidAd, MaxMediaPerAd)
	}
	return nil
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
