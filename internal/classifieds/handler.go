package classifieds

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/loopmarket/internal/ledger"
	"github.com/loopmarket/loopmarket/internal/transfer"
)

// Handler exposes classified-ad HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a classifieds HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type postRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    string           `json:"category"`
	Location    string           `json:"location"`
	Phone       string           `json:"phone"`
	MediaCount  int              `json:"media_count"`
}

// Post creates a new ad, charging the posting fee from the caller's wallet.
func (h *Handler) Post(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("owner_id").(string)
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.service.Post(c.UserContext(), PostInput{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Location:    req.Location,
		Phone:       req.Phone,
		MediaCount:  req.MediaCount,
	})
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "classified posted",
		"classified":  res.Ad,
		"new_balance": res.NewBalance,
		"upload_urls": res.Uploads,
	})
}

// List returns active ads, optionally filtered with ?category=.
func (h *Handler) List(c *fiber.Ctx) error {
	ads, err := h.service.List(c.UserContext(), c.Query("category"))
	if err != nil {
		return mapError(err)
	}
	if ads == nil {
		ads = []Ad{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":     true,
		"classifieds": ads,
	})
}

// Mine returns the caller's own ads.
func (h *Handler) Mine(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("owner_id").(string)
	ads, err := h.service.Mine(c.UserContext(), ownerID)
	if err != nil {
		return mapError(err)
	}
	if ads == nil {
		ads = []Ad{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":     true,
		"classifieds": ads,
	})
}

type mediaRequest struct {
	MediaURLs  []string `json:"media_urls"`
	MediaTypes []string `json:"media_types"`
}

// Media records uploaded media locations on an ad the caller owns.
func (h *Handler) Media(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("owner_id").(string)
	adID := c.Params("id")
	var req mediaRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.service.AttachMedia(c.UserContext(), adID, ownerID, req.MediaURLs, req.MediaTypes); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "media updated",
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAd):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAdNotFound):
		return fiber.NewError(http.StatusNotFound, "classified not found")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient balance to post classified")
	case errors.Is(err, ledger.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, ledger.ErrConflict):
		return fiber.NewError(http.StatusConflict, "wallet busy, please retry")
	case errors.Is(err, transfer.ErrReconciliationRequired):
		return fiber.NewError(http.StatusInternalServerError, "posting fee transfer requires manual review")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
