package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/loopmarket/internal/ledger"
	"github.com/loopmarket/loopmarket/internal/money"
	"github.com/loopmarket/loopmarket/internal/transfer"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type walletResponse struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"owner_id"`
	Balance   money.Money `json:"balance"`
	Currency  string      `json:"currency"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type transactionResponse struct {
	ID            string      `json:"id"`
	WalletID      string      `json:"wallet_id"`
	Amount        money.Money `json:"amount"`
	Type          string      `json:"type"`
	Description   string      `json:"description"`
	ReferenceType string      `json:"reference_type"`
	ReferenceID   string      `json:"reference_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

func toWalletResponse(w ledger.Wallet) walletResponse {
	return walletResponse{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Balance:   w.Balance,
		Currency:  w.Currency,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// Get returns the caller's wallet, creating it on first access.
func (h *Handler) Get(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("owner_id").(string)
	w, err := h.service.GetOrCreate(c.UserContext(), ownerID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"wallet":  toWalletResponse(w),
	})
}

// Transactions returns the caller's ledger history, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("owner_id").(string)
	records, err := h.service.Transactions(c.UserContext(), ownerID)
	if err != nil {
		return mapError(err)
	}
	out := make([]transactionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, transactionResponse{
			ID:            rec.ID,
			WalletID:      rec.WalletID,
			Amount:        rec.Amount,
			Type:          rec.Type,
			Description:   rec.Description,
			ReferenceType: rec.ReferenceType,
			ReferenceID:   rec.ReferenceID,
			CreatedAt:     rec.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":      true,
		"transactions": out,
	})
}

type addMoneyRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// AddMoney performs a mock top-up of the caller's wallet.
func (h *Handler) AddMoney(c *fiber.Ctx) error {
	ownerID, _ := c.Locals("owner_id").(string)
	var req addMoneyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "please enter a valid amount")
	}
	res, err := h.service.TopUp(c.UserContext(), ownerID, req.Amount)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":      true,
		"message":      "added " + res.Credit.String() + " " + h.service.Currency(),
		"new_balance":  res.Wallet.Balance,
		"amount_added": res.Credit,
	})
}

// ExchangeRate reports the configured base-currency conversion rate.
func (h *Handler) ExchangeRate(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":       true,
		"rate":          h.service.ExchangeRate(),
		"currency":      h.service.Currency(),
		"base_currency": h.service.BaseCurrency(),
	})
}

// mapError translates domain errors into the HTTP status taxonomy. Anything
// unrecognized is a 500; reconciliation failures are explicitly so.
func mapError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, ledger.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, "please enter a valid amount")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient balance")
	case errors.Is(err, ledger.ErrConflict):
		return fiber.NewError(http.StatusConflict, "wallet busy, please retry")
	case errors.Is(err, transfer.ErrCreditFailed):
		return fiber.NewError(http.StatusInternalServerError, "transfer could not be completed, no money has moved")
	case errors.Is(err, transfer.ErrReconciliationRequired):
		return fiber.NewError(http.StatusInternalServerError, "transfer failed and requires manual review")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
