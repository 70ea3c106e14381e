package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/loopmarket/loopmarket/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints. Top-ups additionally
// pass through the per-owner rate limit.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, topUpLimit fiber.Handler) {
	r.Get("/wallet", h.Get)
	r.Get("/wallet/transactions", h.Transactions)
	r.Post("/wallet/add-money", topUpLimit, h.AddMoney)
	r.Get("/wallet/exchange-rate", h.ExchangeRate)
}
