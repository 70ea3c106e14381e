package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/loopmarket/loopmarket/internal/classifieds"
)

// RegisterClassifiedRoutes wires classified-ad endpoints.
func RegisterClassifiedRoutes(r fiber.Router, h *classifieds.Handler) {
	r.Post("/classifieds", h.Post)
	r.Get("/classifieds", h.List)
	r.Get("/classifieds/mine", h.Mine)
	r.Put("/classifieds/:id/media", h.Media)
}
