package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KanishkRAJ29/capstonebackned/internal/middleware"
	"github.com/KanishkRAJ29/capstonebackned/internal/payments"
)

// RegisterPaymentRoutes wires the payment endpoints. Payment POSTs are
// idempotent via the Idempotency-Key header when Redis is available.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, d Deps) {
	group := r.Group("/payments")
	if d.Cache != nil {
		group.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	group.Post("/merchant", h.PayMerchant)
	group.Post("/transfer", h.Transfer)
}
