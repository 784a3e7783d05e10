package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KanishkRAJ29/capstonebackned/internal/wallet"
)

// RegisterWalletRoutes wires the authenticated wallet read endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	group := r.Group("/wallet")
	group.Get("", h.Get)
	group.Get("/transactions", h.Transactions)
}
