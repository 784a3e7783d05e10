package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/KanishkRAJ29/capstonebackned/internal/identity"
	"github.com/KanishkRAJ29/capstonebackned/internal/ledger"
	"github.com/KanishkRAJ29/capstonebackned/internal/middleware"
)

// RegisterUserRoutes wires the public user lookup endpoints.
func RegisterUserRoutes(r fiber.Router, ids *identity.Service) {
	// Merchant lookup is public: a payer needs the recipient's profile
	// before authenticating a payment.
	r.Get("/users/merchant/:merchantId", func(c *fiber.Ctx) error {
		user, err := ids.GetByMerchant(c.UserContext(), c.Params("merchantId"))
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				return fiber.NewError(http.StatusNotFound, "merchant not found")
			}
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"user": user.Profile()})
	})
}

// RegisterAdminRoutes wires the role-gated account administration endpoints.
func RegisterAdminRoutes(r fiber.Router, ids *identity.Service, l ledger.Ledger) {
	group := r.Group("/admin", middleware.RequireRole(identity.RoleAdmin))

	group.Get("/users", func(c *fiber.Ctx) error {
		users, err := ids.List(c.UserContext())
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		profiles := make([]identity.Profile, 0, len(users))
		for _, user := range users {
			profiles = append(profiles, user.Profile())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"users": profiles})
	})

	group.Delete("/users/:id", func(c *fiber.Ctx) error {
		if err := ids.Delete(c.UserContext(), c.Params("id")); err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				return fiber.NewError(http.StatusNotFound, "user not found")
			}
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": "deleted"})
	})

	// Manual balance adjustment, e.g. refunds or support corrections.
	group.Post("/users/:id/credit", func(c *fiber.Ctx) error {
		var req struct {
			Amount     int64  `json:"amount"`
			ClientTxID string `json:"client_tx_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if req.Amount <= 0 {
			return fiber.NewError(http.StatusBadRequest, "amount must be positive")
		}
		if req.ClientTxID == "" {
			req.ClientTxID = uuid.NewString()
		}
		res, err := l.Deposit(c.UserContext(), c.Params("id"), req.ClientTxID, req.Amount)
		if err != nil {
			switch {
			case errors.Is(err, ledger.ErrAccountNotFound):
				return fiber.NewError(http.StatusNotFound, "account not found")
			case errors.Is(err, ledger.ErrDuplicateTransaction):
				return fiber.NewError(http.StatusConflict, "duplicate transaction")
			default:
				return fiber.NewError(http.StatusInternalServerError, err.Error())
			}
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"transaction_id": res.TransactionID,
			"balance":        res.ToBalance,
		})
	})
}
