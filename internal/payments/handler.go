package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/KanishkRAJ29/capstonebackned/internal/identity"
	"github.com/KanishkRAJ29/capstonebackned/internal/ledger"
)

// Handler exposes payment endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type payMerchantRequest struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount"`
	PIN        string `json:"pin"`
	ClientTxID string `json:"client_tx_id"`
}

// PayMerchant executes a PIN-gated payment to a merchant.
func (h *Handler) PayMerchant(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req payMerchantRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.PayMerchant(c.UserContext(), PayMerchantInput{
		FromUserID: uid,
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		PIN:        req.PIN,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		return paymentError(err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

type transferRequest struct {
	To         string `json:"to"`
	Amount     int64  `json:"amount"`
	ClientTxID string `json:"client_tx_id"`
}

// Transfer executes a P2P transfer addressed by username or email.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Transfer(c.UserContext(), TransferInput{
		FromUserID: uid,
		ToHandle:   req.To,
		Amount:     req.Amount,
		ClientTxID: req.ClientTxID,
	})
	if err != nil {
		return paymentError(err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

func paymentError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidPin):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrSelfPayment):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, "recipient not found")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrHashing):
		return fiber.NewError(http.StatusInternalServerError, "payment failed, try again")
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}
