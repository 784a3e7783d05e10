package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/KanishkRAJ29/capstonebackned/internal/identity"
)

// AccountProvisioner opens the ledger account for a newly registered user, so
// balance reads and payments work from the first request on.
type AccountProvisioner interface {
	EnsureAccount(ctx context.Context, userID string) error
}

// Handler exposes registration, login and PIN-setup endpoints.
type Handler struct {
	ids      *identity.Service
	tokens   *Tokens
	accounts AccountProvisioner
}

func NewHandler(ids *identity.Service, tokens *Tokens, accounts AccountProvisioner) *Handler {
	return &Handler{ids: ids, tokens: tokens, accounts: accounts}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns its profile.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.ids.Register(c.UserContext(), identity.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrDuplicate):
			return fiber.NewError(http.StatusConflict, "username or email already exists")
		case errors.Is(err, identity.ErrHashing):
			return fiber.NewError(http.StatusInternalServerError, "could not create account, try again")
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	if h.accounts != nil {
		if err := h.accounts.EnsureAccount(c.UserContext(), user.ID); err != nil {
			return fiber.NewError(http.StatusInternalServerError, "could not create account, try again")
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"user": user.Profile()})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresIn int64            `json:"expires_in"`
	User      identity.Profile `json:"user"`
}

// Login validates credentials and returns a signed token plus the profile.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.ids.VerifyLogin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}
		return fiber.NewError(http.StatusInternalServerError, "login failed, try again")
	}
	token, expiresIn, err := h.tokens.Issue(user.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "login failed, try again")
	}
	return c.Status(http.StatusOK).JSON(loginResponse{Token: token, ExpiresIn: expiresIn, User: user.Profile()})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := h.ids.Get(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "user not found")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": user.Profile()})
}

type setPinRequest struct {
	PIN string `json:"pin"`
}

// SetPin establishes the transaction PIN for the authenticated user.
func (h *Handler) SetPin(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req setPinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(req.PIN) < 4 {
		return fiber.NewError(http.StatusBadRequest, "PIN must be at least 4 digits")
	}
	user, err := h.ids.SetPin(c.UserContext(), uid, req.PIN)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "user not found")
		case errors.Is(err, identity.ErrHashing):
			return fiber.NewError(http.StatusInternalServerError, "could not set PIN, try again")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": user.Profile()})
}
