package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/KanishkRAJ29/capstonebackned/internal/identity"
	"github.com/KanishkRAJ29/capstonebackned/internal/ledger"
)

func TestRegisterOpensLedgerAccount(t *testing.T) {
	ids := identity.NewService(identity.NewMemoryRepository())
	l := ledger.NewInMemory()
	h := NewHandler(ids, NewTokens("test-secret", time.Hour), l)

	app := fiber.New()
	app.Post("/register", h.Register)

	req := httptest.NewRequest(fiber.MethodPost, "/register",
		strings.NewReader(`{"username":"alice","email":"a@x.com","password":"secret1"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	var decoded struct {
		User identity.Profile `json:"user"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.User.ID == "" {
		t.Fatalf("response carries no user id: %s", body)
	}

	// A fresh account must be readable from the ledger right away.
	balance, err := l.Balance(context.Background(), decoded.User.ID)
	if err != nil {
		t.Fatalf("fresh user has no ledger account: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero opening balance, got %d", balance)
	}
}

func TestRegisterDuplicateConflict(t *testing.T) {
	ids := identity.NewService(identity.NewMemoryRepository())
	h := NewHandler(ids, NewTokens("test-secret", time.Hour), ledger.NewInMemory())

	app := fiber.New()
	app.Post("/register", h.Register)

	post := func() int {
		req := httptest.NewRequest(fiber.MethodPost, "/register",
			strings.NewReader(`{"username":"alice","email":"a@x.com","password":"secret1"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if status := post(); status != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, status)
	}
	if status := post(); status != fiber.StatusConflict {
		t.Fatalf("expected %d got %d", fiber.StatusConflict, status)
	}
}
