package routes

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/KanishkRAJ29/capstonebackned/internal/identity"
	"github.com/KanishkRAJ29/capstonebackned/internal/ledger"
)

func setupAdminApp(t *testing.T, role string) (*fiber.App, *identity.Service, ledger.Ledger) {
	t.Helper()
	ids := identity.NewService(identity.NewMemoryRepository())
	l := ledger.NewInMemory()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		return c.Next()
	})
	RegisterAdminRoutes(app, ids, l)
	return app, ids, l
}

func creditRequest(t *testing.T, app *fiber.App, userID, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/admin/users/"+userID+"/credit", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestAdminCreditAdjustsBalance(t *testing.T) {
	app, ids, l := setupAdminApp(t, identity.RoleAdmin)
	ctx := context.Background()

	user, err := ids.Register(ctx, identity.RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := l.EnsureAccount(ctx, user.ID); err != nil {
		t.Fatalf("ensure account: %v", err)
	}

	if status := creditRequest(t, app, user.ID, `{"amount": 500}`); status != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, status)
	}

	balance, err := l.Balance(ctx, user.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 500 {
		t.Fatalf("expected 500, got %d", balance)
	}
}

func TestAdminCreditUnknownAccount(t *testing.T) {
	app, _, _ := setupAdminApp(t, identity.RoleAdmin)

	if status := creditRequest(t, app, "ghost", `{"amount": 500}`); status != fiber.StatusNotFound {
		t.Fatalf("expected %d got %d", fiber.StatusNotFound, status)
	}
}

func TestAdminCreditRejectsNonPositiveAmount(t *testing.T) {
	app, _, _ := setupAdminApp(t, identity.RoleAdmin)

	if status := creditRequest(t, app, "anyone", `{"amount": 0}`); status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	app, _, _ := setupAdminApp(t, identity.RoleUser)

	if status := creditRequest(t, app, "anyone", `{"amount": 500}`); status != fiber.StatusForbidden {
		t.Fatalf("expected %d got %d", fiber.StatusForbidden, status)
	}
}
