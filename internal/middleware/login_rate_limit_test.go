package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func setupLoginApp(t *testing.T) (*fiber.App, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New(fiber.Config{ProxyHeader: "X-Forwarded-For"})
	app.Use(LoginRateLimit(cache, 5))
	app.Post("/login", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, cleanup
}

func loginAttempt(t *testing.T, app *fiber.App, ip, username string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/login",
		strings.NewReader(`{"username":"`+username+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Forwarded-For", ip)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestLoginRateLimitBlocksAfterLimit(t *testing.T) {
	app, cleanup := setupLoginApp(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		if status := loginAttempt(t, app, "10.0.0.1", "alice"); status != fiber.StatusOK {
			t.Fatalf("attempt %d: expected %d got %d", i+1, fiber.StatusOK, status)
		}
	}
	if status := loginAttempt(t, app, "10.0.0.1", "alice"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected %d got %d", fiber.StatusTooManyRequests, status)
	}
}

func TestLoginRateLimitIsScopedToCallerIP(t *testing.T) {
	app, cleanup := setupLoginApp(t)
	defer cleanup()

	// One caller exhausting attempts against a username must not block the
	// account's owner logging in from elsewhere.
	for i := 0; i < 6; i++ {
		loginAttempt(t, app, "10.0.0.1", "victim")
	}
	if status := loginAttempt(t, app, "10.0.0.1", "victim"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected attacker to be limited, got %d", status)
	}
	if status := loginAttempt(t, app, "10.0.0.2", "victim"); status != fiber.StatusOK {
		t.Fatalf("expected owner from another address to pass, got %d", status)
	}
}
