package middleware

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestAuditLogsRequestAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Audit(logger))
	app.Get("/wallet", func(c *fiber.Ctx) error {
		// Set downstream, the way the auth guard does.
		c.Locals("user_id", "user-1")
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/wallet", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	out := buf.String()
	for _, want := range []string{
		`"method":"GET"`,
		`"path":"/wallet"`,
		`"status":200`,
		`"user_id":"user-1"`,
		`"request_id"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("audit log missing %s in %s", want, out)
		}
	}
}
