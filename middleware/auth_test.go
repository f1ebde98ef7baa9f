package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/VictorBagz/KBR/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminApp(session *services.SessionInfo) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if session != nil {
			c.Locals(SessionKey, session)
		}
		return c.Next()
	})
	app.Get("/admin/ping", RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireAdminAllowsAdminSession(t *testing.T) {
	app := adminApp(&services.SessionInfo{UserID: "u1", Roles: []string{"editor", AdminRole}})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin/ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	app := adminApp(&services.SessionInfo{UserID: "u2", Roles: []string{"editor"}})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin/ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireAdminRejectsMissingSession(t *testing.T) {
	app := adminApp(nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/admin/ping", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
