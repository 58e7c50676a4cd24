package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *string) {
	t.Helper()

	var seen string
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error {
		seen = GetRequestID(c)
		return c.SendStatus(fiber.StatusOK)
	})
	return app, &seen
}

func TestNew_GeneratesRequestID(t *testing.T) {
	app, seen := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	id := resp.Header.Get(HeaderRequestID)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, *seen)
}

func TestNew_KeepsProvidedRequestID(t *testing.T) {
	app, seen := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "client-supplied-id")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "client-supplied-id", resp.Header.Get(HeaderRequestID))
	assert.Equal(t, "client-supplied-id", *seen)
}
