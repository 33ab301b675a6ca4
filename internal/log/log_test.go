package log

import (
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func capture(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestEventKindsAndLevels(t *testing.T) {
	logs := capture(t)
	app := fiber.New()
	app.Use(requestid.New())
	app.Get("/x", func(c *fiber.Ctx) error {
		Audit(c, "auth.login.success", map[string]any{"email": "a@b.com"})
		Security(c, "injection.detected", map[string]any{"field": "user"})
		Error(c, "server.error", errors.New("boom"), nil)
		return c.SendStatus(fiber.StatusNoContent)
	})
	_, err := app.Test(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "audit", entries[0].ContextMap()["kind"])
	assert.Equal(t, map[string]any{"email": "a@b.com"}, entries[0].ContextMap()["fields"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "security", entries[1].ContextMap()["kind"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])

	for _, e := range entries {
		ctx := e.ContextMap()
		assert.Equal(t, "/x", ctx["path"])
		assert.Equal(t, "GET", ctx["method"])
		assert.NotEmpty(t, ctx["req_id"])
	}
}

func TestAccessRecordsStatus(t *testing.T) {
	logs := capture(t)
	app := fiber.New()
	app.Use(Access())
	app.Get("/teapot", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })
	_, err := app.Test(httptest.NewRequest("GET", "/teapot", nil))
	require.NoError(t, err)

	entries := logs.FilterMessage("http.access").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, fiber.StatusTeapot, entries[0].ContextMap()["status"])
	assert.Contains(t, entries[0].ContextMap(), "latency_ms")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	l, err := New("warn", path)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))

	_, err = New("loud", "")
	assert.Error(t, err)
}

func TestNilLoggerFallsBackToNop(t *testing.T) {
	prev := SetLogger(nil)
	t.Cleanup(func() { SetLogger(prev) })
	assert.NotNil(t, L())
}

func TestAccessLogsStatusSetByErrorHandler(t *testing.T) {
	logs := capture(t)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusServiceUnavailable).SendString("down")
		},
	})
	app.Use(Access())
	app.Get("/fail", func(c *fiber.Ctx) error { return errors.New("store unreachable") })

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	entries := logs.FilterMessage("http.access").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, fiber.StatusServiceUnavailable, entries[0].ContextMap()["status"])
}
