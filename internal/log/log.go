package log

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() { current.Store(zap.NewNop()) }

// New builds the JSON event logger. Output goes to stdout and, when file is
// non-empty, is appended to that file as well.
func New(level, file string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	zc.OutputPaths = []string{"stdout"}
	if file != "" {
		zc.OutputPaths = append(zc.OutputPaths, file)
	}
	zc.DisableStacktrace = true
	return zc.Build()
}

// SetLogger replaces the process event logger and returns the previous one.
func SetLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return current.Swap(l)
}

func L() *zap.Logger { return current.Load() }

func fieldsFor(c *fiber.Ctx, kind string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, 8)
	out = append(out, zap.String("kind", kind))
	if c != nil {
		out = append(out,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			out = append(out, zap.String("req_id", rid))
		}
	}
	if len(fields) > 0 {
		out = append(out, zap.Any("fields", fields))
	}
	return out
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	L().Info(action, fieldsFor(c, "info", fields)...)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	L().Info(action, fieldsFor(c, "audit", fields)...)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	L().Warn(action, fieldsFor(c, "security", fields)...)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	L().Error(action, append(fieldsFor(c, "error", fields), zap.Error(err))...)
}

// Access logs one line per request after the rest of the chain ran.
func Access() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		// run the app error handler here so the logged status is the one sent
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				L().Error("server.error", append(fieldsFor(c, "error", nil), zap.Error(herr))...)
				if serr := c.SendStatus(fiber.StatusInternalServerError); serr != nil {
					return serr
				}
			}
		}
		L().Info("http.access", append(fieldsFor(c, "access", nil),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()))...)
		return nil
	}
}
