package server

import (
	"crypto/sha256"
	"embed"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"

	"github.com/deusflow/newsdigest/internal/logger"
)

//go:embed views/*.html
var viewsFS embed.FS

//go:embed static/*
var staticFS embed.FS

type Options struct {
	// SecretKey seeds the cookie encryption key.
	SecretKey string
	// AccessLog enables per-request logging.
	AccessLog bool
}

// New builds the fiber app with middleware, templates and all routes.
func New(opts Options, h *Handlers) (*fiber.App, error) {
	if opts.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}

	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, fmt.Errorf("failed to load views: %w", err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "newsdigest",
		Views:                 html.NewFileSystem(http.FS(views), ".html"),
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if opts.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${locals:requestid} ${status} ${method} ${path} ${latency}\n",
			Output: logger.Logger.Writer(),
		}))
	}
	app.Use(encryptcookie.New(encryptcookie.Config{Key: cookieKey(opts.SecretKey)}))

	app.Use("/static", filesystem.New(filesystem.Config{Root: http.FS(static)}))

	SetupRoutes(app, h)
	return app, nil
}

// SetupRoutes binds every handler to its path.
func SetupRoutes(app *fiber.App, h *Handlers) {
	app.Get("/", h.Home)
	app.Get("/summarize", h.Summarize)
	app.Post("/summarize", h.Summarize)
	app.Post("/bookmark", h.Bookmark)
	app.Get("/analytics", h.Analytics)
	app.Get("/clear_bookmarks", h.ClearBookmarks)
	app.Get("/clear_session", h.ClearSession)

	app.Get("/health", h.Health)
	app.Get("/metrics", h.Metrics)
}

// cookieKey derives the base64 AES-256 key encryptcookie expects from an
// arbitrary secret string.
func cookieKey(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		logger.Error("request failed", "path", c.Path(), "request_id", c.Locals("requestid"), "error", err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
