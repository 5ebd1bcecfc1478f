package httpapi

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/i474232898/weather-location-api/internal/logger"
)

// Options configures the Fiber app.
type Options struct {
	AppName string
	// AccessLog receives one developer-style line per request. Defaults to stdout.
	AccessLog io.Writer
	Log       logger.Logger
}

// envelope is the body of every API response.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// NewApp builds the Fiber app with the envelope error handler and global middleware.
func NewApp(opts Options) *fiber.App {
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stdout
	}
	if opts.Log == nil {
		opts.Log = logger.Discard()
	}
	log := opts.Log.WithField("component", "http")

	app := fiber.New(fiber.Config{
		AppName:               opts.AppName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
			}
			return c.Status(code).JSON(envelope{
				Success: false,
				Message: err.Error(),
			})
		},
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${method} ${path} ${status} - ${latency}\n",
		Output: opts.AccessLog,
	}))
	app.Use(recover.New())
	app.Use(cors.New())

	return app
}
