package httpapi

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-location-api/internal/logger"
	"github.com/i474232898/weather-location-api/internal/store"
	"github.com/i474232898/weather-location-api/internal/weather"
)

const (
	msgNoRecord  = "No record found"
	msgNoWeather = "No weather data found"
	msgUpdated   = "info mis à jour"
	msgDeleted   = "localite supprimé"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RouteConfig holds the settings the handlers need.
type RouteConfig struct {
	// Prefix is prepended to every API route, e.g. "/api/v1".
	Prefix string
	// RequestTimeout bounds the store work of a single request (0 = unbounded).
	RequestTimeout time.Duration
	Log            logger.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, cfg RouteConfig) {
	log := cfg.Log
	if log == nil {
		log = logger.Discard()
	}
	h := &handlers{service: service, timeout: cfg.RequestTimeout, log: log}

	app.Get("/health", h.health)
	registerDocs(app, cfg.Prefix)

	api := app.Group(cfg.Prefix)
	api.Post("/location", h.createLocation)
	api.Get("/location", h.listLocations)
	api.Get("/weather/:idLocation/:date", h.getWeather)
	api.Put("/location/:id", h.updateLocation)
	api.Delete("/location/:id", h.deleteLocation)
}

type handlers struct {
	service *weather.Service
	timeout time.Duration
	log     logger.Logger
}

// requestContext derives the store context for a request.
func (h *handlers) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

// createLocationRequest is the body of POST /location.
type createLocationRequest struct {
	Name        *text      `json:"name"`
	Latitude    *text      `json:"latitude"`
	Longitude   *text      `json:"longitude"`
	Temperature *number    `json:"temperature" validate:"required"`
	VitesseVent *number    `json:"vitesse_vent" validate:"required"`
	Humidite    *number    `json:"humidite" validate:"required"`
	Date        *timestamp `json:"date"`
}

func (r createLocationRequest) toInput() weather.NewLocationInput {
	in := weather.NewLocationInput{
		Name:        textValue(r.Name),
		Latitude:    textValue(r.Latitude),
		Longitude:   textValue(r.Longitude),
		Temperature: float64(*r.Temperature),
		VitesseVent: float64(*r.VitesseVent),
		Humidite:    float64(*r.Humidite),
	}
	if r.Date != nil {
		in.Date = time.Time(*r.Date)
	}
	return in
}

// updateLocationRequest is the body of PUT /location/:id. Unknown fields,
// including weather, are ignored.
type updateLocationRequest struct {
	Name      *text `json:"name"`
	Latitude  *text `json:"latitude"`
	Longitude *text `json:"longitude"`
}

func (r updateLocationRequest) toPatch() weather.LocationPatch {
	return weather.LocationPatch{
		Name:      textPtr(r.Name),
		Latitude:  textPtr(r.Latitude),
		Longitude: textPtr(r.Longitude),
	}
}

func (h *handlers) createLocation(c *fiber.Ctx) error {
	var req createLocationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	loc, err := h.service.CreateLocation(ctx, req.toInput())
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(envelope{Success: true, Data: loc})
}

func (h *handlers) listLocations(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	locs, err := h.service.ListLocations(ctx)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(envelope{Success: true, Data: locs})
}

func (h *handlers) getWeather(c *fiber.Ctx) error {
	date, ok := pathDate(c.Params("date"))
	if !ok {
		h.log.Debugf("unparsed weather date %q", c.Params("date"))
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	ws, err := h.service.GetLocationWeather(ctx, c.Params("idLocation"), date)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(envelope{Success: true, Data: ws})
}

func (h *handlers) updateLocation(c *fiber.Ctx) error {
	var req updateLocationRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	loc, err := h.service.UpdateLocation(ctx, c.Params("id"), req.toPatch())
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(envelope{Success: true, Message: msgUpdated, Data: loc})
}

func (h *handlers) deleteLocation(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.DeleteLocation(ctx, c.Params("id")); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(envelope{Success: true, Message: msgDeleted})
}

func (h *handlers) health(c *fiber.Ctx) error {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.service.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "degraded",
			"service": "weather-location-api",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "weather-location-api",
	})
}

// bindBody parses the JSON body into dst and runs the struct validators.
func bindBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("malformed request body: %v", err))
	}
	if err := validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
	}
	return nil
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// toHTTPError maps service and store errors onto the status policy:
// not found is 404, everything else is 400 with the error text.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, weather.ErrWeatherMissing):
		return fiber.NewError(fiber.StatusNotFound, msgNoWeather)
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, msgNoRecord)
	default:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
}
