package handler

import (
	"strconv"
	"time"

	"github.com/fekuna/omnipos-fleet-simulator/internal/apperror"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/robot"
	"github.com/fekuna/omnipos-fleet-simulator/internal/route"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type HTTPConfig struct {
	RateLimit int // requests per minute per IP, 0 disables
}

// HTTPHandler is the read-only fleet projection used by dashboards.
type HTTPHandler struct {
	robots robot.UseCase
	trips  trip.UseCase
	ledger inventory.UseCase
	routes *route.Map
	logger logger.ZapLogger
}

func NewHTTPHandler(robots robot.UseCase, trips trip.UseCase, ledger inventory.UseCase, routes *route.Map, log logger.ZapLogger) *HTTPHandler {
	return &HTTPHandler{
		robots: robots,
		trips:  trips,
		ledger: ledger,
		routes: routes,
		logger: log,
	}
}

func (h *HTTPHandler) App(cfg HTTPConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          h.errorHandler,
	})
	app.Use(recover.New())

	api := app.Group("/api/v1")
	if cfg.RateLimit > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
			},
		}))
	}

	api.Get("/robots", h.ListRobots)
	api.Get("/robots/:id", h.GetRobot)
	api.Get("/robots/:id/trips", h.ListTrips)
	api.Get("/products", h.ListProducts)
	api.Get("/trips/active", h.ActiveTrips)
	api.Get("/route", h.GetRoute)
	return app
}

func (h *HTTPHandler) ListRobots(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"robots": h.robots.ListRobots(c.UserContext())})
}

func (h *HTTPHandler) GetRobot(c *fiber.Ctx) error {
	id, err := robotIDParam(c)
	if err != nil {
		return err
	}
	bot, err := h.robots.GetRobot(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(bot)
}

func (h *HTTPHandler) ListTrips(c *fiber.Ctx) error {
	id, err := robotIDParam(c)
	if err != nil {
		return err
	}
	records, err := h.trips.ListTrips(c.UserContext(), id)
	if err != nil {
		return err
	}
	if records == nil {
		records = []model.TripRecord{}
	}
	return c.JSON(fiber.Map{"trips": records})
}

func (h *HTTPHandler) ListProducts(c *fiber.Ctx) error {
	levels, err := h.ledger.StockLevels(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": levels})
}

func (h *HTTPHandler) ActiveTrips(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"trips": h.trips.ActiveTrips(c.UserContext())})
}

func (h *HTTPHandler) GetRoute(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"waypoints": h.routes.Waypoints()})
}

func (h *HTTPHandler) errorHandler(c *fiber.Ctx, err error) error {
	code := httpStatus(err)
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		h.logger.Error("HTTP request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func robotIDParam(c *fiber.Ctx) (model.RobotID, error) {
	raw := c.Params("id")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperror.InvalidIdentifier(raw)
	}
	return model.RobotID(n), nil
}
