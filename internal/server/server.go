// Package server assembles the fiber application: middleware, the page
// dispatcher and every action route.
package server

import (
	"time"

	"food-dashboard/internal/admin"
	"food-dashboard/internal/audit"
	"food-dashboard/internal/auth"
	"food-dashboard/internal/dashboard"
	"food-dashboard/internal/inventory"
	"food-dashboard/internal/metrics"
	"food-dashboard/internal/navigation"
	"food-dashboard/internal/records"
	"food-dashboard/internal/views"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const sessionCookie = "food_dashboard_session"

type Deps struct {
	Records  *records.Service
	Metrics  *metrics.Metrics
	Gate     *auth.Gate
	Sessions *session.Store // nil means an in-memory store
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "food-dashboard",
		Views:                 views.Engine(),
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	sessions := d.Sessions
	if sessions == nil {
		sessions = session.New(session.Config{
			KeyLookup:      "cookie:" + sessionCookie,
			Expiration:     24 * time.Hour,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	state := navigation.NewState(sessions)
	svc := d.Records
	store := svc.Store
	gate := d.Gate

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: audit.RequestIDKey,
	}))
	app.Use(requestLogger())
	app.Use(d.Metrics.Middleware())

	app.Get("/healthz", HealthHandler(store))
	if d.Metrics != nil {
		app.Get("/metrics", d.Metrics.Handler())
	}

	pages := map[navigation.Page]fiber.Handler{
		navigation.Home:      dashboard.HomeHandler(store),
		navigation.Inventory: inventory.ListInventoryHandler(store),
		navigation.Add:       inventory.AddInventoryFormHandler(svc),
		navigation.Waste:     inventory.LogWasteHandler(store),
		navigation.Analytics: dashboard.AnalyticsHandler(store),
		navigation.Admin:     admin.PanelHandler(svc, gate),
	}
	app.Get("/", DispatchHandler(state, pages))
	app.Post("/nav/:page", NavigateHandler(state))

	app.Post("/inventory", inventory.CreateInventoryHandler(svc, state))
	app.Post("/waste", inventory.CreateWasteHandler(svc, state))
	app.Post("/waste/delete", inventory.DeleteWasteHandler(svc, state))

	app.Post("/admin/login", auth.LoginHandler(gate, state))
	app.Post("/admin/logout", auth.LogoutHandler(state))
	app.Post("/admin/delete", gate.RequireAdmin(), admin.DeleteEntryHandler(svc, state))
	app.Post("/admin/reset", gate.RequireAdmin(), admin.ResetHandler(svc, state))
	app.Get("/admin/download/:file", gate.RequireAdmin(), admin.DownloadHandler(store))

	api := app.Group("/api")
	api.Get("/waste/totals", dashboard.WasteTotalsHandler(store))
	if svc.Audit != nil {
		api.Get("/audit-logs", gate.RequireAdmin(), audit.ListAuditLogsHandler(svc.Audit))
	}

	return app
}

// DispatchHandler renders whichever page the session last navigated to.
func DispatchHandler(state *navigation.State, pages map[navigation.Page]fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, flash, err := state.Current(c)
		if err != nil {
			return err
		}
		navigation.Attach(c, page, flash)

		h, ok := pages[page]
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "page not found")
		}
		return h(c)
	}
}

// POST /nav/:page
func NavigateHandler(state *navigation.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := navigation.ParsePage(c.Params("page"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err := state.Navigate(c, page); err != nil {
			return err
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		entry := log.WithFields(log.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    time.Since(start).String(),
			"request_id": audit.RequestID(c),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Warn("request")
		} else {
			entry.Debug("request")
		}
		return err
	}
}
