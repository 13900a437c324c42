package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookmood/internal/apperr"
	applog "bookmood/internal/log"
	"bookmood/internal/metrics"
	"bookmood/web"
)

// NewApp wires middleware and routes onto a fresh Fiber app.
func NewApp(d *Deps) *fiber.App {
	engine := html.NewFileSystem(web.Templates(), ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(metrics.Middleware())
	app.Use(Identify(d.Auth))
	app.Use(RouteGuard())
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     csrfCookie,
		CookieSameSite: "Lax",
		CookieSecure:   d.Config.CookieSecure,
		ContextKey:     "csrf",
		// RequireJSON keeps the API from accepting form posts.
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || c.Path() == "/metrics"
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			c.Status(fiber.StatusForbidden)
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return render(c, "notfound", fiber.Map{
				"Message": "Security check failed. Please refresh and try again.",
			})
		},
	}))

	// ---------- Operational ----------
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := d.DB.PingContext(c.UserContext()); err != nil {
			return apperr.Internal("datastore unavailable", err)
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ---------- API ----------
	api := app.Group("/api", RequireJSON())
	api.Post("/auth/signup", d.SignupHandler.API)
	api.Post("/auth/login", d.AuthHandler.APILogin)
	api.Post("/auth/logout", d.AuthHandler.APILogout)
	api.Get("/auth/session", RequireAPIUser(), d.AuthHandler.APISession)
	api.Get("/reviews", RequireAPIUser(), d.ReviewHandler.List)
	api.Post("/reviews", RequireAPIUser(), d.ReviewHandler.Create)
	api.Delete("/reviews/:id", RequireAPIUser(), d.ReviewHandler.Delete)

	// ---------- Pages ----------
	app.Get("/", d.PageHandler.Home)
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", d.AuthHandler.Login)
	app.Get("/signup", d.SignupHandler.Form)
	app.Post("/signup", d.SignupHandler.Submit)
	app.Post("/logout", d.AuthHandler.Logout)

	// RouteGuard has already redirected anonymous visitors of /reviews/*.
	app.Get("/reviews", d.PageHandler.ReviewList)
	app.Get("/reviews/new", d.PageHandler.NewReview)
	app.Post("/reviews/new", d.PageHandler.CreateReview)
	app.Post("/reviews/:id/delete", d.PageHandler.DeleteReview)

	// 404
	app.Use(func(c *fiber.Ctx) error {
		return apperr.NotFound("NOT_FOUND", "Page not found")
	})

	return app
}
