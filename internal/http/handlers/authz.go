package handlers

import (
	"net/url"
	"strings"
	"time"

	"bookmood/internal/apperr"
	"bookmood/internal/domain"
	applog "bookmood/internal/log"
	"bookmood/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	sessionCookie = "sid"
	csrfCookie    = "csrf_"
)

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

func currentSID(c *fiber.Ctx) string {
	sid, _ := c.Locals("sid").(string)
	return sid
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Identify attaches the signed-in user, if any, to the request. A valid
// bearer token wins over the sid cookie.
func Identify(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if raw := bearerToken(c); raw != "" {
			sid, u, err := auth.BearerSession(ctx, raw)
			if err == nil {
				c.Locals("user", u)
				c.Locals("sid", sid)
				return c.Next()
			}
			if !apperr.Is(err, apperr.KindAuth) {
				return err
			}
			// A stale token does not shadow a valid cookie.
			applog.Security(c, "auth.token.invalid", nil)
		}
		if sid := c.Cookies(sessionCookie); sid != "" {
			u, err := auth.CurrentUser(ctx, sid)
			switch {
			case err == nil:
				c.Locals("user", u)
				c.Locals("sid", sid)
			case !apperr.Is(err, apperr.KindAuth):
				return err
			}
		}
		return c.Next()
	}
}

// RequireAPIUser rejects anonymous API calls with 401.
func RequireAPIUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			c.Status(fiber.StatusUnauthorized)
			applog.Security(c, "access.denied.anonymous", nil)
			return apperr.Auth("unauthorized")
		}
		return c.Next()
	}
}

// RequireJSON rejects cookie-authenticated API writes that are not JSON.
// Browsers can send form posts without a preflight, and the API sits
// outside the csrf middleware.
func RequireJSON() fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
		default:
			return c.Next()
		}
		if bearerToken(c) != "" || c.Is("json") {
			return c.Next()
		}
		c.Status(fiber.StatusUnsupportedMediaType)
		applog.Security(c, "api.content_type.rejected", map[string]any{"content_type": c.Get(fiber.HeaderContentType)})
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "request body must be application/json")
	}
}

// RouteGuard keeps signed-in users off the auth pages and sends anonymous
// visitors of /reviews to the login page with a callback.
func RouteGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := c.Path()
		u := currentUser(c)
		switch {
		case u != nil && (p == "/login" || p == "/signup"):
			return c.Redirect("/reviews")
		case u == nil && (p == "/reviews" || strings.HasPrefix(p, "/reviews/")):
			return c.Redirect("/login?callbackURL=" + url.QueryEscape(c.OriginalURL()))
		}
		return c.Next()
	}
}

func setSessionCookie(c *fiber.Ctx, sid string, exp time.Time, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  exp,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
	})
}

func clearSessionCookie(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-1 * time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   secure,
	})
}
