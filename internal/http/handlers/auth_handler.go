package handlers

import (
	"time"

	"bookmood/internal/apperr"
	"bookmood/internal/log"
	"bookmood/internal/services"
	"bookmood/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Auth         *services.AuthService
	SecureCookie bool
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{
		"Title":       "Log in",
		"Err":         "",
		"Email":       "",
		"CallbackURL": validate.LocalPath(c.Query("callbackURL"), "/reviews"),
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	pass := c.FormValue("password")
	callback := validate.LocalPath(c.FormValue("callbackURL"), "/reviews")

	fail := func(reason string) error {
		c.Status(fiber.StatusUnauthorized)
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
		return render(c, "login", fiber.Map{
			"Title":       "Log in",
			"Err":         "Invalid email or password",
			"Email":       email,
			"CallbackURL": callback,
		})
	}
	if _, ok := validate.Email(email); !ok {
		return fail("bad_format")
	}
	if pass == "" {
		return fail("empty_password")
	}

	sess, err := h.Auth.Login(c.UserContext(), email, pass)
	if err != nil {
		if apperr.Is(err, apperr.KindAuth) {
			return fail("bad_credentials")
		}
		return err
	}
	h.rotate(c)
	setSessionCookie(c, sess.ID, sess.ExpiresAt, h.SecureCookie)
	c.Locals("user", sess.User)
	c.Status(fiber.StatusFound)
	log.Audit(c, "auth.login.success", map[string]any{"email": sess.User.Email})
	return c.Redirect(callback)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Status(fiber.StatusFound)
	h.endSession(c)
	return c.Redirect("/")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) APILogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("INVALID_BODY", "invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperr.Validation("MISSING_FIELDS", "email and password are required", nil)
	}
	sess, err := h.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if apperr.Is(err, apperr.KindAuth) {
			c.Status(fiber.StatusUnauthorized)
			log.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_credentials"})
		}
		return err
	}
	h.rotate(c)
	setSessionCookie(c, sess.ID, sess.ExpiresAt, h.SecureCookie)
	c.Locals("user", sess.User)
	log.Audit(c, "auth.login.success", map[string]any{"email": sess.User.Email, "api": true})
	return c.JSON(fiber.Map{
		"user":       sess.User.Author(),
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *AuthHandler) APILogout(c *fiber.Ctx) error {
	h.endSession(c)
	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) APISession(c *fiber.Ctx) error {
	u := currentUser(c)
	exp, err := h.Auth.SessionExpiry(c.UserContext(), currentSID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": u.Author(), "expires_at": exp.Format(time.RFC3339)})
}

// rotate drops any session the client arrived with so a login always gets a
// fresh id.
func (h *AuthHandler) rotate(c *fiber.Ctx) {
	if old := c.Cookies(sessionCookie); old != "" {
		_ = h.Auth.Logout(c.UserContext(), old)
	}
}

func (h *AuthHandler) endSession(c *fiber.Ctx) {
	sid := currentSID(c)
	if sid == "" {
		sid = c.Cookies(sessionCookie)
	}
	if sid != "" {
		if err := h.Auth.Logout(c.UserContext(), sid); err != nil {
			log.Error(c, "auth.logout.error", err, nil)
		}
	}
	clearSessionCookie(c, h.SecureCookie)
	log.Audit(c, "auth.logout", nil)
}
