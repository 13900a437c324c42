package handlers

import "github.com/gofiber/fiber/v2"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	// The csrf middleware stores the token under its ContextKey; fall back to
	// the cookie so hidden fields are never empty.
	tok, _ := c.Locals("csrf").(string)
	if tok == "" {
		tok = c.Cookies(csrfCookie)
	}
	data["CSRFToken"] = tok
	return c.Render(tmpl, data)
}
