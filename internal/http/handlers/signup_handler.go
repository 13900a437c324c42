package handlers

import (
	"strings"

	"bookmood/internal/apperr"
	"bookmood/internal/log"
	"bookmood/internal/services"
	"bookmood/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SignupHandler struct {
	Auth *services.AuthService
}

// signupForm is echoed back into the form after a failed submit.
type signupForm struct {
	Name  string
	Email string
}

// API creates an account from a JSON body.
func (h *SignupHandler) API(c *fiber.Ctx) error {
	var in services.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Validation("INVALID_BODY", "invalid request body", nil)
	}
	u, err := h.Auth.Signup(c.UserContext(), in)
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			c.Status(fiber.StatusBadRequest)
			log.Security(c, "auth.signup.duplicate", map[string]any{"email": in.Email})
		}
		return err
	}
	c.Status(fiber.StatusCreated)
	log.Audit(c, "auth.signup", map[string]any{"user": u.ID})
	return c.JSON(fiber.Map{
		"message": "user created successfully",
		"user":    u.Author(),
	})
}

func (h *SignupHandler) Form(c *fiber.Ctx) error {
	return render(c, "signup", fiber.Map{"Title": "Sign up", "Form": signupForm{}, "Errors": map[string]string{}, "Success": ""})
}

func (h *SignupHandler) Submit(c *fiber.Ctx) error {
	in := services.SignupInput{
		Name:     strings.TrimSpace(c.FormValue("name")),
		Email:    strings.TrimSpace(c.FormValue("email")),
		Password: c.FormValue("password"),
	}
	form := signupForm{Name: in.Name, Email: in.Email}

	errs := validate.Struct(in)
	if in.Password != c.FormValue("confirmPassword") {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["confirmPassword"] = "passwords do not match"
	}
	if len(errs) > 0 {
		return render(c.Status(fiber.StatusBadRequest), "signup", fiber.Map{"Title": "Sign up", "Form": form, "Errors": errs, "Success": ""})
	}

	u, err := h.Auth.Signup(c.UserContext(), in)
	if err != nil {
		ae, ok := apperr.As(err)
		if !ok || ae.Status() >= fiber.StatusInternalServerError {
			return err
		}
		errs = map[string]string{"general": ae.Message}
		for k, v := range ae.Details {
			errs[k] = v
		}
		c.Status(ae.Status())
		if ae.Kind == apperr.KindConflict {
			log.Security(c, "auth.signup.duplicate", map[string]any{"email": in.Email})
			errs["email"] = ae.Message
		}
		return render(c, "signup", fiber.Map{"Title": "Sign up", "Form": form, "Errors": errs, "Success": ""})
	}
	c.Status(fiber.StatusCreated)
	log.Audit(c, "auth.signup", map[string]any{"user": u.ID})
	return render(c, "signup", fiber.Map{
		"Title":   "Sign up",
		"Form":    signupForm{},
		"Errors":  map[string]string{},
		"Success": "Account created. You can now log in.",
	})
}
