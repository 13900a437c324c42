package handlers

import (
	"bookmood/internal/apperr"
	"bookmood/internal/log"
	"bookmood/internal/services"
	"bookmood/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// ReviewHandler serves the JSON review API. Every route sits behind
// RequireAPIUser.
type ReviewHandler struct {
	Reviews *services.ReviewService
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	out, err := h.Reviews.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	owner := currentUser(c)
	var in services.CreateReviewInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.Validation("INVALID_BODY", "invalid request body", nil)
	}
	rv, err := h.Reviews.Create(c.UserContext(), owner, in)
	if err != nil {
		return err
	}
	c.Status(fiber.StatusCreated)
	if in.ClaimsOtherUser(owner) {
		log.Security(c, "review.create.user_mismatch", map[string]any{"claimed": string(in.User), "review": rv.ID})
	}
	log.Audit(c, "review.create", map[string]any{"review": rv.ID})
	return c.JSON(rv)
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return apperr.Validation("INVALID_ID", "invalid review id", nil)
	}
	if err := h.Reviews.Delete(c.UserContext(), currentUser(c), id); err != nil {
		if apperr.Is(err, apperr.KindForbidden) {
			c.Status(fiber.StatusForbidden)
			log.Security(c, "review.delete.denied", map[string]any{"review": id})
		}
		return err
	}
	log.Audit(c, "review.delete", map[string]any{"review": id})
	return c.JSON(fiber.Map{"success": true, "message": "review deleted"})
}
