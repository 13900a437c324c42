package handlers

import (
	"strconv"
	"strings"

	"bookmood/internal/apperr"
	"bookmood/internal/domain"
	"bookmood/internal/log"
	"bookmood/internal/services"
	"bookmood/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type PageHandler struct {
	Reviews *services.ReviewService
}

// reviewForm is echoed back into the add-review form after a failed submit.
type reviewForm struct {
	BookTitle string
	Rating    string
	Review    string
	Mood      string
}

func (h *PageHandler) Home(c *fiber.Ctx) error {
	return render(c, "home", nil)
}

func (h *PageHandler) ReviewList(c *fiber.Ctx) error {
	list, err := h.Reviews.List(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, "reviews", fiber.Map{"Title": "Reviews", "Reviews": list})
}

func (h *PageHandler) NewReview(c *fiber.Ctx) error {
	return render(c, "add_review", fiber.Map{
		"Title":  "New review",
		"Moods":  domain.Moods,
		"Form":   reviewForm{},
		"Errors": map[string]string{},
	})
}

func (h *PageHandler) CreateReview(c *fiber.Ctx) error {
	rawRating := strings.TrimSpace(c.FormValue("rating"))
	rating, convErr := strconv.Atoi(rawRating)
	if convErr != nil {
		rating = 0
	}
	in := services.CreateReviewInput{
		BookTitle: c.FormValue("book_title"),
		Rating:    services.Rating(rating),
		Review:    c.FormValue("review"),
		Mood:      c.FormValue("mood"),
	}
	rv, err := h.Reviews.Create(c.UserContext(), currentUser(c), in)
	if err != nil {
		ae, ok := apperr.As(err)
		if !ok || ae.Kind != apperr.KindValidation {
			return err
		}
		errs := map[string]string{"general": ae.Message}
		for k, v := range ae.Details {
			errs[k] = v
		}
		// Typed but unusable ratings report the allowed range.
		if _, bad := errs["rating"]; bad && rawRating != "" {
			errs["rating"] = "must be between 1 and 5"
		}
		return render(c.Status(fiber.StatusBadRequest), "add_review", fiber.Map{
			"Title": "New review",
			"Moods": domain.Moods,
			"Form": reviewForm{
				BookTitle: in.BookTitle,
				Rating:    rawRating,
				Review:    in.Review,
				Mood:      domain.NormalizeMood(in.Mood),
			},
			"Errors": errs,
		})
	}
	c.Status(fiber.StatusFound)
	log.Audit(c, "review.create", map[string]any{"review": rv.ID})
	return c.Redirect("/reviews")
}

func (h *PageHandler) DeleteReview(c *fiber.Ctx) error {
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
	c.Status(fiber.StatusFound)
	log.Audit(c, "review.delete", map[string]any{"review": id})
	return c.Redirect("/reviews")
}
