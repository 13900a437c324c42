package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"bookmood/internal/apperr"
	"bookmood/internal/domain"
	"bookmood/internal/metrics"
	"bookmood/internal/repos"
	"bookmood/internal/validate"
)

// ReviewStore is the persistence the review handlers need.
type ReviewStore interface {
	Create(ctx context.Context, rv *domain.Review) error
	FindMany(ctx context.Context) ([]domain.Review, error)
	FindUnique(ctx context.Context, id int64) (*domain.Review, error)
	Delete(ctx context.Context, id int64) error
}

type ReviewService struct {
	Reviews ReviewStore
}

func NewReviewService(r ReviewStore) *ReviewService { return &ReviewService{Reviews: r} }

// Rating accepts a JSON number or a numeric string, as HTML forms post strings.
type Rating int

func (r *Rating) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n = json.Number(strings.TrimSpace(s))
	}
	if n == "" {
		*r = 0
		return nil
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return err
	}
	*r = Rating(v)
	return nil
}

type CreateReviewInput struct {
	// User is the client's claimed author id. The owner always comes from the session.
	User      json.RawMessage `json:"user,omitempty" validate:"-"`
	BookTitle string          `json:"book_title" validate:"required,max=200"`
	Rating    Rating          `json:"rating" validate:"required,min=1,max=5"`
	Review    string          `json:"review" validate:"required,max=5000"`
	Mood      string          `json:"mood" validate:"required,mood"`
}

// ClaimsOtherUser reports whether the client-supplied user field names
// someone other than owner.
func (in CreateReviewInput) ClaimsOtherUser(owner *domain.User) bool {
	raw := strings.Trim(strings.TrimSpace(string(in.User)), `"`)
	if raw == "" || raw == "null" {
		return false
	}
	return raw != strconv.FormatInt(owner.ID, 10)
}

func (s *ReviewService) List(ctx context.Context) ([]domain.Review, error) {
	out, err := s.Reviews.FindMany(ctx)
	if err != nil {
		return nil, apperr.Internal("could not load reviews", err)
	}
	return out, nil
}

func (s *ReviewService) Create(ctx context.Context, owner *domain.User, in CreateReviewInput) (*domain.Review, error) {
	if owner == nil {
		return nil, apperr.Auth("unauthorized")
	}
	in.BookTitle = strings.TrimSpace(in.BookTitle)
	in.Review = strings.TrimSpace(in.Review)
	in.Mood = domain.NormalizeMood(in.Mood)
	if details := validate.Struct(in); details != nil {
		return nil, apperr.Validation("MISSING_FIELDS", "missing or invalid required fields", details)
	}

	rv := &domain.Review{
		UserID:    owner.ID,
		BookTitle: in.BookTitle,
		Rating:    int(in.Rating),
		Body:      in.Review,
		Mood:      in.Mood,
	}
	if err := s.Reviews.Create(ctx, rv); err != nil {
		return nil, apperr.Internal("could not create review", err)
	}
	rv.User = owner.Author()
	metrics.ReviewsCreatedTotal.Inc()
	return rv, nil
}

// Delete removes review id when requester owns it.
func (s *ReviewService) Delete(ctx context.Context, requester *domain.User, id int64) error {
	if requester == nil {
		return apperr.Auth("unauthorized")
	}
	rv, err := s.Reviews.FindUnique(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return apperr.NotFound("REVIEW_NOT_FOUND", "review not found")
		}
		return apperr.Internal("could not delete review", err)
	}
	if rv.UserID != requester.ID {
		return apperr.Forbidden("you do not have permission to delete this review")
	}
	if err := s.Reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return apperr.NotFound("REVIEW_NOT_FOUND", "review not found")
		}
		return apperr.Internal("could not delete review", err)
	}
	metrics.ReviewsDeletedTotal.Inc()
	return nil
}
