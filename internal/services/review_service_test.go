package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"bookmood/internal/apperr"
	"bookmood/internal/domain"
	"bookmood/internal/repos"
	"bookmood/internal/services"
)

func seedUsers(t *testing.T, auth *services.AuthService) (*domain.User, *domain.User) {
	t.Helper()
	ctx := context.Background()
	ana, err := auth.Signup(ctx, services.SignupInput{Name: "Ana", Email: "ana@x.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	luis, err := auth.Signup(ctx, services.SignupInput{Name: "Luis", Email: "luis@x.com", Password: "secret1"})
	if err != nil {
		t.Fatal(err)
	}
	return ana, luis
}

func TestReviewService_CreateListDelete(t *testing.T) {
	db := memdb(t)
	ana, luis := seedUsers(t, newAuth(db))
	svc := services.NewReviewService(repos.NewReviewRepo(db))
	ctx := context.Background()

	rv, err := svc.Create(ctx, ana, services.CreateReviewInput{
		BookTitle: "  Dune ", Rating: 5, Review: "Great", Mood: "Emocionado",
	})
	if err != nil {
		t.Fatal(err)
	}
	if rv.BookTitle != "Dune" || rv.Mood != "emocionado" || rv.User.ID != ana.ID || rv.CreatedAt == "" {
		t.Fatalf("unexpected review: %+v", rv)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].User.Name != "Ana" {
		t.Fatalf("list = %+v", list)
	}

	if err := svc.Delete(ctx, luis, rv.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("non-owner delete: want forbidden, got %v", err)
	}
	if err := svc.Delete(ctx, ana, 9999); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing id: want not found, got %v", err)
	}
	if err := svc.Delete(ctx, ana, rv.ID); err != nil {
		t.Fatal(err)
	}
	list, _ = svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("review survived delete: %+v", list)
	}
}

func TestReviewService_Validation(t *testing.T) {
	db := memdb(t)
	ana, _ := seedUsers(t, newAuth(db))
	svc := services.NewReviewService(repos.NewReviewRepo(db))
	ctx := context.Background()

	bad := []services.CreateReviewInput{
		{Rating: 5, Review: "x", Mood: "happy"},
		{BookTitle: "Dune", Rating: 0, Review: "x", Mood: "happy"},
		{BookTitle: "Dune", Rating: 6, Review: "x", Mood: "happy"},
		{BookTitle: "Dune", Rating: 3, Review: "   ", Mood: "happy"},
		{BookTitle: "Dune", Rating: 3, Review: "x", Mood: "bored"},
	}
	for i, in := range bad {
		if _, err := svc.Create(ctx, ana, in); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("case %d: want validation error, got %v", i, err)
		}
	}
	if _, err := svc.Create(ctx, nil, services.CreateReviewInput{BookTitle: "Dune", Rating: 3, Review: "x", Mood: "happy"}); !apperr.Is(err, apperr.KindAuth) {
		t.Fatalf("nil owner: want auth error, got %v", err)
	}
	n, _ := repos.NewReviewRepo(db).Count(ctx)
	if n != 0 {
		t.Fatalf("rejected input persisted %d rows", n)
	}
}

func TestCreateReviewInput_DecodesLooseJSON(t *testing.T) {
	var in services.CreateReviewInput
	body := `{"user":"42","book_title":"Dune","rating":"4","review":"ok","mood":"sad"}`
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		t.Fatal(err)
	}
	if in.Rating != 4 {
		t.Fatalf("rating = %d", in.Rating)
	}
	if !in.ClaimsOtherUser(&domain.User{ID: 1}) {
		t.Fatal("user 42 claimed by session user 1 should be flagged")
	}
	if in.ClaimsOtherUser(&domain.User{ID: 42}) {
		t.Fatal("matching user should not be flagged")
	}
}
