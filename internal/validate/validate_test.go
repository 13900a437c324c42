package validate_test

import (
	"testing"

	"bookmood/internal/validate"
)

func TestID(t *testing.T) {
	good := map[string]int64{"1": 1, " 42 ": 42, "900719925474099": 900719925474099}
	for in, want := range good {
		got, ok := validate.ID(in)
		if !ok || got != want {
			t.Fatalf("ID(%q) = %d,%v want %d", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "0", "-1", "abc", "1.5", "1e3", "12345678901234567890"} {
		if _, ok := validate.ID(in); ok {
			t.Fatalf("ID(%q) should be rejected", in)
		}
	}
}

func TestLocalPath(t *testing.T) {
	cases := map[string]string{
		"/reviews/new":         "/reviews/new",
		"":                     "/reviews",
		"https://evil.example": "/reviews",
		"//evil.example/x":     "/reviews",
		`/\evil.example`:       "/reviews",
		"reviews":              "/reviews",
		"/reviews?sort=desc":   "/reviews?sort=desc",
	}
	for in, want := range cases {
		if got := validate.LocalPath(in, "/reviews"); got != want {
			t.Fatalf("LocalPath(%q) = %q want %q", in, got, want)
		}
	}
}

func TestEmail(t *testing.T) {
	for _, in := range []string{" ana@x.com ", "josé@example.com"} {
		if _, ok := validate.Email(in); !ok {
			t.Fatalf("Email(%q) should pass", in)
		}
	}
	for _, in := range []string{"", "ana", "ana@", "@x.com", "ana x@y.com"} {
		if _, ok := validate.Email(in); ok {
			t.Fatalf("Email(%q) should fail", in)
		}
	}
}

func TestStruct_FieldMessages(t *testing.T) {
	type form struct {
		Title  string `json:"book_title" validate:"required"`
		Rating int    `json:"rating" validate:"min=1,max=5"`
		Mood   string `json:"mood" validate:"mood"`
		Secret string `json:"-" validate:"required"`
	}
	errs := validate.Struct(form{Rating: 9, Mood: "bored"})
	want := map[string]string{
		"book_title": "book_title is required",
		"rating":     "must be at most 5",
		"mood":       "must be one of happy, sad, excited, tired, angry",
		"Secret":     "Secret is required",
	}
	for k, v := range want {
		if errs[k] != v {
			t.Fatalf("errs[%q] = %q want %q (all: %v)", k, errs[k], v, errs)
		}
	}
	if validate.Struct(form{Title: "Dune", Rating: 3, Mood: "Feliz", Secret: "x"}) != nil {
		t.Fatal("valid struct reported errors")
	}
}
