package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"bookmood/internal/config"
	"bookmood/internal/http/handlers"
	"bookmood/internal/repos"
)

func newTestApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	cfg := config.Config{
		DBDriver:   "sqlite",
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
	return handlers.NewApp(handlers.NewDeps(db, cfg)), db
}

func do(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	return resp
}

// apiCall sends body as JSON with an optional bearer token.
func apiCall(t *testing.T, app *fiber.App, method, path string, body any, token string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(t, app, req)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	b, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode %q: %v", string(b), err)
	}
	return out
}

type apiUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type apiReview struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"userId"`
	BookTitle string  `json:"book_title"`
	Rating    int     `json:"rating"`
	Review    string  `json:"review"`
	Mood      string  `json:"mood"`
	CreatedAt string  `json:"created_at"`
	User      apiUser `json:"user"`
}

type apiError struct {
	Error   string            `json:"error"`
	Success *bool             `json:"success"`
	Details map[string]string `json:"details"`
}

func signupAPI(t *testing.T, app *fiber.App, name, email, pass string) apiUser {
	t.Helper()
	resp := apiCall(t, app, "POST", "/api/auth/signup", map[string]string{"name": name, "email": email, "password": pass}, "")
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("signup %s: want 201, got %d body=%s", email, resp.StatusCode, b)
	}
	out := decode[struct {
		Message string  `json:"message"`
		User    apiUser `json:"user"`
	}](t, resp)
	return out.User
}

// loginAPI returns the bearer token and the sid cookie.
func loginAPI(t *testing.T, app *fiber.App, email, pass string) (string, string) {
	t.Helper()
	resp := apiCall(t, app, "POST", "/api/auth/login", map[string]string{"email": email, "password": pass}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: want 200, got %d", email, resp.StatusCode)
	}
	sid := cookieValue(resp, "sid")
	out := decode[struct {
		Token string `json:"token"`
	}](t, resp)
	if out.Token == "" || sid == "" {
		t.Fatalf("login %s: token=%q sid=%q", email, out.Token, sid)
	}
	return out.Token, sid
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func csrfToken(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp := do(t, app, httptest.NewRequest("GET", "/login", nil))
	tok := cookieValue(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

// postForm submits a page form with the csrf token and an optional session.
func postForm(t *testing.T, app *fiber.App, path, csrfTok, sid string, form url.Values) *http.Response {
	t.Helper()
	if csrfTok != "" {
		form.Set("csrf", csrfTok)
	}
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if csrfTok != "" {
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	return do(t, app, req)
}

func getPage(t *testing.T, app *fiber.App, path, sid string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp := do(t, app, req)
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID int64          `json:"user_id"`
	Status int            `json:"status"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

// captureLogs swaps the standard logger output while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}
