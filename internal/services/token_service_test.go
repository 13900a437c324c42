package services_test

import (
	"testing"
	"time"

	"bookmood/internal/domain"
	"bookmood/internal/services"
)

func TestTokenService_RoundTripAndTamper(t *testing.T) {
	ts := &services.TokenService{Secret: []byte("k1"), Issuer: "bookmood"}
	u := &domain.User{ID: 7, Name: "Ana", Email: "ana@x.com"}

	raw, err := ts.Sign(u, "sid-1", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	c, err := ts.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if id, err := c.UserID(); err != nil || id != 7 || c.SessionID != "sid-1" {
		t.Fatalf("claims mismatch: id=%d sid=%s err=%v", id, c.SessionID, err)
	}

	other := &services.TokenService{Secret: []byte("k2"), Issuer: "bookmood"}
	if _, err := other.Parse(raw); err == nil {
		t.Fatal("token signed with another key must not parse")
	}

	expired, err := ts.Sign(u, "sid-1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ts.Parse(expired); err == nil {
		t.Fatal("expired token must not parse")
	}
}
