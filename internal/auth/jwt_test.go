package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret", 365*24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	if _, err := NewTokenService("", time.Hour); err == nil {
		t.Fatal("NewTokenService() should reject an empty secret")
	}
}

func TestIssueParse_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	claims := Claims{"email": "alice@example.com", "name": "Alice"}
	token, err := ts.Issue(claims)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	got, err := ts.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Email() != "alice@example.com" {
		t.Errorf("Parse() email = %q, want %q", got.Email(), "alice@example.com")
	}
	if got["name"] != "Alice" {
		t.Errorf("Parse() name = %v, want Alice", got["name"])
	}
	if _, ok := got["exp"]; !ok {
		t.Error("Parse() claims missing exp")
	}
}

func TestParse_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue(Claims{"email": "bob@example.com"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ts.Parse(tampered); err == nil {
		t.Error("Parse() accepted a tampered token")
	}
}

func TestParse_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("another-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := other.Issue(Claims{"email": "bob@example.com"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := ts.Parse(token); err == nil {
		t.Error("Parse() accepted a token signed with a different secret")
	}
}

func TestParse_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "bob@example.com",
		"iat":   time.Now().Add(-2 * time.Hour).Unix(),
		"exp":   time.Now().Add(-time.Hour).Unix(),
	}).SignedString(ts.secret)
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}

	if _, err := ts.Parse(expired); err == nil {
		t.Error("Parse() accepted an expired token")
	}
}

func TestParse_Garbage(t *testing.T) {
	ts := newTestTokenService(t)
	if _, err := ts.Parse("not-a-token"); err == nil {
		t.Error("Parse() accepted garbage input")
	}
}
