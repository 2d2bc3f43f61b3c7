package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    const secret = "test-secret"
    at, err := NewAccessToken(secret, 42, 15)
    if err != nil {
        t.Fatalf("NewAccessToken: %v", err)
    }
    if time.Until(at.Exp) <= 0 {
        t.Error("access token already expired at issue time")
    }

    tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        t.Fatalf("issued token failed to parse: %v", err)
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        t.Fatal("claims are not MapClaims")
    }
    if sub, ok := claims["sub"].(string); !ok || sub != "42" {
        t.Errorf("sub claim = %v, want \"42\"", claims["sub"])
    }
}

func TestRefreshTokenHashing(t *testing.T) {
    rt, err := NewRefreshToken(30)
    if err != nil {
        t.Fatalf("NewRefreshToken: %v", err)
    }
    if len(rt.Raw) != 96 {
        t.Errorf("raw refresh token length = %d, want 96 hex chars", len(rt.Raw))
    }
    h1 := HashRefreshRaw(rt.Raw)
    h2 := HashRefreshRaw(rt.Raw)
    if h1 != h2 {
        t.Error("hashing the same token twice gave different digests")
    }
    other, _ := NewRefreshToken(30)
    if HashRefreshRaw(other.Raw) == h1 {
        t.Error("two distinct tokens hashed to the same digest")
    }
}
