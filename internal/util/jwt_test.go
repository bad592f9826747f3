package util

import (
	"testing"
	"time"
)

func TestShareTokenManager_GenerateAndParse(t *testing.T) {
	manager := NewShareTokenManager("test-secret", time.Hour)

	token, expiresAt, err := manager.Generate("2026-06-10-rome")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}
	if remaining := time.Until(expiresAt); remaining < 55*time.Minute || remaining > time.Hour {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.TripID != "2026-06-10-rome" {
		t.Fatalf("expected trip id to round-trip, got %q", claims.TripID)
	}
	if claims.ID == "" {
		t.Fatal("expected a token id")
	}
}

func TestShareTokenManager_RejectsWrongSecret(t *testing.T) {
	manager := NewShareTokenManager("test-secret", time.Hour)
	other := NewShareTokenManager("other-secret", time.Hour)

	token, _, err := manager.Generate("2026-06-10-rome")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected parse to fail with a different secret")
	}
}

func TestShareTokenManager_RejectsExpiredToken(t *testing.T) {
	manager := NewShareTokenManager("test-secret", -time.Minute)

	token, _, err := manager.Generate("2026-06-10-rome")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if _, err := manager.Parse(token); err == nil {
		t.Fatal("expected parse to fail for an expired token")
	}
}

func TestShareTokenManager_RejectsGarbage(t *testing.T) {
	manager := NewShareTokenManager("test-secret", time.Hour)
	if _, err := manager.Parse("not-a-token"); err == nil {
		t.Fatal("expected parse to fail for malformed input")
	}
}
