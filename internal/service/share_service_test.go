package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tripfolio/api/internal/domain"
	"github.com/tripfolio/api/internal/util"
)

func TestShareService_RoundTrip(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryTripRepo()
	repo.seed(&domain.Trip{ID: "2026-06-10-rome", Destination: "Rome"})
	svc := NewShareService(repo, util.NewShareTokenManager("test-secret", time.Hour))

	token, expiresAt, err := svc.CreateShareLink(ctx, "2026-06-10-rome")
	if err != nil {
		t.Fatalf("CreateShareLink returned error: %v", err)
	}
	if token == "" || expiresAt.Before(time.Now()) {
		t.Fatalf("unexpected token %q expiring %v", token, expiresAt)
	}

	trip, err := svc.ResolveShareToken(ctx, token)
	if err != nil {
		t.Fatalf("ResolveShareToken returned error: %v", err)
	}
	if trip.ID != "2026-06-10-rome" {
		t.Fatalf("expected shared trip, got %q", trip.ID)
	}
}

func TestShareService_UnknownTrip(t *testing.T) {
	svc := NewShareService(newMemoryTripRepo(), util.NewShareTokenManager("test-secret", time.Hour))

	_, _, err := svc.CreateShareLink(context.Background(), "missing")
	if !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}

func TestShareService_InvalidToken(t *testing.T) {
	svc := NewShareService(newMemoryTripRepo(), util.NewShareTokenManager("test-secret", time.Hour))

	_, err := svc.ResolveShareToken(context.Background(), "not-a-token")
	if !errors.Is(err, ErrShareTokenInvalid) {
		t.Fatalf("expected ErrShareTokenInvalid, got %v", err)
	}
}

func TestShareService_TokenForDeletedTrip(t *testing.T) {
	ctx := context.Background()

	repo := newMemoryTripRepo()
	repo.seed(&domain.Trip{ID: "2026-06-10-rome"})
	svc := NewShareService(repo, util.NewShareTokenManager("test-secret", time.Hour))

	token, _, err := svc.CreateShareLink(ctx, "2026-06-10-rome")
	if err != nil {
		t.Fatalf("CreateShareLink returned error: %v", err)
	}

	if err := repo.Delete(ctx, "2026-06-10-rome"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := svc.ResolveShareToken(ctx, token); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound for deleted trip, got %v", err)
	}
}
