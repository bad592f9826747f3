package service

import (
	"context"
	"errors"
	"time"

	"github.com/tripfolio/api/internal/domain"
	"github.com/tripfolio/api/internal/repository/ports"
	"github.com/tripfolio/api/internal/util"
)

var ErrShareTokenInvalid = errors.New("share token is invalid or expired")

// ShareService issues and resolves read-only share links. A link embeds the
// trip id in a signed, expiring token; no account is involved.
type ShareService struct {
	trips  ports.TripRepository
	tokens *util.ShareTokenManager
}

func NewShareService(trips ports.TripRepository, tokens *util.ShareTokenManager) *ShareService {
	return &ShareService{trips: trips, tokens: tokens}
}

func (s *ShareService) CreateShareLink(ctx context.Context, tripID string) (string, time.Time, error) {
	if _, err := s.trips.GetByID(ctx, tripID); err != nil {
		if isNotFound(err) {
			return "", time.Time{}, ErrTripNotFound
		}
		return "", time.Time{}, err
	}
	return s.tokens.Generate(tripID)
}

func (s *ShareService) ResolveShareToken(ctx context.Context, token string) (*domain.Trip, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrShareTokenInvalid
	}
	trip, err := s.trips.GetByID(ctx, claims.TripID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return trip, nil
}
