package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"importledger/backend/internal/cache"
	"importledger/backend/internal/domain"
	"importledger/backend/internal/store"
)

var ErrCompanyRequired = errors.New("company scope required")

const defaultIdempotencyTTL = 24 * time.Hour

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo           store.Repository
	idempotency    cache.IdempotencyStore
	log            *zap.Logger
	idempotencyTTL time.Duration
	now            func() time.Time
}

func New(repo store.Repository, idempotency cache.IdempotencyStore, log *zap.Logger, idempotencyTTL time.Duration) *Service {
	if idempotency == nil {
		idempotency = cache.NewMemoryIdempotencyStore()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyTTL
	}

	return &Service{
		repo:           repo,
		idempotency:    idempotency,
		log:            log,
		idempotencyTTL: idempotencyTTL,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func companyFromContext(ctx context.Context) (string, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || strings.TrimSpace(actor.CompanyID) == "" {
		return "", ErrCompanyRequired
	}
	return actor.CompanyID, nil
}

// parseWindow turns inclusive YYYY-MM-DD bounds into a half-open time range.
// The returned label dates are the inputs as given; end is the day after to.
func parseWindow(from string, to string) (start time.Time, end time.Time, toDay time.Time, err error) {
	if strings.TrimSpace(from) != "" {
		start, err = time.Parse(time.DateOnly, strings.TrimSpace(from))
		if err != nil {
			return time.Time{}, time.Time{}, time.Time{}, fmt.Errorf("%w: from must be YYYY-MM-DD", store.ErrInvalidInput)
		}
	}
	if strings.TrimSpace(to) != "" {
		toDay, err = time.Parse(time.DateOnly, strings.TrimSpace(to))
		if err != nil {
			return time.Time{}, time.Time{}, time.Time{}, fmt.Errorf("%w: to must be YYYY-MM-DD", store.ErrInvalidInput)
		}
		end = toDay.AddDate(0, 0, 1)
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return time.Time{}, time.Time{}, time.Time{}, fmt.Errorf("%w: from must not be after to", store.ErrInvalidInput)
	}
	return start, end, toDay, nil
}
