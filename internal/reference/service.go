package reference

import (
	"context"
	"log/slog"

	"github.com/MrJamesThe3rd/unitrack/internal/apperrors"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=reference
type Repository interface {
	ListOptions(ctx context.Context, kind Kind) ([]Option, error)
}

// Cache stores option lists by kind. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, kind Kind) ([]Option, bool, error)
	Set(ctx context.Context, kind Kind, opts []Option) error
	Delete(ctx context.Context, kind Kind) error
}

type Service struct {
	repo  Repository
	cache Cache
}

// NewService builds a Service. A nil cache disables caching.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Options returns the options of kind, reading through the cache.
// Cache failures are logged and never fail the call.
func (s *Service) Options(ctx context.Context, kind Kind) ([]Option, error) {
	if !kind.Valid() {
		return nil, apperrors.NewValidation("kind", "is not a reference kind")
	}

	if s.cache != nil {
		opts, ok, err := s.cache.Get(ctx, kind)
		if err != nil {
			slog.WarnContext(ctx, "reading reference cache", "kind", kind, "error", err)
		} else if ok {
			return opts, nil
		}
	}

	opts, err := s.repo.ListOptions(ctx, kind)
	if err != nil {
		return nil, apperrors.Persistence("listing "+string(kind), err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, kind, opts); err != nil {
			slog.WarnContext(ctx, "writing reference cache", "kind", kind, "error", err)
		}
	}

	return opts, nil
}

// Invalidate drops the cached options of kind.
func (s *Service) Invalidate(ctx context.Context, kind Kind) error {
	if !kind.Valid() {
		return apperrors.NewValidation("kind", "is not a reference kind")
	}

	if s.cache == nil {
		return nil
	}

	if err := s.cache.Delete(ctx, kind); err != nil {
		return apperrors.Persistence("invalidating "+string(kind), err)
	}

	return nil
}
