//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"outmentor/auth"
	"outmentor/domain"
	"outmentor/domain/search"
	"outmentor/errors"
	"outmentor/repositories"
	index "outmentor/search"

	"github.com/samber/lo"
)

type IDirectoryService interface {
	// Register creates or updates the caller's own profile.
	Register(ctx context.Context, callerID string, profile domain.Profile) (domain.Profile, error)
	Get(ctx context.Context, profileID string) (domain.Profile, error)
	// Search returns profiles of the kind opposite to the requester's, never the requester itself.
	Search(ctx context.Context, requesterID string, filter search.Filter) ([]domain.Profile, error)
}

type DirectoryService struct {
	log      *slog.Logger
	profiles repositories.IProfileRepository
	index    index.IProfileIndex
	maxLimit int
	now      func() time.Time
}

func NewDirectoryService(log *slog.Logger, profiles repositories.IProfileRepository,
	index index.IProfileIndex, maxLimit int) *DirectoryService {
	return &DirectoryService{
		log:      log,
		profiles: profiles,
		index:    index,
		maxLimit: maxLimit,
		now:      time.Now,
	}
}

func (s *DirectoryService) Register(ctx context.Context, callerID string, profile domain.Profile) (domain.Profile, error) {
	if callerID == "" {
		return domain.Profile{}, fmt.Errorf("%w: missing caller", errors.ErrInvalidArgument)
	}
	profile = profile.Normalize()
	profile.ID = callerID
	now := s.now().UTC()

	existing, err := s.profiles.Get(ctx, callerID)
	switch {
	case err == nil:
		if existing.Kind != profile.Kind {
			return domain.Profile{}, fmt.Errorf("%w: kind is %s and cannot change", errors.ErrInvalidArgument, existing.Kind)
		}
		profile.CreatedAt = existing.CreatedAt
	case errors.Is(err, errors.ErrNotFound):
		profile.CreatedAt = now
	default:
		return domain.Profile{}, err
	}
	profile.UpdatedAt = now

	if err := auth.ValidateProfile(profile); err != nil {
		return domain.Profile{}, err
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return domain.Profile{}, err
	}

	// The store is the source of truth; the index is rebuilt from it on start-up
	if err := s.index.Index(profile); err != nil {
		s.log.Error("Unable to index profile", "profile", profile.ID, "error", err)
	}
	return profile, nil
}

func (s *DirectoryService) Get(ctx context.Context, profileID string) (domain.Profile, error) {
	return s.profiles.Get(ctx, profileID)
}

func (s *DirectoryService) Search(ctx context.Context, requesterID string, filter search.Filter) ([]domain.Profile, error) {
	requester, err := s.profiles.Get(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	filter = filter.Normalize(s.maxLimit)
	wanted := requester.Kind.Opposite()

	hits, err := s.index.Candidates(ctx, wanted, filter.State, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: search index: %v", errors.ErrUnavailable, err)
	}
	hits = lo.Filter(hits, func(hit index.Hit, _ int) bool {
		return filter.MatchesName(hit.Name)
	})
	if len(hits) > filter.Limit {
		hits = hits[:filter.Limit]
	}

	found, err := s.profiles.GetMany(ctx, lo.Map(hits, func(hit index.Hit, _ int) string { return hit.ID }))
	if err != nil {
		return nil, err
	}

	// Keep the index order and re-check the rules against the stored profile, the index may lag behind
	return lo.FilterMap(hits, func(hit index.Hit, _ int) (domain.Profile, bool) {
		p, ok := found[hit.ID]
		return p, ok && p.ID != requester.ID && p.Kind == wanted
	}), nil
}
