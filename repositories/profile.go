//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=../mocks/mock_profile_repository.go -package=mocks
package repositories

import (
	"context"
	"log/slog"

	"outmentor/domain"
	"outmentor/errors"

	"github.com/dgraph-io/badger/v4"
)

type IProfileRepository interface {
	Save(ctx context.Context, profile domain.Profile) error
	Get(ctx context.Context, id string) (domain.Profile, error)
	// GetMany returns the profiles found among ids, keyed by id. Missing ids are skipped.
	GetMany(ctx context.Context, ids []string) (map[string]domain.Profile, error)
	All(ctx context.Context) ([]domain.Profile, error)
}

type ProfileRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewProfileRepository(db *badger.DB, log *slog.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, log: log}
}

// Save upserts a profile under "profile:{id}".
func (r ProfileRepository) Save(ctx context.Context, profile domain.Profile) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		return txn.Set(profileKey(profile.ID), encodeProfile(profile))
	})
}

func (r ProfileRepository) Get(ctx context.Context, id string) (domain.Profile, error) {
	var profile domain.Profile
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		var err error
		profile, err = getValue(txn, profileKey(id), decodeProfile)
		return err
	})
	return profile, err
}

func (r ProfileRepository) GetMany(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	res := make(map[string]domain.Profile, len(ids))
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		for _, id := range ids {
			profile, err := getValue(txn, profileKey(id), decodeProfile)
			if errors.Is(err, badger.ErrKeyNotFound) {
				r.log.Debug("Profile referenced but missing", "id", id)
				continue
			}
			if err != nil {
				return err
			}
			res[id] = profile
		}
		return nil
	})
	return res, err
}

func (r ProfileRepository) All(ctx context.Context) ([]domain.Profile, error) {
	var profiles []domain.Profile
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		var err error
		profiles, err = scan(txn, []byte("profile:"), decodeProfile)
		return err
	})
	return profiles, err
}
