//go:generate go run go.uber.org/mock/mockgen -source=connection.go -destination=../mocks/mock_connection_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"outmentor/domain"
	"outmentor/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IConnectionRepository interface {
	// Initiate stores candidate unless the pair already has a pending or accepted record,
	// in which case that record is returned and created is false.
	Initiate(ctx context.Context, candidate domain.Connection) (conn domain.Connection, created bool, err error)
	Get(ctx context.Context, id uuid.UUID) (domain.Connection, error)
	// Update persists conn only if the stored status still equals expected.
	Update(ctx context.Context, conn domain.Connection, expected domain.ConnectionStatus) error
	// ListByMember returns the connections of profileID with the given status, or all of them when status is empty.
	ListByMember(ctx context.Context, profileID string, status domain.ConnectionStatus) ([]domain.Connection, error)
}

type ConnectionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConnectionRepository(db *badger.DB, log *slog.Logger) *ConnectionRepository {
	return &ConnectionRepository{db: db, log: log}
}

// Initiate is a get-or-create on the pair key "pair:{mentor}:{team}".
// The pair key always points to the latest record of the pair, so a declined
// record is simply superseded. Member keys index the record for both sides.
func (r ConnectionRepository) Initiate(ctx context.Context, candidate domain.Connection) (domain.Connection, bool, error) {
	var (
		res     domain.Connection
		created bool
	)
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		created = false
		pair := pairKey(candidate.MentorID, candidate.TeamID)

		current, err := r.currentForPair(txn, pair)
		switch {
		case err == nil && current.Status.Open():
			res = current
			return nil
		case err != nil && !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		id := []byte(candidate.ID.String())
		if err = txn.Set(connectionKey(candidate.ID), encodeConnection(candidate)); err != nil {
			return err
		}
		if err = txn.Set(pair, id); err != nil {
			return err
		}
		for _, member := range []string{candidate.MentorID, candidate.TeamID} {
			if err = txn.Set(append(memberPrefix(member), id...), nil); err != nil {
				return err
			}
		}
		res, created = candidate, true
		return nil
	})
	return res, created, err
}

func (r ConnectionRepository) currentForPair(txn *badger.Txn, pair []byte) (domain.Connection, error) {
	item, err := txn.Get(pair)
	if err != nil {
		return domain.Connection{}, err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Connection{}, err
	}
	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return domain.Connection{}, err
	}
	return getValue(txn, connectionKey(id), decodeConnection)
}

func (r ConnectionRepository) Get(ctx context.Context, id uuid.UUID) (domain.Connection, error) {
	var conn domain.Connection
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		var err error
		conn, err = r.load(txn, id)
		return err
	})
	return conn, err
}

func (r ConnectionRepository) Update(ctx context.Context, conn domain.Connection, expected domain.ConnectionStatus) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		stored, err := getValue(txn, connectionKey(conn.ID), decodeConnection)
		if err != nil {
			return err
		}
		if stored.Status != expected {
			return fmt.Errorf("%w: connection is %s", errors.ErrInvalidState, stored.Status)
		}
		conn.LastMessageAt = stored.LastMessageAt
		return txn.Set(connectionKey(conn.ID), encodeConnection(conn))
	})
}

// ListByMember walks the "member:{profile}:" index with a key-only iterator.
func (r ConnectionRepository) ListByMember(ctx context.Context, profileID string, status domain.ConnectionStatus) ([]domain.Connection, error) {
	var res []domain.Connection
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		prefix := memberPrefix(profileID)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var ids []uuid.UUID
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := uuid.ParseBytes(it.Item().Key()[len(prefix):])
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		for _, id := range ids {
			conn, err := r.load(txn, id)
			if err != nil {
				return err
			}
			if status == "" || conn.Status == status {
				res = append(res, conn)
			}
		}
		return nil
	})
	return res, err
}

// load reads a connection and merges the last message time kept by the message log.
func (r ConnectionRepository) load(txn *badger.Txn, id uuid.UUID) (domain.Connection, error) {
	conn, err := getValue(txn, connectionKey(id), decodeConnection)
	if err != nil {
		return conn, err
	}
	cursor, err := getValue(txn, cursorKey(id), decodeCursor)
	switch {
	case err == nil:
		conn.LastMessageAt = cursor.LastAt
	case !errors.Is(err, badger.ErrKeyNotFound):
		return conn, err
	}
	return conn, nil
}
