//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
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

type IMessageRepository interface {
	// Append assigns the next sequence number of the connection and persists the message.
	// CreatedAt is raised if needed so that it never decreases along the sequence.
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
	// List returns the messages with Seq > afterSeq in sequence order.
	List(ctx context.Context, connectionID uuid.UUID, afterSeq uint64) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// Append persists a message under "msg:{connection}:{seq_padded}".
// The 19-digit zero padding keeps the lexicographical key order equal to the sequence order.
// The per-connection cursor "seq:{connection}" is read and written in the same transaction,
// so two concurrent appends conflict and one of them is retried with a fresh cursor.
func (m MessageRepository) Append(ctx context.Context, message domain.Message) (domain.Message, error) {
	var stored domain.Message
	err := update(ctx, m.db, func(txn *badger.Txn) error {
		cursor, err := getValue(txn, cursorKey(message.ConnectionID), decodeCursor)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		stored = message
		stored.Seq = cursor.Seq + 1
		if stored.CreatedAt.Before(cursor.LastAt) {
			stored.CreatedAt = cursor.LastAt
		}

		if err = txn.Set(messageKey(stored.ConnectionID, stored.Seq), encodeMessage(stored)); err != nil {
			return err
		}
		return txn.Set(cursorKey(stored.ConnectionID), encodeCursor(seqCursor{Seq: stored.Seq, LastAt: stored.CreatedAt}))
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	return stored, nil
}

// List seeks directly to afterSeq+1 and scans forward.
// When limitMessages is set, at most that many messages are returned; callers page with afterSeq.
func (m MessageRepository) List(ctx context.Context, connectionID uuid.UUID, afterSeq uint64) ([]domain.Message, error) {
	var messages []domain.Message
	err := view(ctx, m.db, func(txn *badger.Txn) error {
		prefix := messagePrefix(connectionID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(messageKey(connectionID, afterSeq+1)); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			b, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			message, err := decodeMessage(b)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, err
}
