package repositories

import (
	"context"
	"fmt"
	"time"

	"outmentor/errors"

	"github.com/dgraph-io/badger/v4"
)

const (
	maxConflictRetries = 10
	conflictBackoff    = 5 * time.Millisecond
)

// update runs fn in a read-write transaction and retries it when Badger
// reports a conflict with a concurrent transaction.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		err := db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return translate(err)
		}
		if attempt == maxConflictRetries {
			return fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(conflictBackoff * time.Duration(attempt+1)):
		}
	}
}

func view(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return translate(db.View(fn))
}

// translate maps driver failures onto the error taxonomy. Taxonomy errors pass through.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return fmt.Errorf("%w: %v", errors.ErrNotFound, err)
	case errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("%w: %v", errors.ErrUnavailable, err)
	default:
		return err
	}
}

// getValue reads and decodes the value stored at key.
func getValue[T any](txn *badger.Txn, key []byte, decode func([]byte) (T, error)) (T, error) {
	var zero T
	item, err := txn.Get(key)
	if err != nil {
		return zero, err
	}
	b, err := item.ValueCopy(nil)
	if err != nil {
		return zero, err
	}
	return decode(b)
}

// scan decodes every value under prefix in key order.
func scan[T any](txn *badger.Txn, prefix []byte, decode func([]byte) (T, error)) ([]T, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var res []T
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		b, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		v, err := decode(b)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

// keys are length-prefixed where an opaque profile id is followed by more segments.
func profileKey(id string) []byte {
	return []byte("profile:" + id)
}

func connectionKey(id fmt.Stringer) []byte {
	return []byte("conn:" + id.String())
}

func pairKey(mentorID, teamID string) []byte {
	return []byte(fmt.Sprintf("pair:%d:%s:%s", len(mentorID), mentorID, teamID))
}

func memberPrefix(profileID string) []byte {
	return []byte(fmt.Sprintf("member:%d:%s:", len(profileID), profileID))
}

func messagePrefix(connectionID fmt.Stringer) []byte {
	return []byte(fmt.Sprintf("msg:%s:", connectionID))
}

func messageKey(connectionID fmt.Stringer, seq uint64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d", connectionID, seq))
}

func cursorKey(connectionID fmt.Stringer) []byte {
	return []byte("seq:" + connectionID.String())
}

func meetingPrefix(connectionID fmt.Stringer) []byte {
	return []byte(fmt.Sprintf("meeting:%s:", connectionID))
}

// meetingKey sorts by scheduled time: the sign bit of the seconds is flipped so
// pre-1970 instants order before later ones, then nanos, then the meeting id.
func meetingKey(connectionID fmt.Stringer, at time.Time, id fmt.Stringer) []byte {
	return []byte(fmt.Sprintf("meeting:%s:%020d%09d:%s",
		connectionID, uint64(at.Unix())^(1<<63), at.Nanosecond(), id))
}
