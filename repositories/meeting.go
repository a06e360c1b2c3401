//go:generate go run go.uber.org/mock/mockgen -source=meeting.go -destination=../mocks/mock_meeting_repository.go -package=mocks
package repositories

import (
	"context"
	"log/slog"

	"outmentor/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMeetingRepository interface {
	Save(ctx context.Context, meeting domain.Meeting) error
	// List returns the meetings of a connection ordered by scheduled time.
	List(ctx context.Context, connectionID uuid.UUID) ([]domain.Meeting, error)
}

type MeetingRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMeetingRepository(db *badger.DB, log *slog.Logger) *MeetingRepository {
	return &MeetingRepository{db: db, log: log}
}

// Save stores a meeting under "meeting:{connection}:{scheduled_sortable}:{id}".
// The meeting id breaks ties between meetings scheduled at the same instant.
func (r MeetingRepository) Save(ctx context.Context, meeting domain.Meeting) error {
	key := meetingKey(meeting.ConnectionID, meeting.ScheduledAt, meeting.ID)
	return update(ctx, r.db, func(txn *badger.Txn) error {
		return txn.Set(key, encodeMeeting(meeting))
	})
}

func (r MeetingRepository) List(ctx context.Context, connectionID uuid.UUID) ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		var err error
		meetings, err = scan(txn, meetingPrefix(connectionID), decodeMeeting)
		return err
	})
	return meetings, err
}
