//go:generate go run go.uber.org/mock/mockgen -source=meeting.go -destination=../mocks/mock_meeting_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outmentor/contract"
	"outmentor/domain"
	"outmentor/errors"
	"outmentor/repositories"

	"github.com/google/uuid"
)

type IMeetingService interface {
	Schedule(ctx context.Context, cmd domain.ScheduleMeetingCommand) (domain.Meeting, error)
	List(ctx context.Context, connectionID uuid.UUID, requesterID string) ([]domain.Meeting, error)
}

type MeetingService struct {
	log         *slog.Logger
	connections repositories.IConnectionRepository
	meetings    repositories.IMeetingRepository
	links       contract.MeetingLinkProvider
	now         func() time.Time
}

func NewMeetingService(log *slog.Logger, connections repositories.IConnectionRepository,
	meetings repositories.IMeetingRepository, links contract.MeetingLinkProvider) *MeetingService {
	return &MeetingService{
		log:         log,
		connections: connections,
		meetings:    meetings,
		links:       links,
		now:         time.Now,
	}
}

func (s *MeetingService) participant(ctx context.Context, connectionID uuid.UUID, profileID string) error {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return err
	}
	return conn.CheckParticipant(profileID)
}

func (s *MeetingService) Schedule(ctx context.Context, cmd domain.ScheduleMeetingCommand) (domain.Meeting, error) {
	if err := s.participant(ctx, cmd.ConnectionID, cmd.RequesterID); err != nil {
		return domain.Meeting{}, err
	}

	now := s.now().UTC()
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		title = domain.DefaultMeetingTitle
	}
	at := cmd.At.UTC()
	if cmd.At.IsZero() {
		at = now
	}
	if err := domain.CheckMeetingTime(at, now); err != nil {
		return domain.Meeting{}, err
	}

	link, err := s.links.NewLink(ctx, cmd.ConnectionID, at)
	if err != nil {
		return domain.Meeting{}, fmt.Errorf("%w: meeting link: %v", errors.ErrUnavailable, err)
	}

	meeting := domain.Meeting{
		ID:           uuid.New(),
		ConnectionID: cmd.ConnectionID,
		Title:        title,
		ScheduledAt:  at,
		JoinURL:      link,
		CreatedBy:    cmd.RequesterID,
		CreatedAt:    now,
	}
	if err := s.meetings.Save(ctx, meeting); err != nil {
		return domain.Meeting{}, err
	}
	s.log.Debug("Meeting scheduled", "connection", cmd.ConnectionID, "meeting", meeting.ID, "at", at)
	return meeting, nil
}

func (s *MeetingService) List(ctx context.Context, connectionID uuid.UUID, requesterID string) ([]domain.Meeting, error) {
	if err := s.participant(ctx, connectionID, requesterID); err != nil {
		return nil, err
	}
	return s.meetings.List(ctx, connectionID)
}
