//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"time"

	"outmentor/contract"
	"outmentor/domain"
	"outmentor/repositories"

	"github.com/google/uuid"
)

type IChannelService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	// Subscribe delivers the backfill then live messages, gap-free and without duplicates.
	Subscribe(ctx context.Context, connectionID uuid.UUID, subscriberID string) (contract.ISubscription, error)
	// History returns the messages with a sequence number above afterSeq.
	History(ctx context.Context, connectionID uuid.UUID, requesterID string, afterSeq uint64) ([]domain.Message, error)
}

type ChannelService struct {
	log         *slog.Logger
	connections repositories.IConnectionRepository
	messages    repositories.IMessageRepository
	hub         contract.IHub
	maxLength   int
	now         func() time.Time
}

func NewChannelService(log *slog.Logger, connections repositories.IConnectionRepository,
	messages repositories.IMessageRepository, hub contract.IHub, maxLength int) *ChannelService {
	return &ChannelService{
		log:         log,
		connections: connections,
		messages:    messages,
		hub:         hub,
		maxLength:   maxLength,
		now:         time.Now,
	}
}

// participant loads the connection and checks that profileID may use its channel.
func (s *ChannelService) participant(ctx context.Context, connectionID uuid.UUID, profileID string) error {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return err
	}
	return conn.CheckParticipant(profileID)
}

func (s *ChannelService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := s.participant(ctx, cmd.ConnectionID, cmd.SenderID); err != nil {
		return domain.Message{}, err
	}
	content, err := domain.NormalizeContent(cmd.Content, s.maxLength)
	if err != nil {
		return domain.Message{}, err
	}
	return s.hub.Publish(ctx, domain.Message{
		ID:           uuid.New(),
		ConnectionID: cmd.ConnectionID,
		SenderID:     cmd.SenderID,
		Content:      content,
		CreatedAt:    s.now().UTC(),
	})
}

func (s *ChannelService) Subscribe(ctx context.Context, connectionID uuid.UUID, subscriberID string) (contract.ISubscription, error) {
	if err := s.participant(ctx, connectionID, subscriberID); err != nil {
		return nil, err
	}
	return s.hub.Subscribe(ctx, connectionID)
}

// History reads the store directly, page after page, without touching the hub.
func (s *ChannelService) History(ctx context.Context, connectionID uuid.UUID, requesterID string, afterSeq uint64) ([]domain.Message, error) {
	if err := s.participant(ctx, connectionID, requesterID); err != nil {
		return nil, err
	}
	res := []domain.Message{}
	for {
		page, err := s.messages.List(ctx, connectionID, afterSeq)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return res, nil
		}
		res = append(res, page...)
		afterSeq = page[len(page)-1].Seq
	}
}
