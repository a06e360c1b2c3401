//go:generate go run go.uber.org/mock/mockgen -source=connection.go -destination=../mocks/mock_connection_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"outmentor/domain"
	"outmentor/errors"
	"outmentor/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Policy decides the status of a freshly initiated connection.
type Policy string

const (
	// PolicyApproval waits for the invited side to respond.
	PolicyApproval Policy = "approval"
	// PolicyImmediate accepts on creation.
	PolicyImmediate Policy = "immediate"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyApproval:
		return PolicyApproval, nil
	case PolicyImmediate:
		return PolicyImmediate, nil
	default:
		return "", fmt.Errorf("%w: unknown connection policy %q", errors.ErrInvalidArgument, s)
	}
}

type IConnectionService interface {
	Initiate(ctx context.Context, initiatorID, targetID string) (domain.Connection, error)
	Respond(ctx context.Context, connectionID uuid.UUID, responderID string, accept bool) (domain.Connection, error)
	Get(ctx context.Context, connectionID uuid.UUID, requesterID string) (domain.Connection, error)
	ListAccepted(ctx context.Context, profileID string) ([]domain.ConnectionView, error)
	ListPending(ctx context.Context, profileID string) ([]domain.ConnectionView, error)
}

type ConnectionService struct {
	log         *slog.Logger
	profiles    repositories.IProfileRepository
	connections repositories.IConnectionRepository
	policy      Policy
	now         func() time.Time
}

func NewConnectionService(log *slog.Logger, profiles repositories.IProfileRepository,
	connections repositories.IConnectionRepository, policy Policy) *ConnectionService {
	return &ConnectionService{
		log:         log,
		profiles:    profiles,
		connections: connections,
		policy:      policy,
		now:         time.Now,
	}
}

// Initiate is idempotent: an open connection on the pair is returned as is, whichever side created it.
func (s *ConnectionService) Initiate(ctx context.Context, initiatorID, targetID string) (domain.Connection, error) {
	initiator, err := s.profiles.Get(ctx, initiatorID)
	if err != nil {
		return domain.Connection{}, err
	}
	target, err := s.profiles.Get(ctx, targetID)
	if err != nil {
		return domain.Connection{}, err
	}

	status := domain.StatusPending
	if s.policy == PolicyImmediate {
		status = domain.StatusAccepted
	}
	candidate, err := domain.NewConnection(initiator, target, status, s.now().UTC())
	if err != nil {
		return domain.Connection{}, err
	}

	conn, created, err := s.connections.Initiate(ctx, candidate)
	if err != nil {
		return domain.Connection{}, err
	}
	if created {
		s.log.Debug("Connection initiated", "connection", conn.ID, "initiator", initiatorID, "status", conn.Status)
	}
	return conn, nil
}

func (s *ConnectionService) Respond(ctx context.Context, connectionID uuid.UUID, responderID string, accept bool) (domain.Connection, error) {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return domain.Connection{}, err
	}
	updated, err := conn.Respond(responderID, accept, s.now().UTC())
	if err != nil {
		return domain.Connection{}, err
	}
	// A concurrent response makes the compare-and-set fail with ErrInvalidState
	if err := s.connections.Update(ctx, updated, domain.StatusPending); err != nil {
		return domain.Connection{}, err
	}
	s.log.Debug("Connection answered", "connection", conn.ID, "status", updated.Status)
	return updated, nil
}

func (s *ConnectionService) Get(ctx context.Context, connectionID uuid.UUID, requesterID string) (domain.Connection, error) {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return domain.Connection{}, err
	}
	if !conn.HasMember(requesterID) {
		return domain.Connection{}, fmt.Errorf("%w: %s is not a member of connection %s", errors.ErrForbidden, requesterID, connectionID)
	}
	return conn, nil
}

// ListAccepted orders by most recent message, falling back to creation time, newest first.
func (s *ConnectionService) ListAccepted(ctx context.Context, profileID string) ([]domain.ConnectionView, error) {
	views, err := s.list(ctx, profileID, domain.StatusAccepted)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(views, func(a, b domain.ConnectionView) int {
		return b.Connection.LastActivity().Compare(a.Connection.LastActivity())
	})
	return views, nil
}

// ListPending is the inbox of the caller, newest first.
func (s *ConnectionService) ListPending(ctx context.Context, profileID string) ([]domain.ConnectionView, error) {
	views, err := s.list(ctx, profileID, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(views, func(a, b domain.ConnectionView) int {
		return b.Connection.CreatedAt.Compare(a.Connection.CreatedAt)
	})
	return views, nil
}

func (s *ConnectionService) list(ctx context.Context, profileID string, status domain.ConnectionStatus) ([]domain.ConnectionView, error) {
	conns, err := s.connections.ListByMember(ctx, profileID, status)
	if err != nil {
		return nil, err
	}
	counterparts, err := s.profiles.GetMany(ctx, lo.Map(conns, func(c domain.Connection, _ int) string {
		return c.Counterpart(profileID)
	}))
	if err != nil {
		return nil, err
	}

	return lo.Map(conns, func(c domain.Connection, _ int) domain.ConnectionView {
		otherID := c.Counterpart(profileID)
		summary := domain.ProfileSummary{ID: otherID}
		if p, ok := counterparts[otherID]; ok {
			summary = p.Summary()
		}
		return domain.ConnectionView{
			Connection:  c,
			Counterpart: summary,
			Incoming:    c.InitiatorID != profileID,
		}
	}), nil
}
