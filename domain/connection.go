// Package domain contains core concepts of the matchmaking system.
// This file defines the Connection state machine between a mentor and a team.
package domain

import (
	"fmt"
	"time"

	"outmentor/errors"

	"github.com/google/uuid"
)

type ConnectionStatus string

const (
	StatusPending  ConnectionStatus = "pending"
	StatusAccepted ConnectionStatus = "accepted"
	StatusDeclined ConnectionStatus = "declined"
)

// Open reports whether the status still blocks a new connection on the same pair.
func (s ConnectionStatus) Open() bool {
	return s == StatusPending || s == StatusAccepted
}

// Connection links exactly one mentor and one team.
type Connection struct {
	ID            uuid.UUID
	MentorID      string
	TeamID        string
	InitiatorID   string
	Status        ConnectionStatus
	CreatedAt     time.Time
	RespondedAt   time.Time
	LastMessageAt time.Time
}

// NewConnection orders the pair by kind; initiator and target must be of complementary kinds.
func NewConnection(initiator, target Profile, status ConnectionStatus, at time.Time) (Connection, error) {
	if initiator.ID == target.ID {
		return Connection{}, fmt.Errorf("%w: cannot connect to self", errors.ErrInvalidArgument)
	}
	if initiator.Kind == target.Kind || !initiator.Kind.Valid() || !target.Kind.Valid() {
		return Connection{}, fmt.Errorf("%w: %s cannot connect to %s", errors.ErrInvalidArgument, initiator.Kind, target.Kind)
	}
	c := Connection{
		ID:          uuid.New(),
		InitiatorID: initiator.ID,
		Status:      status,
		CreatedAt:   at,
	}
	if initiator.Kind == KindMentor {
		c.MentorID, c.TeamID = initiator.ID, target.ID
	} else {
		c.MentorID, c.TeamID = target.ID, initiator.ID
	}
	if status == StatusAccepted {
		c.RespondedAt = at
	}
	return c, nil
}

func (c Connection) HasMember(profileID string) bool {
	return profileID == c.MentorID || profileID == c.TeamID
}

// Invitee is the side allowed to respond.
func (c Connection) Invitee() string {
	if c.InitiatorID == c.MentorID {
		return c.TeamID
	}
	return c.MentorID
}

// Counterpart returns the other member as seen from profileID.
func (c Connection) Counterpart(profileID string) string {
	if profileID == c.MentorID {
		return c.TeamID
	}
	return c.MentorID
}

// Respond applies the invitee's decision. The receiver is left untouched.
func (c Connection) Respond(responderID string, accept bool, at time.Time) (Connection, error) {
	if responderID != c.Invitee() {
		return c, fmt.Errorf("%w: only the invited side may respond", errors.ErrForbidden)
	}
	if c.Status != StatusPending {
		return c, fmt.Errorf("%w: connection is %s", errors.ErrInvalidState, c.Status)
	}
	if accept {
		c.Status = StatusAccepted
	} else {
		c.Status = StatusDeclined
	}
	c.RespondedAt = at
	return c, nil
}

// CheckParticipant guards every channel operation.
func (c Connection) CheckParticipant(profileID string) error {
	if !c.HasMember(profileID) {
		return fmt.Errorf("%w: %s is not a member of connection %s", errors.ErrForbidden, profileID, c.ID)
	}
	if c.Status != StatusAccepted {
		return fmt.Errorf("%w: connection %s is %s", errors.ErrForbidden, c.ID, c.Status)
	}
	return nil
}

// LastActivity orders the accepted list.
func (c Connection) LastActivity() time.Time {
	if c.LastMessageAt.After(c.CreatedAt) {
		return c.LastMessageAt
	}
	return c.CreatedAt
}

// ConnectionView is a connection joined with the counterpart seen from the caller.
type ConnectionView struct {
	Connection  Connection
	Counterpart ProfileSummary
	Incoming    bool
}
