package domain

import (
	"time"

	"github.com/google/uuid"
)

// Command is an operation bound to a connection channel.
type Command interface {
	Connection() uuid.UUID
}

type SendMessageCommand struct {
	ConnectionID uuid.UUID
	SenderID     string
	Content      string
}

func (c SendMessageCommand) Connection() uuid.UUID {
	return c.ConnectionID
}

type ScheduleMeetingCommand struct {
	ConnectionID uuid.UUID
	RequesterID  string
	Title        string
	At           time.Time
}

func (c ScheduleMeetingCommand) Connection() uuid.UUID {
	return c.ConnectionID
}
