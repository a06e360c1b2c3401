// Package domain contains core concepts of the matchmaking system.
// This file defines channel messages and meetings.
// Both are immutable once stored.
package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"outmentor/errors"

	"github.com/google/uuid"
)

const DefaultMeetingTitle = "Reunião OutMentor"

// Message is one entry of a connection's ordered log.
// Seq starts at 1 and is assigned by the store.
type Message struct {
	ID           uuid.UUID
	ConnectionID uuid.UUID
	Seq          uint64
	SenderID     string
	Content      string
	CreatedAt    time.Time
}

// NormalizeContent trims text and enforces the length bound in runes.
func NormalizeContent(text string, maxLen int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty message", errors.ErrInvalidArgument)
	}
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		return "", fmt.Errorf("%w: message longer than %d characters", errors.ErrInvalidArgument, maxLen)
	}
	return text, nil
}

type Meeting struct {
	ID           uuid.UUID
	ConnectionID uuid.UUID
	Title        string
	ScheduledAt  time.Time
	JoinURL      string
	CreatedBy    string
	CreatedAt    time.Time
}

// MeetingHorizon bounds how far from now a meeting may be scheduled, in either direction.
const MeetingHorizon = 10 * 365 * 24 * time.Hour

// CheckMeetingTime rejects instants more than MeetingHorizon away from now.
func CheckMeetingTime(at, now time.Time) error {
	if at.Before(now.Add(-MeetingHorizon)) || at.After(now.Add(MeetingHorizon)) {
		return fmt.Errorf("%w: meeting time %s is more than %s away",
			errors.ErrInvalidArgument, at.Format(time.RFC3339), MeetingHorizon)
	}
	return nil
}
