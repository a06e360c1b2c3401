// Package api holds the wire types of the outmentor.v1.Matchmaking service.
// They travel as JSON, over gRPC with the json content-subtype and as WebSocket frame payloads.
package api

import (
	"time"
)

type MentorDetails struct {
	FTC            bool     `json:"ftc"`
	FLL            bool     `json:"fll"`
	KnowledgeAreas []string `json:"knowledge_areas,omitempty"`
}

type TeamDetails struct {
	Program       string   `json:"program"`
	Number        string   `json:"number"`
	InterestAreas []string `json:"interest_areas,omitempty"`
}

type Profile struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Name      string         `json:"name"`
	State     string         `json:"state"`
	City      string         `json:"city"`
	Bio       string         `json:"bio,omitempty"`
	Mentor    *MentorDetails `json:"mentor,omitempty"`
	Team      *TeamDetails   `json:"team,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type ProfileSummary struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	State string `json:"state"`
	City  string `json:"city"`
}

type Connection struct {
	ID            string     `json:"id"`
	MentorID      string     `json:"mentor_id"`
	TeamID        string     `json:"team_id"`
	InitiatorID   string     `json:"initiator_id"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

type ConnectionView struct {
	Connection  Connection     `json:"connection"`
	Counterpart ProfileSummary `json:"counterpart"`
	Incoming    bool           `json:"incoming"`
}

type Message struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	Seq          uint64    `json:"seq"`
	SenderID     string    `json:"sender_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

type Meeting struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connection_id"`
	Title        string    `json:"title"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	JoinURL      string    `json:"join_url"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterProfileRequest struct {
	Profile Profile `json:"profile"`
}

type GetProfileRequest struct {
	// Empty means the caller's own profile.
	ProfileID string `json:"profile_id,omitempty"`
}

type ProfileResponse struct {
	Profile Profile `json:"profile"`
}

type SearchRequest struct {
	State        string `json:"state,omitempty"`
	NameContains string `json:"name_contains,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

type SearchResponse struct {
	Profiles []Profile `json:"profiles"`
}

type InitiateRequest struct {
	TargetID string `json:"target_id"`
}

type RespondRequest struct {
	ConnectionID string `json:"connection_id"`
	Accept       bool   `json:"accept"`
}

type ConnectionResponse struct {
	Connection Connection `json:"connection"`
}

type ListConnectionsRequest struct{}

type ListConnectionsResponse struct {
	Connections []ConnectionView `json:"connections"`
}

type SendRequest struct {
	ConnectionID string `json:"connection_id"`
	Content      string `json:"content"`
}

type MessageResponse struct {
	Message Message `json:"message"`
}

type HistoryRequest struct {
	ConnectionID string `json:"connection_id"`
	AfterSeq     uint64 `json:"after_seq,omitempty"`
}

type HistoryResponse struct {
	Messages []Message `json:"messages"`
}

type ScheduleMeetingRequest struct {
	ConnectionID string    `json:"connection_id"`
	Title        string    `json:"title,omitempty"`
	At           time.Time `json:"at,omitempty"`
}

type MeetingResponse struct {
	Meeting Meeting `json:"meeting"`
}

type ListMeetingsRequest struct {
	ConnectionID string `json:"connection_id"`
}

type ListMeetingsResponse struct {
	Meetings []Meeting `json:"meetings"`
}

type SubscribeRequest struct {
	ConnectionID string `json:"connection_id"`
}

// SubscribeEvent carries either a message or a heartbeat.
type SubscribeEvent struct {
	Message   *Message   `json:"message,omitempty"`
	Heartbeat *time.Time `json:"heartbeat,omitempty"`
}
