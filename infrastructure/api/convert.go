package api

import (
	"fmt"
	"time"

	"outmentor/domain"
	"outmentor/domain/search"
	"outmentor/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ParseConnectionID turns a malformed id into ErrInvalidArgument.
func ParseConnectionID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: connection id %q", errors.ErrInvalidArgument, s)
	}
	return id, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return lo.ToPtr(t)
}

func FromProfile(p domain.Profile) Profile {
	res := Profile{
		ID:        p.ID,
		Kind:      string(p.Kind),
		Name:      p.Name,
		State:     p.State,
		City:      p.City,
		Bio:       p.Bio,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if m, ok := p.Mentor(); ok {
		res.Mentor = &MentorDetails{FTC: m.FTC, FLL: m.FLL, KnowledgeAreas: m.KnowledgeAreas}
	}
	if t, ok := p.Team(); ok {
		res.Team = &TeamDetails{Program: string(t.Program), Number: t.Number, InterestAreas: t.InterestAreas}
	}
	return res
}

// ToProfile picks the detail record matching the kind; a missing one is left nil for validation to reject.
func ToProfile(p Profile) domain.Profile {
	res := domain.Profile{
		ID:    p.ID,
		Kind:  domain.Kind(p.Kind),
		Name:  p.Name,
		State: p.State,
		City:  p.City,
		Bio:   p.Bio,
	}
	switch {
	case res.Kind == domain.KindMentor && p.Mentor != nil:
		res.Details = domain.MentorDetails{FTC: p.Mentor.FTC, FLL: p.Mentor.FLL, KnowledgeAreas: p.Mentor.KnowledgeAreas}
	case res.Kind == domain.KindTeam && p.Team != nil:
		res.Details = domain.TeamDetails{
			Program:       domain.ProgramType(p.Team.Program),
			Number:        p.Team.Number,
			InterestAreas: p.Team.InterestAreas,
		}
	}
	return res
}

func FromProfiles(profiles []domain.Profile) []Profile {
	return lo.Map(profiles, func(p domain.Profile, _ int) Profile { return FromProfile(p) })
}

func FromConnection(c domain.Connection) Connection {
	return Connection{
		ID:            c.ID.String(),
		MentorID:      c.MentorID,
		TeamID:        c.TeamID,
		InitiatorID:   c.InitiatorID,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
		RespondedAt:   timePtr(c.RespondedAt),
		LastMessageAt: timePtr(c.LastMessageAt),
	}
}

func FromConnectionViews(views []domain.ConnectionView) []ConnectionView {
	return lo.Map(views, func(v domain.ConnectionView, _ int) ConnectionView {
		return ConnectionView{
			Connection: FromConnection(v.Connection),
			Counterpart: ProfileSummary{
				ID:    v.Counterpart.ID,
				Kind:  string(v.Counterpart.Kind),
				Name:  v.Counterpart.Name,
				State: v.Counterpart.State,
				City:  v.Counterpart.City,
			},
			Incoming: v.Incoming,
		}
	})
}

func FromMessage(m domain.Message) Message {
	return Message{
		ID:           m.ID.String(),
		ConnectionID: m.ConnectionID.String(),
		Seq:          m.Seq,
		SenderID:     m.SenderID,
		Content:      m.Content,
		CreatedAt:    m.CreatedAt,
	}
}

func FromMessages(messages []domain.Message) []Message {
	return lo.Map(messages, func(m domain.Message, _ int) Message { return FromMessage(m) })
}

func FromMeeting(m domain.Meeting) Meeting {
	return Meeting{
		ID:           m.ID.String(),
		ConnectionID: m.ConnectionID.String(),
		Title:        m.Title,
		ScheduledAt:  m.ScheduledAt,
		JoinURL:      m.JoinURL,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
	}
}

func FromMeetings(meetings []domain.Meeting) []Meeting {
	return lo.Map(meetings, func(m domain.Meeting, _ int) Meeting { return FromMeeting(m) })
}

func (r SearchRequest) Filter() search.Filter {
	return search.Filter{State: r.State, NameContains: r.NameContains, Limit: r.Limit}
}
