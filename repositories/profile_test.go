package repositories

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"outmentor/domain"
	"outmentor/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Profile_Round_Trip_Keeps_Variant(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewProfileRepository(openDB(t), slog.Default())
	at := time.Now().UTC()

	mentor := domain.Profile{ID: "auth0|m1", Kind: domain.KindMentor, Name: "Ana", State: "SP", City: "Campinas",
		Bio: "Engenheira", CreatedAt: at, UpdatedAt: at,
		Details: domain.MentorDetails{FTC: true, KnowledgeAreas: []string{"Robô", "Programação"}}}
	team := domain.Profile{ID: "auth0|t1", Kind: domain.KindTeam, Name: "Robonautas", State: "RJ", City: "Niterói",
		CreatedAt: at, UpdatedAt: at,
		Details: domain.TeamDetails{Program: domain.ProgramFLL, Number: "4242", InterestAreas: []string{"Outreach"}}}

	req.NoError(repository.Save(ctx, mentor))
	req.NoError(repository.Save(ctx, team))

	got, err := repository.Get(ctx, mentor.ID)
	req.NoError(err)
	req.Equal(mentor, got)

	got, err = repository.Get(ctx, team.ID)
	req.NoError(err)
	req.Equal(team, got)

	all, err := repository.All(ctx)
	req.NoError(err)
	req.Len(all, 2)

	many, err := repository.GetMany(ctx, []string{mentor.ID, "missing"})
	req.NoError(err)
	req.Len(many, 1)
	req.Equal("Ana", many[mentor.ID].Name)

	_, err = repository.Get(ctx, "missing")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Meetings_Listed_By_Schedule(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMeetingRepository(openDB(t), slog.Default())
	connectionID := uuid.New()
	at := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	later := domain.Meeting{ID: uuid.New(), ConnectionID: connectionID, Title: "Revisão", ScheduledAt: at.Add(48 * time.Hour),
		JoinURL: "https://meet.example/b", CreatedBy: "m1", CreatedAt: at}
	sooner := domain.Meeting{ID: uuid.New(), ConnectionID: connectionID, Title: domain.DefaultMeetingTitle, ScheduledAt: at,
		JoinURL: "https://meet.example/a", CreatedBy: "t1", CreatedAt: at}

	req.NoError(repository.Save(ctx, later))
	req.NoError(repository.Save(ctx, sooner))
	req.NoError(repository.Save(ctx, domain.Meeting{ID: uuid.New(), ConnectionID: uuid.New(), ScheduledAt: at, CreatedAt: at}))

	meetings, err := repository.List(ctx, connectionID)
	req.NoError(err)
	req.Equal([]domain.Meeting{sooner, later}, meetings)
}

func Test_Meetings_Keep_Instants_Outside_The_Nanosecond_Range(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMeetingRepository(openDB(t), slog.Default())
	connectionID := uuid.New()
	created := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

	// Given meetings before 1970, after 2262 and in between, saved out of order
	var saved []domain.Meeting
	for _, at := range []time.Time{
		time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1960, 7, 20, 20, 17, 0, 500, time.UTC),
		time.Date(2030, 1, 1, 0, 0, 0, 1, time.UTC),
	} {
		m := domain.Meeting{ID: uuid.New(), ConnectionID: connectionID, Title: "Revisão", ScheduledAt: at,
			JoinURL: "https://meet.example/x", CreatedBy: "m1", CreatedAt: created}
		req.NoError(repository.Save(ctx, m))
		saved = append(saved, m)
	}

	// When they are listed
	meetings, err := repository.List(ctx, connectionID)
	req.NoError(err)

	// Then each instant is intact and the order follows the schedule
	req.Equal([]domain.Meeting{saved[2], saved[1], saved[3], saved[0]}, meetings)
}
