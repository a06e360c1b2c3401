package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"outmentor/domain"
	"outmentor/errors"
	"outmentor/mocks"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestParsePolicy(t *testing.T) {
	req := require.New(t)

	policy, err := ParsePolicy("")
	req.NoError(err)
	req.Equal(PolicyApproval, policy)

	policy, err = ParsePolicy("immediate")
	req.NoError(err)
	req.Equal(PolicyImmediate, policy)

	_, err = ParsePolicy("whatever")
	req.ErrorIs(err, errors.ErrInvalidArgument)
}

func TestConnectionService_Initiate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mockProfiles := mocks.NewMockIProfileRepository(ctrl)
	mockConnections := mocks.NewMockIConnectionRepository(ctrl)
	ctx := context.Background()

	t.Run("should create a pending connection under the approval policy", func(t *testing.T) {
		req := require.New(t)
		svc := NewConnectionService(log, mockProfiles, mockConnections, PolicyApproval)
		mockProfiles.EXPECT().Get(ctx, "t1").Return(teamProfile("t1", "Alpha"), nil)
		mockProfiles.EXPECT().Get(ctx, "m1").Return(mentorProfile("m1", "Ana"), nil)
		mockConnections.EXPECT().Initiate(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, c domain.Connection) (domain.Connection, bool, error) {
				return c, true, nil
			})

		// When the team initiates towards the mentor
		conn, err := svc.Initiate(ctx, "t1", "m1")

		// Then the pair is ordered by kind and waits for the mentor
		req.NoError(err)
		req.Equal(domain.StatusPending, conn.Status)
		req.Equal("m1", conn.MentorID)
		req.Equal("t1", conn.TeamID)
		req.Equal("t1", conn.InitiatorID)
		req.Equal("m1", conn.Invitee())
	})

	t.Run("should create an accepted connection under the immediate policy", func(t *testing.T) {
		req := require.New(t)
		svc := NewConnectionService(log, mockProfiles, mockConnections, PolicyImmediate)
		mockProfiles.EXPECT().Get(ctx, "m1").Return(mentorProfile("m1", "Ana"), nil)
		mockProfiles.EXPECT().Get(ctx, "t1").Return(teamProfile("t1", "Alpha"), nil)
		mockConnections.EXPECT().Initiate(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, c domain.Connection) (domain.Connection, bool, error) {
				return c, true, nil
			})

		conn, err := svc.Initiate(ctx, "m1", "t1")

		req.NoError(err)
		req.Equal(domain.StatusAccepted, conn.Status)
		req.False(conn.RespondedAt.IsZero())
	})

	t.Run("should return the open connection of the pair unchanged", func(t *testing.T) {
		req := require.New(t)
		svc := NewConnectionService(log, mockProfiles, mockConnections, PolicyApproval)
		existing := domain.Connection{ID: uuid.New(), MentorID: "m1", TeamID: "t1", InitiatorID: "t1", Status: domain.StatusPending}
		mockProfiles.EXPECT().Get(ctx, "m1").Return(mentorProfile("m1", "Ana"), nil)
		mockProfiles.EXPECT().Get(ctx, "t1").Return(teamProfile("t1", "Alpha"), nil)
		mockConnections.EXPECT().Initiate(ctx, gomock.Any()).Return(existing, false, nil)

		conn, err := svc.Initiate(ctx, "m1", "t1")

		req.NoError(err)
		req.Equal(existing, conn)
	})

	t.Run("should fail with not found when the target is unknown", func(t *testing.T) {
		req := require.New(t)
		svc := NewConnectionService(log, mockProfiles, mockConnections, PolicyApproval)
		mockProfiles.EXPECT().Get(ctx, "m1").Return(mentorProfile("m1", "Ana"), nil)
		mockProfiles.EXPECT().Get(ctx, "ghost").Return(domain.Profile{}, errors.ErrNotFound)
		mockConnections.EXPECT().Initiate(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Initiate(ctx, "m1", "ghost")

		req.ErrorIs(err, errors.ErrNotFound)
	})

	t.Run("should refuse two profiles of the same kind", func(t *testing.T) {
		req := require.New(t)
		svc := NewConnectionService(log, mockProfiles, mockConnections, PolicyApproval)
		mockProfiles.EXPECT().Get(ctx, "m1").Return(mentorProfile("m1", "Ana"), nil)
		mockProfiles.EXPECT().Get(ctx, "m2").Return(mentorProfile("m2", "Bruno"), nil)

		_, err := svc.Initiate(ctx, "m1", "m2")

		req.ErrorIs(err, errors.ErrInvalidArgument)
	})
}

func TestConnectionService_Respond(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mockProfiles := mocks.NewMockIProfileRepository(ctrl)
	mockConnections := mocks.NewMockIConnectionRepository(ctrl)
	svc := NewConnectionService(log, mockProfiles, mockConnections, PolicyApproval)
	ctx := context.Background()
	pending := domain.Connection{ID: uuid.New(), MentorID: "m1", TeamID: "t1", InitiatorID: "m1", Status: domain.StatusPending}

	t.Run("should accept when the invitee responds", func(t *testing.T) {
		req := require.New(t)
		mockConnections.EXPECT().Get(ctx, pending.ID).Return(pending, nil)
		mockConnections.EXPECT().Update(ctx, gomock.Any(), domain.StatusPending).Return(nil)

		conn, err := svc.Respond(ctx, pending.ID, "t1", true)

		req.NoError(err)
		req.Equal(domain.StatusAccepted, conn.Status)
	})

	t.Run("should be forbidden to the initiator", func(t *testing.T) {
		req := require.New(t)
		mockConnections.EXPECT().Get(ctx, pending.ID).Return(pending, nil)

		_, err := svc.Respond(ctx, pending.ID, "m1", true)

		req.ErrorIs(err, errors.ErrForbidden)
	})

	t.Run("should fail when the connection is no longer pending", func(t *testing.T) {
		req := require.New(t)
		declined := pending
		declined.Status = domain.StatusDeclined
		mockConnections.EXPECT().Get(ctx, pending.ID).Return(declined, nil)

		_, err := svc.Respond(ctx, pending.ID, "t1", true)

		req.ErrorIs(err, errors.ErrInvalidState)
	})

	t.Run("should surface a concurrent response", func(t *testing.T) {
		req := require.New(t)
		mockConnections.EXPECT().Get(ctx, pending.ID).Return(pending, nil)
		mockConnections.EXPECT().Update(ctx, gomock.Any(), domain.StatusPending).Return(errors.ErrInvalidState)

		_, err := svc.Respond(ctx, pending.ID, "t1", false)

		req.ErrorIs(err, errors.ErrInvalidState)
	})

	t.Run("should fail with not found for an unknown connection", func(t *testing.T) {
		req := require.New(t)
		id := uuid.New()
		mockConnections.EXPECT().Get(ctx, id).Return(domain.Connection{}, errors.ErrNotFound)

		_, err := svc.Respond(ctx, id, "t1", true)

		req.ErrorIs(err, errors.ErrNotFound)
	})
}

func TestConnectionService_Lists(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mockProfiles := mocks.NewMockIProfileRepository(ctrl)
	mockConnections := mocks.NewMockIConnectionRepository(ctrl)
	svc := NewConnectionService(log, mockProfiles, mockConnections, PolicyApproval)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should order accepted connections by last message then creation", func(t *testing.T) {
		req := require.New(t)
		quiet := domain.Connection{ID: uuid.New(), MentorID: "m1", TeamID: "t1", InitiatorID: "m1",
			Status: domain.StatusAccepted, CreatedAt: base.Add(3 * time.Hour)}
		chatty := domain.Connection{ID: uuid.New(), MentorID: "m1", TeamID: "t2", InitiatorID: "t2",
			Status: domain.StatusAccepted, CreatedAt: base, LastMessageAt: base.Add(5 * time.Hour)}
		old := domain.Connection{ID: uuid.New(), MentorID: "m1", TeamID: "t3", InitiatorID: "m1",
			Status: domain.StatusAccepted, CreatedAt: base.Add(time.Hour)}
		mockConnections.EXPECT().ListByMember(ctx, "m1", domain.StatusAccepted).
			Return([]domain.Connection{quiet, chatty, old}, nil)
		mockProfiles.EXPECT().GetMany(ctx, []string{"t1", "t2", "t3"}).Return(map[string]domain.Profile{
			"t1": teamProfile("t1", "Alpha"),
			"t2": teamProfile("t2", "Beta"),
		}, nil)

		views, err := svc.ListAccepted(ctx, "m1")

		req.NoError(err)
		req.Len(views, 3)
		req.Equal(chatty.ID, views[0].Connection.ID)
		req.Equal(quiet.ID, views[1].Connection.ID)
		req.Equal(old.ID, views[2].Connection.ID)
		req.Equal("Beta", views[0].Counterpart.Name)
		req.Equal(domain.KindTeam, views[0].Counterpart.Kind)
		// A counterpart missing from the store still shows its id
		req.Equal("t3", views[2].Counterpart.ID)
	})

	t.Run("should flag incoming pending connections", func(t *testing.T) {
		req := require.New(t)
		incoming := domain.Connection{ID: uuid.New(), MentorID: "m1", TeamID: "t1", InitiatorID: "m1",
			Status: domain.StatusPending, CreatedAt: base}
		outgoing := domain.Connection{ID: uuid.New(), MentorID: "m2", TeamID: "t1", InitiatorID: "t1",
			Status: domain.StatusPending, CreatedAt: base.Add(time.Minute)}
		mockConnections.EXPECT().ListByMember(ctx, "t1", domain.StatusPending).
			Return([]domain.Connection{incoming, outgoing}, nil)
		mockProfiles.EXPECT().GetMany(ctx, []string{"m1", "m2"}).Return(map[string]domain.Profile{
			"m1": mentorProfile("m1", "Ana"),
			"m2": mentorProfile("m2", "Bruno"),
		}, nil)

		views, err := svc.ListPending(ctx, "t1")

		req.NoError(err)
		req.Len(views, 2)
		req.Equal(outgoing.ID, views[0].Connection.ID)
		req.False(views[0].Incoming)
		req.True(views[1].Incoming)
		req.Equal("Ana", views[1].Counterpart.Name)
	})

	t.Run("should hide a connection from a non-member", func(t *testing.T) {
		req := require.New(t)
		conn := domain.Connection{ID: uuid.New(), MentorID: "m1", TeamID: "t1", InitiatorID: "m1", Status: domain.StatusAccepted}
		mockConnections.EXPECT().Get(ctx, conn.ID).Return(conn, nil)

		_, err := svc.Get(ctx, conn.ID, "m2")

		req.ErrorIs(err, errors.ErrForbidden)
	})
}
