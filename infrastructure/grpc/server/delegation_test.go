package server

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"outmentor/domain"
	"outmentor/domain/search"
	"outmentor/errors"
	"outmentor/infrastructure/api"
	"outmentor/infrastructure/grpc/client"
	"outmentor/mocks"
	"outmentor/services"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type mockedServices struct {
	directory   *mocks.MockIDirectoryService
	connections *mocks.MockIConnectionService
	channel     *mocks.MockIChannelService
	meetings    *mocks.MockIMeetingService
}

func startMockedServer(t *testing.T, ctrl *gomock.Controller) (mockedServices, func(profileID string) *client.Client) {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	m := mockedServices{
		directory:   mocks.NewMockIDirectoryService(ctrl),
		connections: mocks.NewMockIConnectionService(ctrl),
		channel:     mocks.NewMockIChannelService(ctrl),
		meetings:    mocks.NewMockIMeetingService(ctrl),
	}
	connect := serve(t, log, services.Services{
		Log:         log,
		Directory:   m.directory,
		Connections: m.connections,
		Channel:     m.channel,
		Meetings:    m.meetings,
	})
	return m, connect
}

func TestMatchmaking_Passes_The_Verified_Caller_To_Services(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctrl := gomock.NewController(t)
	m, connect := startMockedServer(t, ctrl)
	mentor := connect("m1")
	connectionID := uuid.New()

	// Given services answering for m1
	m.directory.EXPECT().Search(gomock.Any(), "m1", search.Filter{State: "SP", Limit: 5}).
		Return([]domain.Profile{{ID: "t1", Kind: domain.KindTeam, Name: "Robonautas",
			Details: domain.TeamDetails{Program: domain.ProgramFTC, Number: "16"}}}, nil)
	m.connections.EXPECT().Initiate(gomock.Any(), "m1", "t1").
		Return(domain.Connection{ID: connectionID, MentorID: "m1", TeamID: "t1", InitiatorID: "m1", Status: domain.StatusPending}, nil)
	m.channel.EXPECT().Send(gomock.Any(), domain.SendMessageCommand{ConnectionID: connectionID, SenderID: "m1", Content: "Olá"}).
		Return(domain.Message{ID: uuid.New(), ConnectionID: connectionID, Seq: 1, SenderID: "m1", Content: "Olá"}, nil)
	var scheduled domain.ScheduleMeetingCommand
	m.meetings.EXPECT().Schedule(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd domain.ScheduleMeetingCommand) (domain.Meeting, error) {
			scheduled = cmd
			return domain.Meeting{}, fmt.Errorf("%w: meeting time too far", errors.ErrInvalidArgument)
		})

	// When m1 calls the API
	found, err := mentor.Search(ctx, &api.SearchRequest{State: "SP", Limit: 5})
	req.NoError(err)
	initiated, err := mentor.Initiate(ctx, &api.InitiateRequest{TargetID: "t1"})
	req.NoError(err)
	sent, err := mentor.Send(ctx, &api.SendRequest{ConnectionID: connectionID.String(), Content: "Olá"})
	req.NoError(err)
	_, err = mentor.ScheduleMeeting(ctx, &api.ScheduleMeetingRequest{ConnectionID: connectionID.String(), Title: "Kickoff"})

	// Then results and errors come back translated
	req.Equal("t1", found.Profiles[0].ID)
	req.Equal(connectionID.String(), initiated.Connection.ID)
	req.Equal(uint64(1), sent.Message.Seq)
	req.Equal(codes.InvalidArgument, status.Code(err))
	req.Equal("m1", scheduled.RequesterID)
	req.Equal("Kickoff", scheduled.Title)
	req.Equal(connectionID, scheduled.ConnectionID)
}

func TestMatchmaking_Maps_Service_Errors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctrl := gomock.NewController(t)
	m, connect := startMockedServer(t, ctrl)
	team := connect("t1")
	connectionID := uuid.New()

	tests := []struct {
		name   string
		expect func()
		call   func() error
		code   codes.Code
	}{
		{"already processed", func() {
			m.connections.EXPECT().Respond(gomock.Any(), connectionID, "t1", true).
				Return(domain.Connection{}, fmt.Errorf("%w: connection is declined", errors.ErrInvalidState))
		}, func() error {
			_, err := team.Respond(ctx, &api.RespondRequest{ConnectionID: connectionID.String(), Accept: true})
			return err
		}, codes.FailedPrecondition},
		{"store down", func() {
			m.channel.EXPECT().History(gomock.Any(), connectionID, "t1", uint64(3)).
				Return(nil, fmt.Errorf("%w: retries exhausted", errors.ErrUnavailable))
		}, func() error {
			_, err := team.History(ctx, &api.HistoryRequest{ConnectionID: connectionID.String(), AfterSeq: 3})
			return err
		}, codes.Unavailable},
		{"missing profile", func() {
			m.directory.EXPECT().Get(gomock.Any(), "ghost").Return(domain.Profile{}, fmt.Errorf("%w: profile ghost", errors.ErrNotFound))
		}, func() error {
			_, err := team.GetProfile(ctx, &api.GetProfileRequest{ProfileID: "ghost"})
			return err
		}, codes.NotFound},
		{"not a member", func() {
			m.meetings.EXPECT().List(gomock.Any(), connectionID, "t1").Return(nil, fmt.Errorf("%w: not a member", errors.ErrForbidden))
		}, func() error {
			_, err := team.ListMeetings(ctx, &api.ListMeetingsRequest{ConnectionID: connectionID.String()})
			return err
		}, codes.PermissionDenied},
		{"unexpected failure", func() {
			m.connections.EXPECT().ListPending(gomock.Any(), "t1").Return(nil, fmt.Errorf("boom"))
		}, func() error {
			_, err := team.ListPending(ctx, &api.ListConnectionsRequest{})
			return err
		}, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.expect()
			require.Equal(t, tt.code, status.Code(tt.call()))
		})
	}
}

func TestMatchmaking_Subscribe_Streams_Until_The_Feed_Ends(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctrl := gomock.NewController(t)
	m, connect := startMockedServer(t, ctrl)
	team := connect("t1")
	connectionID := uuid.New()

	// Given a subscription holding one message, then ended as idle
	messages := make(chan domain.Message, 1)
	messages <- domain.Message{ID: uuid.New(), ConnectionID: connectionID, Seq: 1, SenderID: "m1", Content: "Olá"}
	close(messages)
	sub := mocks.NewMockISubscription(ctrl)
	sub.EXPECT().Messages().Return((<-chan domain.Message)(messages)).AnyTimes()
	sub.EXPECT().Err().Return(fmt.Errorf("%w: no activity", errors.ErrSubscriptionIdle)).AnyTimes()
	sub.EXPECT().Touch().AnyTimes()
	sub.EXPECT().Cancel().AnyTimes()
	m.channel.EXPECT().Subscribe(gomock.Any(), connectionID, "t1").Return(sub, nil)

	// When the team subscribes
	stream, err := team.Subscribe(ctx, &api.SubscribeRequest{ConnectionID: connectionID.String()})
	req.NoError(err)

	// Then it gets the message, then the stream ends as unavailable
	var got []api.Message
	for {
		event, err := stream.Recv()
		if err != nil {
			req.Equal(codes.Unavailable, status.Code(err))
			break
		}
		if event.Message != nil {
			got = append(got, *event.Message)
		}
	}
	req.Len(got, 1)
	req.Equal("Olá", got[0].Content)
}
