package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"outmentor/auth"
	"outmentor/domain"
	"outmentor/infrastructure/api"
	"outmentor/infrastructure/meeting"
	"outmentor/mocks"
	"outmentor/repositories"
	"outmentor/runtime"
	index "outmentor/search"
	"outmentor/services"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const secret = "test-secret"

type gatewayFixture struct {
	server     *httptest.Server
	verifier   *auth.Verifier
	monitoring *domain.Monitoring
}

func startGateway(t *testing.T, limiter IRateLimiter) *gatewayFixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	profiles := repositories.NewProfileRepository(db, log)
	connections := repositories.NewConnectionRepository(db, log)
	messages := repositories.NewMessageRepository(db, log, nil)
	hub := runtime.NewHub(log, messages, 16)
	t.Cleanup(hub.Shutdown)
	links, err := meeting.NewLinkProvider("https://meet.test", secret)
	require.NoError(t, err)

	svc := services.Services{
		Log:         log,
		Directory:   services.NewDirectoryService(log, profiles, index.NewProfileIndex(writer, log), 50),
		Connections: services.NewConnectionService(log, profiles, connections, services.PolicyApproval),
		Channel:     services.NewChannelService(log, connections, messages, hub, 500),
		Meetings:    services.NewMeetingService(log, connections, repositories.NewMeetingRepository(db, log), links),
	}

	verifier := auth.NewVerifier(secret, "outmentor")
	monitoring := domain.NewMonitoring()
	gateway := NewGateway(log, svc, verifier, limiter, 5*time.Second)
	server := httptest.NewServer(NewRouter(log, gateway, monitoring))
	t.Cleanup(server.Close)
	return &gatewayFixture{server: server, verifier: verifier, monitoring: monitoring}
}

type wsClient struct {
	t      *testing.T
	conn   *websocket.Conn
	next   int
	pushed []Frame
}

func (f *gatewayFixture) dial(t *testing.T, profileID string) *wsClient {
	t.Helper()
	token, err := f.verifier.Issue(profileID, time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) read() Frame {
	c.t.Helper()
	var f Frame
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(c.t, c.conn.ReadJSON(&f))
	return f
}

// call sends one frame and returns its answer; pushes read meanwhile are kept for await.
func (c *wsClient) call(typ string, payload any) Frame {
	c.t.Helper()
	c.next++
	id := strconv.Itoa(c.next)
	raw, err := json.Marshal(payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(Frame{ID: id, Type: typ, Payload: raw}))
	for {
		f := c.read()
		if f.ID == id {
			return f
		}
		c.pushed = append(c.pushed, f)
	}
}

func (c *wsClient) await(typ string) Frame {
	c.t.Helper()
	for i, f := range c.pushed {
		if f.Type == typ {
			c.pushed = append(c.pushed[:i], c.pushed[i+1:]...)
			return f
		}
	}
	for {
		if f := c.read(); f.Type == typ {
			return f
		}
	}
}

func ok[T any](t *testing.T, f Frame) T {
	t.Helper()
	require.Nil(t, f.Error, "unexpected error frame")
	var v T
	require.NoError(t, json.Unmarshal(f.Payload, &v))
	return v
}

func mentor(name string) api.Profile {
	return api.Profile{Kind: "mentor", Name: name, State: "SP", City: "Campinas",
		Mentor: &api.MentorDetails{FTC: true, KnowledgeAreas: []string{"programming"}}}
}

func team(id, name string) api.Profile {
	return api.Profile{Kind: "team", Name: name, State: "SP", City: "Campinas",
		Team: &api.TeamDetails{Program: "FLL", Number: "16" + id}}
}

// accepted registers m1 and t1 and returns their accepted connection id.
func accepted(t *testing.T, m, tm *wsClient) string {
	t.Helper()
	ok[api.ProfileResponse](t, m.call(FrameRegister, api.RegisterProfileRequest{Profile: mentor("Ana")}))
	ok[api.ProfileResponse](t, tm.call(FrameRegister, api.RegisterProfileRequest{Profile: team("t1", "Robonautas")}))
	initiated := ok[api.ConnectionResponse](t, m.call(FrameInitiate, api.InitiateRequest{TargetID: "t1"}))
	responded := ok[api.ConnectionResponse](t, tm.call(FrameRespond, api.RespondRequest{
		ConnectionID: initiated.Connection.ID,
		Accept:       true,
	}))
	require.Equal(t, "accepted", responded.Connection.Status)
	return initiated.Connection.ID
}

func TestGateway_Session(t *testing.T) {
	req := require.New(t)
	f := startGateway(t, nil)
	m := f.dial(t, "m1")
	tm := f.dial(t, "t1")
	connID := accepted(t, m, tm)

	// Given the team listening on the connection
	opened := ok[api.SubscribeRequest](t, tm.call(FrameOpen, api.SubscribeRequest{ConnectionID: connID}))
	req.Equal(connID, opened.ConnectionID)

	// When the mentor writes
	sent := ok[api.MessageResponse](t, m.call(FrameSend, api.SendRequest{ConnectionID: connID, Content: "  Olá  "}))
	req.Equal("Olá", sent.Message.Content)

	// Then the team gets it pushed
	pushed := ok[api.Message](t, tm.await(FrameMessage))
	req.Equal(uint64(1), pushed.Seq)
	req.Equal("m1", pushed.SenderID)

	found := ok[api.SearchResponse](t, m.call(FrameSearch, api.SearchRequest{NameContains: "robo"}))
	req.Len(found.Profiles, 1)
	self := ok[api.ProfileResponse](t, tm.call(FrameProfile, api.GetProfileRequest{}))
	req.Equal("Robonautas", self.Profile.Name)

	views := ok[api.ListConnectionsResponse](t, m.call(FrameListAccepted, nil))
	req.Len(views.Connections, 1)
	req.Equal("t1", views.Connections[0].Counterpart.ID)
	pending := ok[api.ListConnectionsResponse](t, m.call(FrameListPending, nil))
	req.Empty(pending.Connections)

	history := ok[api.HistoryResponse](t, m.call(FrameHistory, api.HistoryRequest{ConnectionID: connID}))
	req.Len(history.Messages, 1)

	scheduled := ok[api.MeetingResponse](t, m.call(FrameScheduleMeeting, api.ScheduleMeetingRequest{
		ConnectionID: connID,
		Title:        "Kickoff",
	}))
	req.True(strings.HasPrefix(scheduled.Meeting.JoinURL, "https://meet.test/"))
	meetings := ok[api.ListMeetingsResponse](t, tm.call(FrameListMeetings, api.ListMeetingsRequest{ConnectionID: connID}))
	req.Len(meetings.Meetings, 1)

	// And closing the feed is reported without error
	ok[struct{}](t, tm.call(FrameClose, nil))
	closed := ok[ClosedEvent](t, tm.await(FrameClosed))
	req.Equal(connID, closed.ConnectionID)
	req.Nil(closed.Error)
}

func TestGateway_Errors(t *testing.T) {
	f := startGateway(t, nil)
	m := f.dial(t, "m1")
	tm := f.dial(t, "t1")
	stranger := f.dial(t, "m2")
	connID := accepted(t, m, tm)
	ok[api.ProfileResponse](t, stranger.call(FrameRegister, api.RegisterProfileRequest{Profile: mentor("Bruno")}))

	tests := []struct {
		name    string
		client  *wsClient
		typ     string
		payload any
		kind    string
	}{
		{"unknown type", m, "dance", nil, "invalid_argument"},
		{"malformed payload", m, FrameInitiate, "not an object", "invalid_argument"},
		{"malformed connection id", m, FrameSend, api.SendRequest{ConnectionID: "nope", Content: "hi"}, "invalid_argument"},
		{"unknown target", m, FrameInitiate, api.InitiateRequest{TargetID: "ghost"}, "not_found"},
		{"stranger sends", stranger, FrameSend, api.SendRequest{ConnectionID: connID, Content: "hi"}, "forbidden"},
		{"stranger opens", stranger, FrameOpen, api.SubscribeRequest{ConnectionID: connID}, "forbidden"},
		{"empty message", m, FrameSend, api.SendRequest{ConnectionID: connID, Content: "   "}, "invalid_argument"},
		{"respond twice", tm, FrameRespond, api.RespondRequest{ConnectionID: connID, Accept: true}, "invalid_state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.client.call(tt.typ, tt.payload)
			require.Equal(t, FrameError, frame.Type)
			require.NotNil(t, frame.Error)
			require.Equal(t, tt.kind, frame.Error.Kind)
		})
	}
}

func TestGateway_Rate_Limits_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	limiter := mocks.NewMockIRateLimiter(ctrl)
	gomock.InOrder(
		limiter.EXPECT().Allow(gomock.Any(), "send:m1").Return(true),
		limiter.EXPECT().Allow(gomock.Any(), "send:m1").Return(false),
	)
	f := startGateway(t, limiter)
	m := f.dial(t, "m1")
	tm := f.dial(t, "t1")
	connID := accepted(t, m, tm)

	ok[api.MessageResponse](t, m.call(FrameSend, api.SendRequest{ConnectionID: connID, Content: "first"}))
	refused := m.call(FrameSend, api.SendRequest{ConnectionID: connID, Content: "second"})

	require.Equal(t, FrameError, refused.Type)
	require.Equal(t, "resource_exhausted", refused.Error.Kind)
	history := ok[api.HistoryResponse](t, m.call(FrameHistory, api.HistoryRequest{ConnectionID: connID}))
	require.Len(t, history.Messages, 1)
}

func TestGateway_Rejects_Missing_Token(t *testing.T) {
	f := startGateway(t, nil)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	req := require.New(t)
	f := startGateway(t, nil)
	f.monitoring.Update(domain.RuntimeHealth{PID: 42, Channels: 3})

	resp, err := http.Get(f.server.URL + "/healthz")
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
	var body health
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.Equal("ok", body.Status)
	req.Equal(int32(42), body.Runtime.PID)
	req.Equal(3, body.Runtime.Channels)
}
