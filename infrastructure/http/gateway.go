package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"outmentor/auth"
	"outmentor/domain"
	"outmentor/errors"
	"outmentor/infrastructure/api"
	"outmentor/services"

	"github.com/gorilla/websocket"
)

// Frame types a client may send. Every one is answered by a frame carrying the same id and type,
// or by an error frame.
const (
	FrameRegister        = "register"
	FrameProfile         = "profile"
	FrameSearch          = "search"
	FrameInitiate        = "initiate"
	FrameRespond         = "respond"
	FrameListAccepted    = "list_accepted"
	FrameListPending     = "list_pending"
	FrameSend            = "send"
	FrameHistory         = "history"
	FrameScheduleMeeting = "schedule_meeting"
	FrameListMeetings    = "list_meetings"
	FrameOpen            = "open"
	FrameClose           = "close"
)

// Frame types pushed by the server.
const (
	FrameError   = "error"
	FrameMessage = "message"
	FrameClosed  = "closed"
)

type Frame struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *FrameFailure   `json:"error,omitempty"`
}

type FrameFailure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ClosedEvent tells the client a feed ended. Error is nil when the client closed or replaced it.
type ClosedEvent struct {
	ConnectionID string        `json:"connection_id"`
	Error        *FrameFailure `json:"error,omitempty"`
}

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 64 * 1024
	outboxSize   = 64
)

// Gateway upgrades authenticated requests and serves one session per socket.
type Gateway struct {
	log          *slog.Logger
	services     services.Services
	verifier     *auth.Verifier
	limiter      IRateLimiter
	upgrader     websocket.Upgrader
	pingInterval time.Duration
}

func NewGateway(log *slog.Logger, services services.Services, verifier *auth.Verifier, limiter IRateLimiter, pingInterval time.Duration) *Gateway {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if limiter == nil {
		limiter = NewMemoryRateLimiter(0, time.Minute)
	}
	return &Gateway{
		log:      log,
		services: services,
		verifier: verifier,
		limiter:  limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: pingInterval,
	}
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	profileID, err := g.verifier.Verify(bearerToken(r))
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "profile", profileID, "error", err)
		return
	}

	c := &client{
		gateway: g,
		ws:      ws,
		session: g.services.NewSession(profileID),
		log:     g.log.With("profile", profileID),
		out:     make(chan Frame, outboxSize),
		done:    make(chan struct{}),
	}
	c.log.Info("Websocket session opened")
	go c.writeLoop()
	c.readLoop(r.Context())
	c.shutdown()
	c.session.Close()
	c.log.Info("Websocket session closed")
}

type client struct {
	gateway *Gateway
	ws      *websocket.Conn
	session *services.Session
	log     *slog.Logger

	out  chan Frame
	done chan struct{}
	once sync.Once

	mu   sync.Mutex
	feed *services.Feed
}

func (c *client) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// push queues f for the writer; it gives up once the socket is gone.
func (c *client) push(f Frame) {
	select {
	case c.out <- f:
	case <-c.done:
	}
}

func (c *client) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.feed != nil {
		c.feed.Touch()
	}
}

func (c *client) pongWait() time.Duration {
	return 2 * c.gateway.pingInterval
}

func (c *client) readLoop(ctx context.Context) {
	c.ws.SetReadLimit(maxFrameSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.ws.SetPongHandler(func(string) error {
		c.touch()
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		var in Frame
		if err := c.ws.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("websocket read failed", "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait()))
		c.push(c.reply(ctx, in))
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(c.gateway.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case f := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(f); err != nil {
				c.log.Warn("websocket send failed", "type", f.Type, "error", err)
				c.shutdown()
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.shutdown()
				return
			}
		}
	}
}

func failure(err error) *FrameFailure {
	return &FrameFailure{Kind: errors.Kind(err), Message: err.Error()}
}

func (c *client) reply(ctx context.Context, in Frame) Frame {
	result, err := c.dispatch(ctx, in)
	if err != nil {
		c.log.Debug("frame refused", "id", in.ID, "type", in.Type, "error", err)
		return Frame{ID: in.ID, Type: FrameError, Error: failure(err)}
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return Frame{ID: in.ID, Type: FrameError, Error: failure(err)}
	}
	return Frame{ID: in.ID, Type: in.Type, Payload: payload}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: malformed payload: %v", errors.ErrInvalidArgument, err)
	}
	return v, nil
}

func (c *client) dispatch(ctx context.Context, in Frame) (any, error) {
	switch in.Type {
	case FrameRegister:
		req, err := decode[api.RegisterProfileRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		profile, err := c.session.Register(ctx, api.ToProfile(req.Profile))
		if err != nil {
			return nil, err
		}
		return api.ProfileResponse{Profile: api.FromProfile(profile)}, nil

	case FrameProfile:
		req, err := decode[api.GetProfileRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		profile, err := c.session.Profile(ctx, req.ProfileID)
		if err != nil {
			return nil, err
		}
		return api.ProfileResponse{Profile: api.FromProfile(profile)}, nil

	case FrameSearch:
		req, err := decode[api.SearchRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		profiles, err := c.session.Search(ctx, req.Filter())
		if err != nil {
			return nil, err
		}
		return api.SearchResponse{Profiles: api.FromProfiles(profiles)}, nil

	case FrameInitiate:
		req, err := decode[api.InitiateRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		conn, err := c.session.Initiate(ctx, req.TargetID)
		if err != nil {
			return nil, err
		}
		return api.ConnectionResponse{Connection: api.FromConnection(conn)}, nil

	case FrameRespond:
		req, err := decode[api.RespondRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		id, err := api.ParseConnectionID(req.ConnectionID)
		if err != nil {
			return nil, err
		}
		conn, err := c.session.Respond(ctx, id, req.Accept)
		if err != nil {
			return nil, err
		}
		return api.ConnectionResponse{Connection: api.FromConnection(conn)}, nil

	case FrameListAccepted:
		views, err := c.session.ListAccepted(ctx)
		if err != nil {
			return nil, err
		}
		return api.ListConnectionsResponse{Connections: api.FromConnectionViews(views)}, nil

	case FrameListPending:
		views, err := c.session.ListPending(ctx)
		if err != nil {
			return nil, err
		}
		return api.ListConnectionsResponse{Connections: api.FromConnectionViews(views)}, nil

	case FrameSend:
		req, err := decode[api.SendRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		id, err := api.ParseConnectionID(req.ConnectionID)
		if err != nil {
			return nil, err
		}
		if !c.gateway.limiter.Allow(ctx, "send:"+c.session.ProfileID()) {
			return nil, fmt.Errorf("%w: too many messages, slow down", errors.ErrResourceExhausted)
		}
		message, err := c.session.Send(ctx, id, req.Content)
		if err != nil {
			return nil, err
		}
		return api.MessageResponse{Message: api.FromMessage(message)}, nil

	case FrameHistory:
		req, err := decode[api.HistoryRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		id, err := api.ParseConnectionID(req.ConnectionID)
		if err != nil {
			return nil, err
		}
		messages, err := c.session.History(ctx, id, req.AfterSeq)
		if err != nil {
			return nil, err
		}
		return api.HistoryResponse{Messages: api.FromMessages(messages)}, nil

	case FrameScheduleMeeting:
		req, err := decode[api.ScheduleMeetingRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		id, err := api.ParseConnectionID(req.ConnectionID)
		if err != nil {
			return nil, err
		}
		meeting, err := c.session.ScheduleMeeting(ctx, domain.ScheduleMeetingCommand{
			ConnectionID: id,
			Title:        req.Title,
			At:           req.At,
		})
		if err != nil {
			return nil, err
		}
		return api.MeetingResponse{Meeting: api.FromMeeting(meeting)}, nil

	case FrameListMeetings:
		req, err := decode[api.ListMeetingsRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		id, err := api.ParseConnectionID(req.ConnectionID)
		if err != nil {
			return nil, err
		}
		meetings, err := c.session.ListMeetings(ctx, id)
		if err != nil {
			return nil, err
		}
		return api.ListMeetingsResponse{Meetings: api.FromMeetings(meetings)}, nil

	case FrameOpen:
		req, err := decode[api.SubscribeRequest](in.Payload)
		if err != nil {
			return nil, err
		}
		id, err := api.ParseConnectionID(req.ConnectionID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		feed, err := c.session.Open(ctx, id)
		if err != nil {
			c.feed = nil
			c.mu.Unlock()
			return nil, err
		}
		c.feed = feed
		c.mu.Unlock()
		go c.forward(feed)
		return req, nil

	case FrameClose:
		c.mu.Lock()
		c.session.Close()
		c.feed = nil
		c.mu.Unlock()
		return struct{}{}, nil

	default:
		return nil, fmt.Errorf("%w: unknown frame type %q", errors.ErrInvalidArgument, in.Type)
	}
}

// forward pushes the messages of feed then a closed frame telling why it ended.
func (c *client) forward(feed *services.Feed) {
	for message := range feed.Messages() {
		payload, err := json.Marshal(api.FromMessage(message))
		if err != nil {
			c.log.Error("failed to encode message", "seq", message.Seq, "error", err)
			continue
		}
		c.push(Frame{Type: FrameMessage, Payload: payload})
	}

	closed := ClosedEvent{ConnectionID: feed.ConnectionID().String()}
	if err := feed.Err(); err != nil {
		c.log.Info("Feed ended", "connection", feed.ConnectionID(), "error", err)
		closed.Error = failure(err)
	}
	payload, _ := json.Marshal(closed)
	c.push(Frame{Type: FrameClosed, Payload: payload})
}
