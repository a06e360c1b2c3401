package services

import (
	"context"
	"log/slog"
	"sync"

	"outmentor/contract"
	"outmentor/domain"
	"outmentor/domain/search"
	"outmentor/errors"

	"github.com/google/uuid"
)

// Services groups what a session needs; transports build one session per client from it.
type Services struct {
	Log         *slog.Logger
	Directory   IDirectoryService
	Connections IConnectionService
	Channel     IChannelService
	Meetings    IMeetingService
}

func (s Services) NewSession(profileID string) *Session {
	return &Session{
		profileID: profileID,
		services:  s,
		log:       s.Log.With("profile", profileID),
	}
}

// Session is the view of one client. It holds at most one live feed.
// Errors of the underlying services are returned unchanged.
type Session struct {
	profileID string
	services  Services
	log       *slog.Logger

	mu   sync.Mutex
	feed *Feed
}

func (s *Session) ProfileID() string {
	return s.profileID
}

func (s *Session) Register(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	return s.services.Directory.Register(ctx, s.profileID, profile)
}

func (s *Session) Profile(ctx context.Context, profileID string) (domain.Profile, error) {
	if profileID == "" {
		profileID = s.profileID
	}
	return s.services.Directory.Get(ctx, profileID)
}

func (s *Session) Search(ctx context.Context, filter search.Filter) ([]domain.Profile, error) {
	return s.services.Directory.Search(ctx, s.profileID, filter)
}

func (s *Session) Initiate(ctx context.Context, targetID string) (domain.Connection, error) {
	return s.services.Connections.Initiate(ctx, s.profileID, targetID)
}

func (s *Session) Respond(ctx context.Context, connectionID uuid.UUID, accept bool) (domain.Connection, error) {
	return s.services.Connections.Respond(ctx, connectionID, s.profileID, accept)
}

func (s *Session) ListAccepted(ctx context.Context) ([]domain.ConnectionView, error) {
	return s.services.Connections.ListAccepted(ctx, s.profileID)
}

func (s *Session) ListPending(ctx context.Context) ([]domain.ConnectionView, error) {
	return s.services.Connections.ListPending(ctx, s.profileID)
}

func (s *Session) Send(ctx context.Context, connectionID uuid.UUID, text string) (domain.Message, error) {
	return s.services.Channel.Send(ctx, domain.SendMessageCommand{
		ConnectionID: connectionID,
		SenderID:     s.profileID,
		Content:      text,
	})
}

func (s *Session) History(ctx context.Context, connectionID uuid.UUID, afterSeq uint64) ([]domain.Message, error) {
	return s.services.Channel.History(ctx, connectionID, s.profileID, afterSeq)
}

func (s *Session) ScheduleMeeting(ctx context.Context, cmd domain.ScheduleMeetingCommand) (domain.Meeting, error) {
	cmd.RequesterID = s.profileID
	return s.services.Meetings.Schedule(ctx, cmd)
}

func (s *Session) ListMeetings(ctx context.Context, connectionID uuid.UUID) ([]domain.Meeting, error) {
	return s.services.Meetings.List(ctx, connectionID, s.profileID)
}

// Open replaces the live feed of the session. The previous feed is released before subscribing.
func (s *Session) Open(ctx context.Context, connectionID uuid.UUID) (*Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.feed != nil {
		s.feed.stop()
		s.feed = nil
	}

	sub, err := s.services.Channel.Subscribe(ctx, connectionID, s.profileID)
	if err != nil {
		return nil, err
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	f := &Feed{
		connectionID: connectionID,
		session:      s,
		sub:          sub,
		out:          make(chan domain.Message),
		done:         make(chan struct{}),
		cancel:       cancel,
	}
	go f.run(feedCtx)
	s.feed = f
	return f, nil
}

// Close ends the live feed, if any. Calling it twice is harmless.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feed != nil {
		s.feed.stop()
		s.feed = nil
	}
}

// Feed is the session-level message stream of one connection.
// It survives overflow drops by subscribing again and skipping what it already delivered.
// Messages is closed when the feed ends; Err then tells why, nil meaning it was closed by the session.
type Feed struct {
	connectionID uuid.UUID
	session      *Session
	out          chan domain.Message
	done         chan struct{}
	cancel       context.CancelFunc

	mu  sync.Mutex
	sub contract.ISubscription
	err error
}

func (f *Feed) ConnectionID() uuid.UUID { return f.connectionID }

func (f *Feed) Messages() <-chan domain.Message { return f.out }

func (f *Feed) Done() <-chan struct{} { return f.done }

func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Touch forwards transport activity, such as a heartbeat, to the current subscription.
func (f *Feed) Touch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sub.Touch()
}

func (f *Feed) stop() {
	f.cancel()
	<-f.done
}

func (f *Feed) current() contract.ISubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub
}

func (f *Feed) run(ctx context.Context) {
	defer func() {
		close(f.out)
		close(f.done)
	}()

	var last uint64
	for {
		sub := f.current()
		if !f.drain(ctx, sub, &last) {
			sub.Cancel()
			return
		}

		err := sub.Err()
		if !errors.Is(err, errors.ErrResourceExhausted) {
			f.fail(err)
			return
		}

		f.session.log.Warn("Feed dropped by the hub, subscribing again",
			"connection", f.connectionID, "last_seq", last, "error", err)
		next, err := f.session.services.Channel.Subscribe(ctx, f.connectionID, f.session.profileID)
		if err != nil {
			if ctx.Err() == nil {
				f.fail(err)
			}
			return
		}
		f.mu.Lock()
		f.sub = next
		f.mu.Unlock()
	}
}

// drain forwards sub until it ends. It returns false when the feed itself is stopped.
func (f *Feed) drain(ctx context.Context, sub contract.ISubscription, last *uint64) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case message, ok := <-sub.Messages():
			if !ok {
				return true
			}
			if message.Seq <= *last {
				continue
			}
			select {
			case f.out <- message:
				*last = message.Seq
			case <-ctx.Done():
				return false
			}
		}
	}
}
