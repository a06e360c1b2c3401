package server

import (
	"context"
	"log/slog"
	"time"

	"outmentor/auth"
	"outmentor/domain"
	"outmentor/errors"
	"outmentor/infrastructure/api"
	_ "outmentor/infrastructure/grpc/codec"
	"outmentor/services"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MatchmakingServer serves one session per call, bound to the profile id the auth interceptors verified.
type MatchmakingServer struct {
	log       *slog.Logger
	services  services.Services
	heartbeat time.Duration
}

var _ api.MatchmakingServer = (*MatchmakingServer)(nil)

const defaultHeartbeat = 30 * time.Second

func NewMatchmakingServer(log *slog.Logger, services services.Services, heartbeat time.Duration) *MatchmakingServer {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &MatchmakingServer{log: log, services: services, heartbeat: heartbeat}
}

func (s *MatchmakingServer) session(ctx context.Context) (*services.Session, error) {
	profileID, ok := auth.ProfileIDFrom(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no verified profile in context")
	}
	return s.services.NewSession(profileID), nil
}

func (s *MatchmakingServer) RegisterProfile(ctx context.Context, req *api.RegisterProfileRequest) (*api.ProfileResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := session.Register(ctx, api.ToProfile(req.Profile))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ProfileResponse{Profile: api.FromProfile(profile)}, nil
}

func (s *MatchmakingServer) GetProfile(ctx context.Context, req *api.GetProfileRequest) (*api.ProfileResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := session.Profile(ctx, req.ProfileID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ProfileResponse{Profile: api.FromProfile(profile)}, nil
}

func (s *MatchmakingServer) Search(ctx context.Context, req *api.SearchRequest) (*api.SearchResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := session.Search(ctx, req.Filter())
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.SearchResponse{Profiles: api.FromProfiles(profiles)}, nil
}

func (s *MatchmakingServer) Initiate(ctx context.Context, req *api.InitiateRequest) (*api.ConnectionResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := session.Initiate(ctx, req.TargetID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ConnectionResponse{Connection: api.FromConnection(conn)}, nil
}

func (s *MatchmakingServer) Respond(ctx context.Context, req *api.RespondRequest) (*api.ConnectionResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	id, err := api.ParseConnectionID(req.ConnectionID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	conn, err := session.Respond(ctx, id, req.Accept)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ConnectionResponse{Connection: api.FromConnection(conn)}, nil
}

func (s *MatchmakingServer) ListAccepted(ctx context.Context, _ *api.ListConnectionsRequest) (*api.ListConnectionsResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	views, err := session.ListAccepted(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ListConnectionsResponse{Connections: api.FromConnectionViews(views)}, nil
}

func (s *MatchmakingServer) ListPending(ctx context.Context, _ *api.ListConnectionsRequest) (*api.ListConnectionsResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	views, err := session.ListPending(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ListConnectionsResponse{Connections: api.FromConnectionViews(views)}, nil
}

// Send does not echo the message to the caller's stream itself: like every participant,
// the sender's sessions receive it through Subscribe, in sequence order.
func (s *MatchmakingServer) Send(ctx context.Context, req *api.SendRequest) (*api.MessageResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	id, err := api.ParseConnectionID(req.ConnectionID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	message, err := session.Send(ctx, id, req.Content)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.MessageResponse{Message: api.FromMessage(message)}, nil
}

func (s *MatchmakingServer) History(ctx context.Context, req *api.HistoryRequest) (*api.HistoryResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	id, err := api.ParseConnectionID(req.ConnectionID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	messages, err := session.History(ctx, id, req.AfterSeq)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.HistoryResponse{Messages: api.FromMessages(messages)}, nil
}

func (s *MatchmakingServer) ScheduleMeeting(ctx context.Context, req *api.ScheduleMeetingRequest) (*api.MeetingResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	id, err := api.ParseConnectionID(req.ConnectionID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	meeting, err := session.ScheduleMeeting(ctx, domain.ScheduleMeetingCommand{
		ConnectionID: id,
		Title:        req.Title,
		At:           req.At,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.MeetingResponse{Meeting: api.FromMeeting(meeting)}, nil
}

func (s *MatchmakingServer) ListMeetings(ctx context.Context, req *api.ListMeetingsRequest) (*api.ListMeetingsResponse, error) {
	session, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	id, err := api.ParseConnectionID(req.ConnectionID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	meetings, err := session.ListMeetings(ctx, id)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ListMeetingsResponse{Meetings: api.FromMeetings(meetings)}, nil
}

// Subscribe streams the backfill then live messages of a connection until the client leaves.
// Heartbeats keep the subscription away from the idle reaper while the stream is healthy.
// An idle or dropped feed ends the stream with Unavailable; the client subscribes again.
func (s *MatchmakingServer) Subscribe(req *api.SubscribeRequest, stream grpc.ServerStreamingServer[api.SubscribeEvent]) error {
	ctx := stream.Context()
	session, err := s.session(ctx)
	if err != nil {
		return err
	}
	id, err := api.ParseConnectionID(req.ConnectionID)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	feed, err := session.Open(ctx, id)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer session.Close()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Subscriber left", "profile", session.ProfileID(), "connection", id)
			return nil
		case message, ok := <-feed.Messages():
			if !ok {
				if err := feed.Err(); err != nil {
					s.log.Info("Feed ended", "profile", session.ProfileID(), "connection", id, "error", err)
					return errors.MapToGRPCError(err)
				}
				return nil
			}
			if err := stream.Send(&api.SubscribeEvent{Message: lo.ToPtr(api.FromMessage(message))}); err != nil {
				s.log.Error("failed to push event to stream",
					"profile", session.ProfileID(),
					"connection", id,
					"error", err)
				return err
			}
		case at := <-ticker.C:
			if err := stream.Send(&api.SubscribeEvent{Heartbeat: lo.ToPtr(at.UTC())}); err != nil {
				return err
			}
			feed.Touch()
		}
	}
}
