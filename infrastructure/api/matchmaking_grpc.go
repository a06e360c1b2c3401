package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "outmentor.v1.Matchmaking"

const (
	Matchmaking_RegisterProfile_FullMethodName = "/outmentor.v1.Matchmaking/RegisterProfile"
	Matchmaking_GetProfile_FullMethodName      = "/outmentor.v1.Matchmaking/GetProfile"
	Matchmaking_Search_FullMethodName          = "/outmentor.v1.Matchmaking/Search"
	Matchmaking_Initiate_FullMethodName        = "/outmentor.v1.Matchmaking/Initiate"
	Matchmaking_Respond_FullMethodName         = "/outmentor.v1.Matchmaking/Respond"
	Matchmaking_ListAccepted_FullMethodName    = "/outmentor.v1.Matchmaking/ListAccepted"
	Matchmaking_ListPending_FullMethodName     = "/outmentor.v1.Matchmaking/ListPending"
	Matchmaking_Send_FullMethodName            = "/outmentor.v1.Matchmaking/Send"
	Matchmaking_History_FullMethodName         = "/outmentor.v1.Matchmaking/History"
	Matchmaking_ScheduleMeeting_FullMethodName = "/outmentor.v1.Matchmaking/ScheduleMeeting"
	Matchmaking_ListMeetings_FullMethodName    = "/outmentor.v1.Matchmaking/ListMeetings"
	Matchmaking_Subscribe_FullMethodName       = "/outmentor.v1.Matchmaking/Subscribe"
)

// MatchmakingServer is the server API of outmentor.v1.Matchmaking.
type MatchmakingServer interface {
	RegisterProfile(context.Context, *RegisterProfileRequest) (*ProfileResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	Initiate(context.Context, *InitiateRequest) (*ConnectionResponse, error)
	Respond(context.Context, *RespondRequest) (*ConnectionResponse, error)
	ListAccepted(context.Context, *ListConnectionsRequest) (*ListConnectionsResponse, error)
	ListPending(context.Context, *ListConnectionsRequest) (*ListConnectionsResponse, error)
	Send(context.Context, *SendRequest) (*MessageResponse, error)
	History(context.Context, *HistoryRequest) (*HistoryResponse, error)
	ScheduleMeeting(context.Context, *ScheduleMeetingRequest) (*MeetingResponse, error)
	ListMeetings(context.Context, *ListMeetingsRequest) (*ListMeetingsResponse, error)
	Subscribe(*SubscribeRequest, grpc.ServerStreamingServer[SubscribeEvent]) error
}

func RegisterMatchmakingServer(s grpc.ServiceRegistrar, srv MatchmakingServer) {
	s.RegisterService(&Matchmaking_ServiceDesc, srv)
}

// unary builds the handler of one unary method; the codec decodes the request into a fresh Req.
func unary[Req any, Res any](fullMethod string, call func(MatchmakingServer, context.Context, *Req) (*Res, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MatchmakingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MatchmakingServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _Matchmaking_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(MatchmakingServer).Subscribe(m, &grpc.GenericServerStream[SubscribeRequest, SubscribeEvent]{ServerStream: stream})
}

var Matchmaking_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchmakingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterProfile", Handler: unary(Matchmaking_RegisterProfile_FullMethodName, MatchmakingServer.RegisterProfile)},
		{MethodName: "GetProfile", Handler: unary(Matchmaking_GetProfile_FullMethodName, MatchmakingServer.GetProfile)},
		{MethodName: "Search", Handler: unary(Matchmaking_Search_FullMethodName, MatchmakingServer.Search)},
		{MethodName: "Initiate", Handler: unary(Matchmaking_Initiate_FullMethodName, MatchmakingServer.Initiate)},
		{MethodName: "Respond", Handler: unary(Matchmaking_Respond_FullMethodName, MatchmakingServer.Respond)},
		{MethodName: "ListAccepted", Handler: unary(Matchmaking_ListAccepted_FullMethodName, MatchmakingServer.ListAccepted)},
		{MethodName: "ListPending", Handler: unary(Matchmaking_ListPending_FullMethodName, MatchmakingServer.ListPending)},
		{MethodName: "Send", Handler: unary(Matchmaking_Send_FullMethodName, MatchmakingServer.Send)},
		{MethodName: "History", Handler: unary(Matchmaking_History_FullMethodName, MatchmakingServer.History)},
		{MethodName: "ScheduleMeeting", Handler: unary(Matchmaking_ScheduleMeeting_FullMethodName, MatchmakingServer.ScheduleMeeting)},
		{MethodName: "ListMeetings", Handler: unary(Matchmaking_ListMeetings_FullMethodName, MatchmakingServer.ListMeetings)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _Matchmaking_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "outmentor/v1/matchmaking.json",
}

// MatchmakingClient is the client API of outmentor.v1.Matchmaking.
// The connection must use the json content-subtype.
type MatchmakingClient struct {
	cc grpc.ClientConnInterface
}

func NewMatchmakingClient(cc grpc.ClientConnInterface) *MatchmakingClient {
	return &MatchmakingClient{cc: cc}
}

func invoke[Res any](ctx context.Context, c *MatchmakingClient, method string, in any, opts ...grpc.CallOption) (*Res, error) {
	out := new(Res)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MatchmakingClient) RegisterProfile(ctx context.Context, in *RegisterProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c, Matchmaking_RegisterProfile_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c, Matchmaking_GetProfile_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, c, Matchmaking_Search_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) Initiate(ctx context.Context, in *InitiateRequest, opts ...grpc.CallOption) (*ConnectionResponse, error) {
	return invoke[ConnectionResponse](ctx, c, Matchmaking_Initiate_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) Respond(ctx context.Context, in *RespondRequest, opts ...grpc.CallOption) (*ConnectionResponse, error) {
	return invoke[ConnectionResponse](ctx, c, Matchmaking_Respond_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) ListAccepted(ctx context.Context, in *ListConnectionsRequest, opts ...grpc.CallOption) (*ListConnectionsResponse, error) {
	return invoke[ListConnectionsResponse](ctx, c, Matchmaking_ListAccepted_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) ListPending(ctx context.Context, in *ListConnectionsRequest, opts ...grpc.CallOption) (*ListConnectionsResponse, error) {
	return invoke[ListConnectionsResponse](ctx, c, Matchmaking_ListPending_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) Send(ctx context.Context, in *SendRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c, Matchmaking_Send_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) History(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c, Matchmaking_History_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) ScheduleMeeting(ctx context.Context, in *ScheduleMeetingRequest, opts ...grpc.CallOption) (*MeetingResponse, error) {
	return invoke[MeetingResponse](ctx, c, Matchmaking_ScheduleMeeting_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) ListMeetings(ctx context.Context, in *ListMeetingsRequest, opts ...grpc.CallOption) (*ListMeetingsResponse, error) {
	return invoke[ListMeetingsResponse](ctx, c, Matchmaking_ListMeetings_FullMethodName, in, opts...)
}

func (c *MatchmakingClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[SubscribeEvent], error) {
	stream, err := c.cc.NewStream(ctx, &Matchmaking_ServiceDesc.Streams[0], Matchmaking_Subscribe_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, SubscribeEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
