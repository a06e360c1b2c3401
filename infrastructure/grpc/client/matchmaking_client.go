package client

import (
	"context"
	"fmt"

	"outmentor/infrastructure/api"
	"outmentor/infrastructure/grpc/codec"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// bearer attaches the identity-provider token to every call.
type bearer string

func (b bearer) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (bearer) RequireTransportSecurity() bool {
	return false
}

// Client is a Matchmaking client speaking JSON on behalf of one profile.
type Client struct {
	*api.MatchmakingClient
	conn *grpc.ClientConn
}

// Dial does not block; the connection is established on the first call.
func Dial(target, token string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithPerRPCCredentials(bearer(token)),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codec.Name)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{MatchmakingClient: api.NewMatchmakingClient(conn), conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
