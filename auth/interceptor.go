package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const ProfileIDKey contextKey = "profile_id"

// WithProfileID injects the verified caller identity for downstream layers.
func WithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, ProfileIDKey, profileID)
}

// ProfileIDFrom returns the caller identity put in ctx by a transport.
func ProfileIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ProfileIDKey).(string)
	return id, ok && id != ""
}

// UnaryInterceptor handles JWT validation for incoming unary calls.
func (v *Verifier) UnaryInterceptor(ctx context.Context, req any,
	_ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	newCtx, err := v.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(newCtx, req)
}

// StreamInterceptor does the same for server streams.
func (v *Verifier) StreamInterceptor(srv any, ss grpc.ServerStream,
	_ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	newCtx, err := v.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &authenticatedStream{ServerStream: ss, ctx: newCtx})
}

func (v *Verifier) authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}

	// Expecting the standard "Bearer <token>" format
	tokenStr := strings.TrimPrefix(values[0], "Bearer ")

	profileID, err := v.Verify(tokenStr)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return WithProfileID(ctx, profileID), nil
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}
