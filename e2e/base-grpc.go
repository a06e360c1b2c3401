package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"outmentor/auth"
	"outmentor/infrastructure/grpc/client"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config   Config
	verifier *auth.Verifier
}

// SetupSuite loads the environment configuration and skips without a target server
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("E2E_SERVER_ADDR not set")
	}
	s.Require().NotEmpty(s.Config.JWTSecret, "E2E_JWT_SECRET must match the server JWT_SECRET")
	s.verifier = auth.NewVerifier(s.Config.JWTSecret, s.Config.JWTIssuer)
}

// logCalls prints every unary call with its code and latency, and the bodies when E2E_DEBUG_JSON is set
func (s *BaseGrpcSuite) logCalls(t *testing.T) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)

		logBuilder := strings.Builder{}
		fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

		if s.Config.DebugJSON {
			body, _ := json.MarshalIndent(req, "", "  ")
			fmt.Fprintf(&logBuilder, "\nREQUEST:\n%s\n", body)
			if err != nil {
				fmt.Fprintln(&logBuilder, "ERROR:", err)
			} else {
				body, _ = json.MarshalIndent(reply, "", "  ")
				fmt.Fprintf(&logBuilder, "RESPONSE:\n%s\n", body)
			}
		}
		t.Log(logBuilder.String())
		return err
	}
}

// WithProfile provides a client authenticated as profileID within a contextual test step
func (s *BaseGrpcSuite) WithProfile(name, profileID string, fn func(ctx context.Context, c *client.Client)) {
	t := s.T()
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	token, err := s.verifier.Issue(profileID, time.Hour)
	s.Require().NoError(err)
	c, err := client.Dial(s.Config.ServerAddr, token, grpc.WithUnaryInterceptor(s.logCalls(t)))
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.ServerAddr)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fn(ctx, c)
}
