// Package grpc exposes the navigator over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/p1nk23/TgBot/internal/api"
	"github.com/p1nk23/TgBot/internal/logging"
	"github.com/p1nk23/TgBot/internal/server/navigation"
	"github.com/p1nk23/TgBot/internal/server/session"
	"google.golang.org/grpc"
)

// Navigator handles one classified command for a conversation.
type Navigator interface {
	Handle(ctx context.Context, key session.Key, in navigation.Intent) (*navigation.View, error)
}

// OwnerResolver maps an access token to an owner id.
type OwnerResolver interface {
	OwnerID(token string) (int64, error)
}

type GRPCServer struct {
	address   string
	navigator Navigator
	tokens    OwnerResolver
	logger    logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, nav Navigator, tokens OwnerResolver) *GRPCServer {
	if l == nil {
		l = logging.Nop{}
	}
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		navigator: nav,
		tokens:    tokens,
	}
}

// newServer builds the grpc.Server with the service and interceptor
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	api.RegisterNodeKeeperServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
