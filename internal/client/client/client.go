package client

import (
	"context"

	"github.com/p1nk23/TgBot/internal/api"
)

// Client is what the REPL needs from the backend.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Send(ctx context.Context, req *api.CommandRequest) (*api.ViewResponse, error)
}
