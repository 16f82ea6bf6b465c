package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/p1nk23/TgBot/internal/api"
	"github.com/p1nk23/TgBot/internal/client/client"
	"github.com/p1nk23/TgBot/internal/client/config"
)

type App struct {
	config  *config.Config
	client  client.Client
	timeout time.Duration
}

// NewApp connects to the server described by c. An empty session key is
// replaced by a random one so that two REPLs never share a session.
func NewApp(c *config.Config) (*App, error) {
	if c.SessionKey == "" {
		c.SessionKey = uuid.NewString()
	}

	apiClient, err := client.NewNodeKeeperClient(c.ServerEndpointAddr, c.AccessToken, c.SessionKey)
	if err != nil {
		return nil, err
	}

	return newApp(c, apiClient), nil
}

func newApp(c *config.Config, cl client.Client) *App {
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &App{config: c, client: cl, timeout: timeout}
}

// Run greets the user and reads commands from stdin until exit.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	printlnFn("Node keeper CLI (type 'help' for commands)")
	if a.config.AccessToken == "" {
		printlnFn("No access token configured; ask the operator for one and pass it with -t.")
	}

	a.send(ctx, &api.CommandRequest{Intent: "start"})

	runREPL(ctx, a, bufio.NewScanner(os.Stdin), isTerminal(int(os.Stdin.Fd())))
}

// send delivers req and prints the response. It reports whether the call
// succeeded.
func (a *App) send(ctx context.Context, req *api.CommandRequest) (*api.ViewResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.Send(ctx, req)
	if err != nil {
		printError(err)
		return nil, false
	}
	printView(resp)
	return resp, true
}

func printError(err error) {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		printlnFn("Not authorized: check the access token (-t).")
	case errors.Is(err, client.ErrUnavailable):
		printlnFn("Server unavailable, try again later.")
	default:
		printlnFn(fmt.Sprintf("Error: %v", err))
	}
}
