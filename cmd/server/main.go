package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/p1nk23/TgBot/internal/flagx"
	"github.com/p1nk23/TgBot/internal/logging"
	"github.com/p1nk23/TgBot/internal/server"
	"github.com/p1nk23/TgBot/internal/server/config"
	"github.com/p1nk23/TgBot/internal/server/repositories/repomanager"
	"github.com/p1nk23/TgBot/internal/server/services"
)

// issueTokenFlag returns the owner id passed via -issue-token, or 0.
func issueTokenFlag(args []string) (int64, error) {
	var ownerID int64

	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Int64Var(&ownerID, "issue-token", 0, "print an access token for the owner id and exit")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-issue-token"})); err != nil {
		return 0, err
	}
	return ownerID, nil
}

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	ownerID, err := issueTokenFlag(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}
	if ownerID != 0 {
		token, err := services.NewTokenService(cfg).Issue(ownerID)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(token)
		return
	}

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	app, err := server.NewApp(ctx, cfg, logger, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		log.Printf("%v", err)
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
