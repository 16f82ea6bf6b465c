package main

import (
	"context"
	"log"

	"github.com/p1nk23/TgBot/internal/client/cli"
	"github.com/p1nk23/TgBot/internal/client/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
