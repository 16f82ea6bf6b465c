// Package server wires configuration, storage, the navigator and the gRPC
// transport into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/p1nk23/TgBot/internal/logging"
	"github.com/p1nk23/TgBot/internal/server/config"
	"github.com/p1nk23/TgBot/internal/server/media"
	"github.com/p1nk23/TgBot/internal/server/navigation"
	"github.com/p1nk23/TgBot/internal/server/repositories/repomanager"
	"github.com/p1nk23/TgBot/internal/server/services"
	"github.com/p1nk23/TgBot/internal/server/session"
	"golang.org/x/sync/errgroup"

	gs "github.com/p1nk23/TgBot/internal/server/grpc"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	sessions   *session.Store
	grpcServer *gs.GRPCServer
}

// NewApp opens the database, applies migrations and builds every service.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) (*App, error) {
	if logger == nil {
		logger = logging.Nop{}
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(c.DBMaxOpenConns)
	db.SetMaxIdleConns(c.DBMaxIdleConns)
	db.SetConnMaxLifetime(c.DBConnMaxLifetime)

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	nodeService := services.NewNodeService(db, rm, logger)
	sessions := session.NewStore(c.SessionIdleTimeout, logger)

	var linker navigation.MediaLinker
	if c.S3BaseEndpoint != "" {
		l, err := media.NewS3Linker(ctx, c)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("media init error: %w", err)
		}
		linker = l
	} else {
		logger.Warn(ctx, "object storage not configured, attachments are served without links")
	}

	nav := navigation.NewNavigator(nodeService, sessions, linker, c.MessageLimit, logger)
	tokens := services.NewTokenService(c)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		sessions:   sessions,
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, nav, tokens),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves until ctx is cancelled, a signal arrives or a component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.grpcServer.Run(gctx)
	})
	g.Go(func() error {
		return app.sessions.Run(gctx)
	})

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
