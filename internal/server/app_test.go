package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/p1nk23/TgBot/internal/dbx"
	"github.com/p1nk23/TgBot/internal/server/config"
	"github.com/p1nk23/TgBot/internal/server/repositories/nodes"
	"github.com/p1nk23/TgBot/internal/server/repositories/nodes/nodestest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepoManager struct {
	migrateErr error
	migrated   bool
}

func (f *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	f.migrated = true
	return f.migrateErr
}

func (f *fakeRepoManager) Nodes(db dbx.DBTX) nodes.Repository {
	return nodestest.NewMemoryRepository()
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.SessionIdleTimeout = time.Minute
	return c
}

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	orig := openDB
	openDB = func(string) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = orig })
	return mock
}

func TestNewApp_OpenError(t *testing.T) {
	orig := openDB
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("no driver") }
	t.Cleanup(func() { openDB = orig })

	_, err := NewApp(context.Background(), testConfig(), nil, &fakeRepoManager{})
	require.ErrorContains(t, err, "db init error")
}

func TestNewApp_MigrationError(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectClose()

	rm := &fakeRepoManager{migrateErr: errors.New("boom")}
	_, err := NewApp(context.Background(), testConfig(), nil, rm)
	require.ErrorContains(t, err, "migrations error")
	assert.True(t, rm.migrated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectClose()

	cfg := testConfig()
	cfg.S3BaseEndpoint = ""

	app, err := NewApp(context.Background(), cfg, nil, &fakeRepoManager{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunReturnsServerError(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectClose()

	cfg := testConfig()
	cfg.EndpointAddrGRPC = "127.0.0.1:99999"

	app, err := NewApp(context.Background(), cfg, nil, &fakeRepoManager{})
	require.NoError(t, err)

	select {
	case err := <-runAsync(app):
		assert.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not fail on bad address")
	}
}

func runAsync(app *App) <-chan error {
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()
	return done
}
