package app

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/signalforge/config"
	"github.com/signalforge/signalforge/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 18080 + (time.Now().Nanosecond() % 1000),
		},
		Ingest: config.IngestConfig{
			APIKeys:         map[string]string{"sk_test": "track|identify|cron"},
			MaxPayloadBytes: 10 * 1024,
			MaxNestingDepth: 10,
		},
		Sync: config.SyncConfig{
			PollInterval:       time.Minute,
			BatchSize:          50,
			MaxAttempts:        5,
			DestinationTimeout: 15 * time.Second,
			MaintenanceEvery:   time.Minute,
		},
		Environment: "test",
		LogLevel:    "error",
		Version:     "test",
	}
}

func newTestApp(t *testing.T) (AppInterface, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return NewApp(testConfig(),
		WithLogger(logger.NewTestLogger(t)),
		WithMockDB(db),
	), mock
}

func TestNewApp_Options(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	testLogger := logger.NewTestLogger(t)
	app := NewApp(testConfig(), WithLogger(testLogger), WithMockDB(db))

	assert.Equal(t, testLogger, app.GetLogger())
	assert.Equal(t, db, app.GetDB())
	assert.NotNil(t, app.GetConfig())
	assert.False(t, app.IsServerCreated())
	assert.Zero(t, app.GetActiveRequestCount())
}

func TestApp_Initialize(t *testing.T) {
	app, _ := newTestApp(t)

	require.NoError(t, app.Initialize())

	assert.NotNil(t, app.GetIdentityRepository())
	assert.NotNil(t, app.GetEventRepository())
	assert.NotNil(t, app.GetSyncJobRepository())
	assert.NotNil(t, app.GetDestinationRepository())
}

func TestApp_InitRepositoriesRequiresDB(t *testing.T) {
	app := NewApp(testConfig(), WithLogger(logger.NewTestLogger(t)))

	err := app.InitRepositories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database must be initialized")
}

func TestApp_InitHandlersRegistersRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	require.NoError(t, app.Initialize())

	for _, route := range []string{"/api/ingest.track", "/api/ingest.identify", "/api/cron.run"} {
		req, err := http.NewRequest(http.MethodPost, route, nil)
		require.NoError(t, err)

		_, pattern := app.GetMux().Handler(req)
		assert.Equal(t, route, pattern)
	}
}

func TestApp_ShutdownWithoutStart(t *testing.T) {
	app, mock := newTestApp(t)
	require.NoError(t, app.Initialize())

	mock.ExpectClose()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, app.Shutdown(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())

	// The shutdown context must be cancelled so background loops stop.
	select {
	case <-app.GetShutdownContext().Done():
	default:
		t.Fatal("shutdown context was not cancelled")
	}
}

func TestApp_StartAndShutdown(t *testing.T) {
	app, mock := newTestApp(t)
	require.NoError(t, app.Initialize())
	mock.ExpectClose()

	serverError := make(chan error, 1)
	go func() {
		serverError <- app.Start()
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	require.True(t, app.WaitForServerStart(waitCtx), "server did not start")

	// The server should answer while running.
	cfg := app.GetConfig()
	url := fmt.Sprintf("http://%s:%d/api/ingest.track", cfg.Server.Host, cfg.Server.Port)
	resp, err := http.Post(url, "application/json", nil)
	if err == nil {
		resp.Body.Close()
		// Missing API key is rejected before the body is read.
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Shutdown(ctx))

	select {
	case err := <-serverError:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestApp_WaitForServerStartTimesOut(t *testing.T) {
	app, _ := newTestApp(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.False(t, app.WaitForServerStart(ctx))
}

func TestApp_SetShutdownTimeout(t *testing.T) {
	app, mock := newTestApp(t)
	require.NoError(t, app.Initialize())
	mock.ExpectClose()

	app.SetShutdownTimeout(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, app.Shutdown(ctx))
}
