package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/signalforge/config"
	"github.com/signalforge/signalforge/internal/app"
	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/pkg/logger"
)

// stubApp implements app.AppInterface so runServer can be exercised without
// touching a real database or opening a port.
type stubApp struct {
	initErr  error
	startErr error
	stopErr  error

	started    chan struct{}
	shutdownCh chan struct{}

	initialized bool
	shutdownRun bool
}

func newStubApp() *stubApp {
	return &stubApp{
		started:    make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

func (s *stubApp) Initialize() error {
	if s.initErr != nil {
		return s.initErr
	}
	s.initialized = true
	return nil
}

func (s *stubApp) Start() error {
	close(s.started)
	if s.startErr != nil {
		return s.startErr
	}
	// Block like a real server until Shutdown is called.
	<-s.shutdownCh
	return http.ErrServerClosed
}

func (s *stubApp) Shutdown(ctx context.Context) error {
	s.shutdownRun = true
	close(s.shutdownCh)
	return s.stopErr
}

func (s *stubApp) GetConfig() *config.Config                   { return nil }
func (s *stubApp) GetLogger() logger.Logger                    { return nil }
func (s *stubApp) GetMux() *http.ServeMux                      { return nil }
func (s *stubApp) GetDB() *sql.DB                              { return nil }
func (s *stubApp) IsServerCreated() bool                       { return false }
func (s *stubApp) InitDB() error                               { return nil }
func (s *stubApp) InitRepositories() error                     { return nil }
func (s *stubApp) InitServices() error                         { return nil }
func (s *stubApp) InitHandlers() error                         { return nil }
func (s *stubApp) GetActiveRequestCount() int64                { return 0 }
func (s *stubApp) GetShutdownContext() context.Context         { return context.Background() }
func (s *stubApp) SetShutdownTimeout(timeout time.Duration)    {}
func (s *stubApp) WaitForServerStart(ctx context.Context) bool { return true }

func (s *stubApp) GetIdentityRepository() domain.IdentityRepository       { return nil }
func (s *stubApp) GetEventRepository() domain.EventRepository             { return nil }
func (s *stubApp) GetSyncJobRepository() domain.SyncJobRepository         { return nil }
func (s *stubApp) GetDestinationRepository() domain.DestinationRepository { return nil }

func withStubApp(t *testing.T, stub *stubApp) {
	t.Helper()
	original := newApp
	newApp = func(cfg *config.Config, opts ...app.AppOption) app.AppInterface {
		return stub
	}
	t.Cleanup(func() { newApp = original })
}

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "localhost", Port: 18080},
		LogLevel: "error",
	}
}

func TestRunServer_GracefulShutdown(t *testing.T) {
	stub := newStubApp()
	withStubApp(t, stub)

	// Intercept signal registration so the test can deliver the signal itself.
	var sigCh chan<- os.Signal
	originalNotify := signalNotify
	signalNotify = func(c chan<- os.Signal, sig ...os.Signal) {
		sigCh = c
	}
	t.Cleanup(func() { signalNotify = originalNotify })

	done := make(chan error, 1)
	go func() {
		done <- runServer(testConfig(), logger.NewTestLogger(t))
	}()

	select {
	case <-stub.started:
	case <-time.After(2 * time.Second):
		t.Fatal("server never started")
	}

	sigCh <- syscall.SIGTERM

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runServer did not return after shutdown signal")
	}

	assert.True(t, stub.initialized)
	assert.True(t, stub.shutdownRun)
}

func TestRunServer_InitializeFailure(t *testing.T) {
	stub := newStubApp()
	stub.initErr = errors.New("db unreachable")
	withStubApp(t, stub)

	err := runServer(testConfig(), logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db unreachable")
	assert.False(t, stub.shutdownRun)
}

func TestRunServer_StartFailure(t *testing.T) {
	stub := newStubApp()
	stub.startErr = errors.New("listen tcp: address already in use")
	withStubApp(t, stub)

	err := runServer(testConfig(), logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")
}

func TestRunServer_ShutdownError(t *testing.T) {
	stub := newStubApp()
	stub.stopErr = errors.New("drain timed out")
	withStubApp(t, stub)

	var sigCh chan<- os.Signal
	originalNotify := signalNotify
	signalNotify = func(c chan<- os.Signal, sig ...os.Signal) {
		sigCh = c
	}
	t.Cleanup(func() { signalNotify = originalNotify })

	done := make(chan error, 1)
	go func() {
		done <- runServer(testConfig(), logger.NewTestLogger(t))
	}()

	<-stub.started
	sigCh <- syscall.SIGTERM

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "drain timed out")
	case <-time.After(2 * time.Second):
		t.Fatal("runServer did not return")
	}
}
