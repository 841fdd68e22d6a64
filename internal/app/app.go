package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/signalforge/signalforge/config"
	"github.com/signalforge/signalforge/internal/database"
	"github.com/signalforge/signalforge/internal/domain"
	httpHandler "github.com/signalforge/signalforge/internal/http"
	"github.com/signalforge/signalforge/internal/http/middleware"
	"github.com/signalforge/signalforge/internal/repository"
	"github.com/signalforge/signalforge/internal/service"
	"github.com/signalforge/signalforge/pkg/logger"

	"contrib.go.opencensus.io/integrations/ocsql"
)

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB

	// Repository getters for testing
	GetIdentityRepository() domain.IdentityRepository
	GetEventRepository() domain.EventRepository
	GetSyncJobRepository() domain.SyncJobRepository
	GetDestinationRepository() domain.DestinationRepository

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitDB() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config     *config.Config
	logger     logger.Logger
	db         *sql.DB
	httpClient domain.HTTPClient

	// Repositories
	identityRepo     domain.IdentityRepository
	identityLinkRepo domain.IdentityLinkRepository
	eventRepo        domain.EventRepository
	syncJobRepo      domain.SyncJobRepository
	destinationRepo  domain.DestinationRepository

	// Services
	apiKeyService      *service.APIKeyService
	resolverService    *service.IdentityResolverService
	signalService      *service.SignalService
	schedulerService   *service.SyncSchedulerService
	ingestService      *service.IngestService
	klaviyoService     *service.KlaviyoService
	syncWorker         *service.SyncWorker
	maintenanceService *service.MaintenanceService

	// HTTP handlers
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64
	requestWg       sync.WaitGroup
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithHTTPClient configures the app to use a custom destination HTTP client
func WithHTTPClient(client domain.HTTPClient) AppOption {
	return func(a *App) {
		a.httpClient = client
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitDB initializes the database connection
func (a *App) InitDB() error {
	// Skip if already set (e.g., by mock)
	if a.db != nil {
		return nil
	}

	password := a.config.Database.Password
	maskedPassword := ""
	if len(password) > 0 {
		maskedPassword = fmt.Sprintf("%c...%c", password[0], password[len(password)-1])
	}
	a.logger.Info(fmt.Sprintf("Connecting to database %s:%d, user %s, sslmode %s, password: %s, dbname: %s",
		a.config.Database.Host, a.config.Database.Port, a.config.Database.User, a.config.Database.SSLMode, maskedPassword, a.config.Database.DBName))

	// If tracing is enabled, wrap the postgres driver
	driverName := "postgres"
	if a.config.TracingEnabled {
		var err error
		driverName, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
		if err != nil {
			return fmt.Errorf("failed to register opencensus sql driver: %w", err)
		}
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	db, err := sql.Open(driverName, database.GetDSN(&a.config.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize database schema if needed
	if err := database.InitializeDatabase(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	maxOpen, maxIdle, maxLifetime := database.GetConnectionPoolSettings()
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	a.db = db
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	a.identityRepo = repository.NewIdentityRepository(a.db)
	a.identityLinkRepo = repository.NewIdentityLinkRepository(a.db)
	a.eventRepo = repository.NewEventRepository(a.db)
	a.syncJobRepo = repository.NewSyncJobRepository(a.db)
	a.destinationRepo = repository.NewDestinationRepository(a.db)

	return nil
}

// InitServices initializes all application services
func (a *App) InitServices() error {
	a.apiKeyService = service.NewAPIKeyService(a.config.Ingest.APIKeys)

	a.resolverService = service.NewIdentityResolverService(a.identityRepo, a.identityLinkRepo, a.logger)
	a.signalService = service.NewSignalService(a.identityRepo, a.eventRepo, a.logger)
	a.schedulerService = service.NewSyncSchedulerService(
		a.destinationRepo,
		a.syncJobRepo,
		a.config.Sync.MaxAttempts,
		a.logger,
	)

	a.ingestService = service.NewIngestService(
		a.resolverService,
		a.identityRepo,
		a.eventRepo,
		a.signalService,
		a.schedulerService,
		a.config.Ingest.MaxPayloadBytes,
		a.config.Ingest.MaxNestingDepth,
		a.logger,
	)

	if a.httpClient == nil {
		a.httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	a.klaviyoService = service.NewKlaviyoService(a.httpClient, a.logger)

	a.syncWorker = service.NewSyncWorker(
		a.syncJobRepo,
		a.identityRepo,
		a.eventRepo,
		a.destinationRepo,
		a.klaviyoService,
		a.config.Sync.PollInterval,
		a.config.Sync.BatchSize,
		a.config.Sync.DestinationTimeout,
		a.logger,
	)

	a.maintenanceService = service.NewMaintenanceService(
		a.identityRepo,
		a.eventRepo,
		a.destinationRepo,
		a.signalService,
		a.schedulerService,
		a.klaviyoService,
		a.logger,
	)

	return nil
}

// InitHandlers initializes all HTTP handlers and routes
func (a *App) InitHandlers() error {
	// Create a new ServeMux to avoid route conflicts on restart
	a.mux = http.NewServeMux()

	ingestHandler := httpHandler.NewIngestHandler(a.ingestService, a.apiKeyService, a.logger)
	cronHandler := httpHandler.NewCronHandler(a.maintenanceService, a.syncWorker, a.apiKeyService, a.logger)

	ingestHandler.RegisterRoutes(a.mux)
	cronHandler.RegisterRoutes(a.mux)

	return nil
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting SignalForge application")

	if err := a.InitDB(); err != nil {
		return err
	}

	if err := a.InitRepositories(); err != nil {
		return err
	}

	if err := a.InitServices(); err != nil {
		return err
	}

	if err := a.InitHandlers(); err != nil {
		return err
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

// Start starts the HTTP server plus the background sync and maintenance loops
func (a *App) Start() error {
	var handler http.Handler = a.mux

	// Apply graceful shutdown middleware first (outermost)
	handler = a.gracefulShutdownMiddleware(handler)

	if a.config.TracingEnabled {
		handler = middleware.TracingMiddleware(handler)
		a.logger.Info("OpenCensus tracing middleware enabled")
	}

	handler = middleware.CORSMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).Info("Server starting")

	a.serverMu.Lock()
	if a.serverStarted != nil {
		close(a.serverStarted)
	}
	a.serverStarted = make(chan struct{})

	a.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	close(serverStarted)

	// Background loops stop when the shutdown context is cancelled.
	go a.syncWorker.Start(a.shutdownCtx)
	go a.maintenanceService.Start(a.shutdownCtx, a.config.Sync.MaintenanceEvery)

	return a.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and background loops
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	// Signal shutdown to the worker and maintenance loops
	a.shutdownCancel()

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources()
	}

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithField("error", err.Error()).Error("HTTP server shutdown failed")
		shutdownErr = err
	}

	// Give in-flight requests a moment to drain
	done := make(chan struct{})
	go func() {
		a.requestWg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		if active := a.getActiveRequestCount(); active > 0 {
			a.logger.WithField("active_requests", active).Warn("Some requests still active, proceeding with shutdown")
		}
	}

	if cleanupErr := a.cleanupResources(); cleanupErr != nil {
		if shutdownErr == nil {
			shutdownErr = cleanupErr
		}
	}

	if shutdownErr == nil {
		a.logger.Info("Graceful shutdown completed successfully")
	}
	return shutdownErr
}

// cleanupResources handles cleanup of database and other resources
func (a *App) cleanupResources() error {
	if a.db != nil {
		if a.config.TracingEnabled {
			stopStats := ocsql.RecordStats(a.db, 5*time.Second)
			stopStats()
		}

		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			return err
		}
	}
	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created and initialized.
// Returns true if the server started successfully, false if context expired.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		a.logger.Error("serverStarted channel is nil - server initialization error")
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the app's logger
func (a *App) GetLogger() logger.Logger {
	return a.logger
}

// GetMux returns the app's HTTP multiplexer
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the app's database connection
func (a *App) GetDB() *sql.DB {
	return a.db
}

// Repository getters for testing
func (a *App) GetIdentityRepository() domain.IdentityRepository {
	return a.identityRepo
}

func (a *App) GetEventRepository() domain.EventRepository {
	return a.eventRepo
}

func (a *App) GetSyncJobRepository() domain.SyncJobRepository {
	return a.syncJobRepo
}

func (a *App) GetDestinationRepository() domain.DestinationRepository {
	return a.destinationRepo
}

// incrementActiveRequests atomically increments the active request counter
func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

// decrementActiveRequests atomically decrements the active request counter
func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

// getActiveRequestCount returns the current number of active requests
func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
}

// GetShutdownContext returns the shutdown context for components that need
// to watch for shutdown
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

// isShuttingDown returns true if the application is in shutdown mode
func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware wraps HTTP handlers to track active requests
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		next.ServeHTTP(w, r)
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
