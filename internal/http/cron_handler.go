package http

import (
	"context"
	"net/http"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/internal/http/middleware"
	"github.com/signalforge/signalforge/internal/service"
	"github.com/signalforge/signalforge/pkg/logger"
)

// MaintenanceRunner runs one maintenance cycle on demand.
type MaintenanceRunner interface {
	RunCycle(ctx context.Context) *service.MaintenanceReport
}

// JobProcessor drains due sync jobs on demand.
type JobProcessor interface {
	ProcessPendingJobs(ctx context.Context) (int, error)
}

// CronHandler exposes the periodic work as an HTTP trigger so deployments
// without long-lived workers can drive the system from an external cron.
type CronHandler struct {
	maintenance MaintenanceRunner
	worker      JobProcessor
	verifier    domain.APIKeyVerifier
	logger      logger.Logger
}

func NewCronHandler(maintenance MaintenanceRunner, worker JobProcessor, verifier domain.APIKeyVerifier, logger logger.Logger) *CronHandler {
	return &CronHandler{
		maintenance: maintenance,
		worker:      worker,
		verifier:    verifier,
		logger:      logger,
	}
}

// RegisterRoutes registers the cron HTTP endpoint
func (h *CronHandler) RegisterRoutes(mux *http.ServeMux) {
	apiKey := middleware.NewAPIKeyMiddleware(h.verifier)

	mux.Handle("/api/cron.run", apiKey.RequireScope(domain.ScopeCron)(http.HandlerFunc(h.Run)))
}

// POST /api/cron.run - runs one maintenance cycle and drains due sync jobs
func (h *CronHandler) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := h.maintenance.RunCycle(r.Context())

	processed, err := h.worker.ProcessPendingJobs(r.Context())
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to process sync jobs from cron")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report":         report,
		"jobs_processed": processed,
	})
}
