package http

import (
	"encoding/json"
	"net/http"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/internal/http/middleware"
	"github.com/signalforge/signalforge/pkg/logger"
)

type IngestHandler struct {
	service  domain.IngestService
	verifier domain.APIKeyVerifier
	logger   logger.Logger
}

func NewIngestHandler(service domain.IngestService, verifier domain.APIKeyVerifier, logger logger.Logger) *IngestHandler {
	return &IngestHandler{
		service:  service,
		verifier: verifier,
		logger:   logger,
	}
}

// RegisterRoutes registers the ingestion HTTP endpoints
func (h *IngestHandler) RegisterRoutes(mux *http.ServeMux) {
	apiKey := middleware.NewAPIKeyMiddleware(h.verifier)

	mux.Handle("/api/ingest.track", apiKey.RequireScope(domain.ScopeTrack)(http.HandlerFunc(h.Track)))
	mux.Handle("/api/ingest.identify", apiKey.RequireScope(domain.ScopeIdentify)(http.HandlerFunc(h.Identify)))
}

// POST /api/ingest.track - records one event and resolves its identity
func (h *IngestHandler) Track(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to decode track request")
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ClientIP == "" {
		req.ClientIP = clientIP(r)
	}
	if req.UserAgent == "" {
		req.UserAgent = r.UserAgent()
	}

	resp, err := h.service.Track(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, "Failed to track event", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /api/ingest.identify - binds identifiers to a unified identity
func (h *IngestHandler) Identify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.IdentifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to decode identify request")
		WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Identify(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, "Failed to identify", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *IngestHandler) writeServiceError(w http.ResponseWriter, fallback string, err error) {
	h.logger.WithField("error", err.Error()).Error(fallback)
	if _, ok := err.(domain.PayloadTooLargeError); ok {
		WriteJSONError(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if _, ok := err.(domain.ValidationError); ok {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	WriteJSONError(w, fallback, http.StatusInternalServerError)
}
