package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalforge/signalforge/internal/domain"
	"github.com/signalforge/signalforge/internal/domain/mocks"
	"github.com/signalforge/signalforge/pkg/logger"
)

func setupIngestHandlerTest(t *testing.T) (*mocks.MockIngestService, *mocks.MockAPIKeyVerifier, *IngestHandler) {
	ctrl := gomock.NewController(t)
	t.Cleanup(func() { ctrl.Finish() })

	mockService := mocks.NewMockIngestService(ctrl)
	mockVerifier := mocks.NewMockAPIKeyVerifier(ctrl)
	handler := NewIngestHandler(mockService, mockVerifier, logger.NewTestLogger(t))
	return mockService, mockVerifier, handler
}

func TestIngestHandler_RegisterRoutes(t *testing.T) {
	_, _, handler := setupIngestHandlerTest(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	for _, endpoint := range []string{"/api/ingest.track", "/api/ingest.identify"} {
		h, _ := mux.Handler(&http.Request{URL: &url.URL{Path: endpoint}})
		assert.NotNil(t, h, "expected handler for %s", endpoint)
	}
}

func TestIngestHandler_Track(t *testing.T) {
	testCases := []struct {
		name           string
		body           string
		setupMock      func(*mocks.MockIngestService)
		expectedStatus int
	}{
		{
			name: "Success",
			body: `{"workspace_id":"ws1","event_type":"cart","event_name":"add_to_cart","anonymous_id":"anon-1"}`,
			setupMock: func(m *mocks.MockIngestService) {
				m.EXPECT().Track(gomock.Any(), gomock.Any()).
					Return(&domain.TrackResponse{EventID: "evt-1", UnifiedUserID: "uid-1"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid JSON",
			body:           `{not json`,
			setupMock:      func(m *mocks.MockIngestService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Validation error",
			body: `{"workspace_id":"ws1"}`,
			setupMock: func(m *mocks.MockIngestService) {
				m.EXPECT().Track(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewValidationError("event_type is required"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Oversized payload",
			body: `{"workspace_id":"ws1","event_type":"custom","event_name":"x","anonymous_id":"a"}`,
			setupMock: func(m *mocks.MockIngestService) {
				m.EXPECT().Track(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewPayloadTooLargeError("payload exceeds 10240 bytes"))
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService, _, handler := setupIngestHandlerTest(t)
			tc.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/ingest.track", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()

			handler.Track(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
		})
	}
}

func TestIngestHandler_Track_FillsClientContext(t *testing.T) {
	mockService, _, handler := setupIngestHandlerTest(t)

	var captured *domain.TrackRequest
	mockService.EXPECT().Track(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *domain.TrackRequest) (*domain.TrackResponse, error) {
			captured = req
			return &domain.TrackResponse{EventID: "evt-1"}, nil
		})

	body := `{"workspace_id":"ws1","event_type":"page_view","event_name":"page_view"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ingest.track", strings.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	rr := httptest.NewRecorder()

	handler.Track(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "203.0.113.9", captured.ClientIP)
	assert.Equal(t, "Mozilla/5.0", captured.UserAgent)
}

func TestIngestHandler_Track_RejectsGet(t *testing.T) {
	_, _, handler := setupIngestHandlerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ingest.track", nil)
	rr := httptest.NewRecorder()

	handler.Track(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestIngestHandler_Identify(t *testing.T) {
	mockService, _, handler := setupIngestHandlerTest(t)

	mockService.EXPECT().Identify(gomock.Any(), gomock.Any()).
		Return(&domain.IdentifyResponse{UnifiedUserID: "uid-1", IdentityMerged: true, EventsLinked: 3}, nil)

	body := `{"workspace_id":"ws1","anonymous_id":"anon-1","email":"u@x.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ingest.identify", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.Identify(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp domain.IdentifyResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "uid-1", resp.UnifiedUserID)
	assert.True(t, resp.IdentityMerged)
	assert.Equal(t, int64(3), resp.EventsLinked)
}

func TestIngestHandler_Identify_ValidationError(t *testing.T) {
	mockService, _, handler := setupIngestHandlerTest(t)

	mockService.EXPECT().Identify(gomock.Any(), gomock.Any()).
		Return(nil, domain.NewValidationError("at least one identifier is required"))

	req := httptest.NewRequest(http.MethodPost, "/api/ingest.identify", strings.NewReader(`{"workspace_id":"ws1"}`))
	rr := httptest.NewRecorder()

	handler.Identify(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Contains(t, resp["error"], "at least one identifier")
}
