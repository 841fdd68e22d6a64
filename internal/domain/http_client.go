package domain

import "net/http"

//go:generate mockgen -destination mocks/mock_http_client.go -package mocks github.com/signalforge/signalforge/internal/domain HTTPClient

// HTTPClient abstracts http.Client for outbound destination calls so
// transports can be stubbed in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
