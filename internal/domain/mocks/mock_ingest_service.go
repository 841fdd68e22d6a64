package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockIngestService is a mock of IngestService interface
type MockIngestService struct {
	ctrl     *gomock.Controller
	recorder *MockIngestServiceMockRecorder
}

// MockIngestServiceMockRecorder is the mock recorder for MockIngestService
type MockIngestServiceMockRecorder struct {
	mock *MockIngestService
}

// NewMockIngestService creates a new mock instance
func NewMockIngestService(ctrl *gomock.Controller) *MockIngestService {
	mock := &MockIngestService{ctrl: ctrl}
	mock.recorder = &MockIngestServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockIngestService) EXPECT() *MockIngestServiceMockRecorder {
	return m.recorder
}

// Identify mocks base method
func (m *MockIngestService) Identify(ctx context.Context, req *domain.IdentifyRequest) (*domain.IdentifyResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Identify", ctx, req)
	ret0, _ := ret[0].(*domain.IdentifyResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Identify indicates an expected call of Identify
func (mr *MockIngestServiceMockRecorder) Identify(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Identify", reflect.TypeOf((*MockIngestService)(nil).Identify), ctx, req)
}

// Track mocks base method
func (m *MockIngestService) Track(ctx context.Context, req *domain.TrackRequest) (*domain.TrackResponse, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Track", ctx, req)
	ret0, _ := ret[0].(*domain.TrackResponse)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Track indicates an expected call of Track
func (mr *MockIngestServiceMockRecorder) Track(ctx, req interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Track", reflect.TypeOf((*MockIngestService)(nil).Track), ctx, req)
}
