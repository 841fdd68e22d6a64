package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockKlaviyoClient is a mock of KlaviyoClient interface
type MockKlaviyoClient struct {
	ctrl     *gomock.Controller
	recorder *MockKlaviyoClientMockRecorder
}

// MockKlaviyoClientMockRecorder is the mock recorder for MockKlaviyoClient
type MockKlaviyoClientMockRecorder struct {
	mock *MockKlaviyoClient
}

// NewMockKlaviyoClient creates a new mock instance
func NewMockKlaviyoClient(ctrl *gomock.Controller) *MockKlaviyoClient {
	mock := &MockKlaviyoClient{ctrl: ctrl}
	mock.recorder = &MockKlaviyoClientMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockKlaviyoClient) EXPECT() *MockKlaviyoClientMockRecorder {
	return m.recorder
}

// UpsertProfile mocks base method
func (m *MockKlaviyoClient) UpsertProfile(ctx context.Context, settings domain.DestinationSettings, profile *domain.DestinationProfile) (string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpsertProfile", ctx, settings, profile)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// UpsertProfile indicates an expected call of UpsertProfile
func (mr *MockKlaviyoClientMockRecorder) UpsertProfile(ctx, settings, profile interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpsertProfile", reflect.TypeOf((*MockKlaviyoClient)(nil).UpsertProfile), ctx, settings, profile)
}

// TrackEvent mocks base method
func (m *MockKlaviyoClient) TrackEvent(ctx context.Context, settings domain.DestinationSettings, event *domain.DestinationEvent) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TrackEvent", ctx, settings, event)
	ret0, _ := ret[0].(error)
	return ret0
}

// TrackEvent indicates an expected call of TrackEvent
func (mr *MockKlaviyoClientMockRecorder) TrackEvent(ctx, settings, event interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TrackEvent", reflect.TypeOf((*MockKlaviyoClient)(nil).TrackEvent), ctx, settings, event)
}

// ListEngagement mocks base method
func (m *MockKlaviyoClient) ListEngagement(ctx context.Context, settings domain.DestinationSettings, since time.Time) ([]*domain.EngagementEvent, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListEngagement", ctx, settings, since)
	ret0, _ := ret[0].([]*domain.EngagementEvent)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListEngagement indicates an expected call of ListEngagement
func (mr *MockKlaviyoClientMockRecorder) ListEngagement(ctx, settings, since interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListEngagement", reflect.TypeOf((*MockKlaviyoClient)(nil).ListEngagement), ctx, settings, since)
}
