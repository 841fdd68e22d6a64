package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockSyncScheduler is a mock of SyncScheduler interface
type MockSyncScheduler struct {
	ctrl     *gomock.Controller
	recorder *MockSyncSchedulerMockRecorder
}

// MockSyncSchedulerMockRecorder is the mock recorder for MockSyncScheduler
type MockSyncSchedulerMockRecorder struct {
	mock *MockSyncScheduler
}

// NewMockSyncScheduler creates a new mock instance
func NewMockSyncScheduler(ctrl *gomock.Controller) *MockSyncScheduler {
	mock := &MockSyncScheduler{ctrl: ctrl}
	mock.recorder = &MockSyncSchedulerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSyncScheduler) EXPECT() *MockSyncSchedulerMockRecorder {
	return m.recorder
}

// ScheduleIfNeeded mocks base method
func (m *MockSyncScheduler) ScheduleIfNeeded(ctx context.Context, workspaceID string, identity *domain.UnifiedIdentity, event *domain.Event) (int, string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ScheduleIfNeeded", ctx, workspaceID, identity, event)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(string)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// ScheduleIfNeeded indicates an expected call of ScheduleIfNeeded
func (mr *MockSyncSchedulerMockRecorder) ScheduleIfNeeded(ctx, workspaceID, identity, event interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ScheduleIfNeeded", reflect.TypeOf((*MockSyncScheduler)(nil).ScheduleIfNeeded), ctx, workspaceID, identity, event)
}
