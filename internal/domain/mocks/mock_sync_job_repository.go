package mocks

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockSyncJobRepository is a mock of SyncJobRepository interface
type MockSyncJobRepository struct {
	ctrl     *gomock.Controller
	recorder *MockSyncJobRepositoryMockRecorder
}

// MockSyncJobRepositoryMockRecorder is the mock recorder for MockSyncJobRepository
type MockSyncJobRepositoryMockRecorder struct {
	mock *MockSyncJobRepository
}

// NewMockSyncJobRepository creates a new mock instance
func NewMockSyncJobRepository(ctrl *gomock.Controller) *MockSyncJobRepository {
	mock := &MockSyncJobRepository{ctrl: ctrl}
	mock.recorder = &MockSyncJobRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSyncJobRepository) EXPECT() *MockSyncJobRepositoryMockRecorder {
	return m.recorder
}

// Insert mocks base method
func (m *MockSyncJobRepository) Insert(ctx context.Context, job *domain.SyncJob) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Insert", ctx, job)
	ret0, _ := ret[0].(error)
	return ret0
}

// Insert indicates an expected call of Insert
func (mr *MockSyncJobRepositoryMockRecorder) Insert(ctx, job interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Insert", reflect.TypeOf((*MockSyncJobRepository)(nil).Insert), ctx, job)
}

// HasActiveJob mocks base method
func (m *MockSyncJobRepository) HasActiveJob(ctx context.Context, workspaceID, unifiedUserID, jobType string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "HasActiveJob", ctx, workspaceID, unifiedUserID, jobType)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// HasActiveJob indicates an expected call of HasActiveJob
func (mr *MockSyncJobRepositoryMockRecorder) HasActiveJob(ctx, workspaceID, unifiedUserID, jobType interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "HasActiveJob", reflect.TypeOf((*MockSyncJobRepository)(nil).HasActiveJob), ctx, workspaceID, unifiedUserID, jobType)
}

// ListDue mocks base method
func (m *MockSyncJobRepository) ListDue(ctx context.Context, workspaceID string, limit int) ([]*domain.SyncJob, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListDue", ctx, workspaceID, limit)
	ret0, _ := ret[0].([]*domain.SyncJob)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListDue indicates an expected call of ListDue
func (mr *MockSyncJobRepositoryMockRecorder) ListDue(ctx, workspaceID, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListDue", reflect.TypeOf((*MockSyncJobRepository)(nil).ListDue), ctx, workspaceID, limit)
}

// MarkRunning mocks base method
func (m *MockSyncJobRepository) MarkRunning(ctx context.Context, workspaceID, id string) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkRunning", ctx, workspaceID, id)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// MarkRunning indicates an expected call of MarkRunning
func (mr *MockSyncJobRepositoryMockRecorder) MarkRunning(ctx, workspaceID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkRunning", reflect.TypeOf((*MockSyncJobRepository)(nil).MarkRunning), ctx, workspaceID, id)
}

// Complete mocks base method
func (m *MockSyncJobRepository) Complete(ctx context.Context, workspaceID, id, note string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Complete", ctx, workspaceID, id, note)
	ret0, _ := ret[0].(error)
	return ret0
}

// Complete indicates an expected call of Complete
func (mr *MockSyncJobRepositoryMockRecorder) Complete(ctx, workspaceID, id, note interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Complete", reflect.TypeOf((*MockSyncJobRepository)(nil).Complete), ctx, workspaceID, id, note)
}

// ScheduleRetry mocks base method
func (m *MockSyncJobRepository) ScheduleRetry(ctx context.Context, workspaceID, id string, nextAt time.Time, errMsg string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ScheduleRetry", ctx, workspaceID, id, nextAt, errMsg)
	ret0, _ := ret[0].(error)
	return ret0
}

// ScheduleRetry indicates an expected call of ScheduleRetry
func (mr *MockSyncJobRepositoryMockRecorder) ScheduleRetry(ctx, workspaceID, id, nextAt, errMsg interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ScheduleRetry", reflect.TypeOf((*MockSyncJobRepository)(nil).ScheduleRetry), ctx, workspaceID, id, nextAt, errMsg)
}

// Fail mocks base method
func (m *MockSyncJobRepository) Fail(ctx context.Context, workspaceID, id, errMsg string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Fail", ctx, workspaceID, id, errMsg)
	ret0, _ := ret[0].(error)
	return ret0
}

// Fail indicates an expected call of Fail
func (mr *MockSyncJobRepositoryMockRecorder) Fail(ctx, workspaceID, id, errMsg interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Fail", reflect.TypeOf((*MockSyncJobRepository)(nil).Fail), ctx, workspaceID, id, errMsg)
}

// ReassignUser mocks base method
func (m *MockSyncJobRepository) ReassignUser(ctx context.Context, tx *sql.Tx, workspaceID, fromUserID, toUserID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReassignUser", ctx, tx, workspaceID, fromUserID, toUserID)
	ret0, _ := ret[0].(error)
	return ret0
}

// ReassignUser indicates an expected call of ReassignUser
func (mr *MockSyncJobRepositoryMockRecorder) ReassignUser(ctx, tx, workspaceID, fromUserID, toUserID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReassignUser", reflect.TypeOf((*MockSyncJobRepository)(nil).ReassignUser), ctx, tx, workspaceID, fromUserID, toUserID)
}

// DeleteForUser mocks base method
func (m *MockSyncJobRepository) DeleteForUser(ctx context.Context, workspaceID, unifiedUserID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteForUser", ctx, workspaceID, unifiedUserID)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeleteForUser indicates an expected call of DeleteForUser
func (mr *MockSyncJobRepositoryMockRecorder) DeleteForUser(ctx, workspaceID, unifiedUserID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteForUser", reflect.TypeOf((*MockSyncJobRepository)(nil).DeleteForUser), ctx, workspaceID, unifiedUserID)
}
