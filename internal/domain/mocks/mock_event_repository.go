package mocks

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockEventRepository is a mock of EventRepository interface
type MockEventRepository struct {
	ctrl     *gomock.Controller
	recorder *MockEventRepositoryMockRecorder
}

// MockEventRepositoryMockRecorder is the mock recorder for MockEventRepository
type MockEventRepositoryMockRecorder struct {
	mock *MockEventRepository
}

// NewMockEventRepository creates a new mock instance
func NewMockEventRepository(ctrl *gomock.Controller) *MockEventRepository {
	mock := &MockEventRepository{ctrl: ctrl}
	mock.recorder = &MockEventRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockEventRepository) EXPECT() *MockEventRepositoryMockRecorder {
	return m.recorder
}

// Insert mocks base method
func (m *MockEventRepository) Insert(ctx context.Context, event *domain.Event) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Insert", ctx, event)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Insert indicates an expected call of Insert
func (mr *MockEventRepositoryMockRecorder) Insert(ctx, event interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Insert", reflect.TypeOf((*MockEventRepository)(nil).Insert), ctx, event)
}

// GetByID mocks base method
func (m *MockEventRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Event, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, workspaceID, id)
	ret0, _ := ret[0].(*domain.Event)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockEventRepositoryMockRecorder) GetByID(ctx, workspaceID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockEventRepository)(nil).GetByID), ctx, workspaceID, id)
}

// ListByUser mocks base method
func (m *MockEventRepository) ListByUser(ctx context.Context, workspaceID, unifiedUserID string, limit int) ([]*domain.Event, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByUser", ctx, workspaceID, unifiedUserID, limit)
	ret0, _ := ret[0].([]*domain.Event)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByUser indicates an expected call of ListByUser
func (mr *MockEventRepositoryMockRecorder) ListByUser(ctx, workspaceID, unifiedUserID, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByUser", reflect.TypeOf((*MockEventRepository)(nil).ListByUser), ctx, workspaceID, unifiedUserID, limit)
}

// RelinkAnonymousEvents mocks base method
func (m *MockEventRepository) RelinkAnonymousEvents(ctx context.Context, tx *sql.Tx, workspaceID, anonymousID, unifiedUserID string) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RelinkAnonymousEvents", ctx, tx, workspaceID, anonymousID, unifiedUserID)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RelinkAnonymousEvents indicates an expected call of RelinkAnonymousEvents
func (mr *MockEventRepositoryMockRecorder) RelinkAnonymousEvents(ctx, tx, workspaceID, anonymousID, unifiedUserID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RelinkAnonymousEvents", reflect.TypeOf((*MockEventRepository)(nil).RelinkAnonymousEvents), ctx, tx, workspaceID, anonymousID, unifiedUserID)
}

// UpdateStatus mocks base method
func (m *MockEventRepository) UpdateStatus(ctx context.Context, workspaceID, id, status string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateStatus", ctx, workspaceID, id, status)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateStatus indicates an expected call of UpdateStatus
func (mr *MockEventRepositoryMockRecorder) UpdateStatus(ctx, workspaceID, id, status interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateStatus", reflect.TypeOf((*MockEventRepository)(nil).UpdateStatus), ctx, workspaceID, id, status)
}

// AssignUser mocks base method
func (m *MockEventRepository) AssignUser(ctx context.Context, workspaceID, id, unifiedUserID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AssignUser", ctx, workspaceID, id, unifiedUserID)
	ret0, _ := ret[0].(error)
	return ret0
}

// AssignUser indicates an expected call of AssignUser
func (mr *MockEventRepositoryMockRecorder) AssignUser(ctx, workspaceID, id, unifiedUserID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AssignUser", reflect.TypeOf((*MockEventRepository)(nil).AssignUser), ctx, workspaceID, id, unifiedUserID)
}

// ListAbandonmentCandidates mocks base method
func (m *MockEventRepository) ListAbandonmentCandidates(ctx context.Context, workspaceID, eventType string, cutoff time.Time, limit int) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListAbandonmentCandidates", ctx, workspaceID, eventType, cutoff, limit)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListAbandonmentCandidates indicates an expected call of ListAbandonmentCandidates
func (mr *MockEventRepositoryMockRecorder) ListAbandonmentCandidates(ctx, workspaceID, eventType, cutoff, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListAbandonmentCandidates", reflect.TypeOf((*MockEventRepository)(nil).ListAbandonmentCandidates), ctx, workspaceID, eventType, cutoff, limit)
}

// BackfillUnlinkedEvents mocks base method
func (m *MockEventRepository) BackfillUnlinkedEvents(ctx context.Context, workspaceID string, since time.Time) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "BackfillUnlinkedEvents", ctx, workspaceID, since)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// BackfillUnlinkedEvents indicates an expected call of BackfillUnlinkedEvents
func (mr *MockEventRepositoryMockRecorder) BackfillUnlinkedEvents(ctx, workspaceID, since interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "BackfillUnlinkedEvents", reflect.TypeOf((*MockEventRepository)(nil).BackfillUnlinkedEvents), ctx, workspaceID, since)
}
