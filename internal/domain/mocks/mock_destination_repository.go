package mocks

import (
	"context"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockDestinationRepository is a mock of DestinationRepository interface
type MockDestinationRepository struct {
	ctrl     *gomock.Controller
	recorder *MockDestinationRepositoryMockRecorder
}

// MockDestinationRepositoryMockRecorder is the mock recorder for MockDestinationRepository
type MockDestinationRepositoryMockRecorder struct {
	mock *MockDestinationRepository
}

// NewMockDestinationRepository creates a new mock instance
func NewMockDestinationRepository(ctrl *gomock.Controller) *MockDestinationRepository {
	mock := &MockDestinationRepository{ctrl: ctrl}
	mock.recorder = &MockDestinationRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockDestinationRepository) EXPECT() *MockDestinationRepositoryMockRecorder {
	return m.recorder
}

// GetByID mocks base method
func (m *MockDestinationRepository) GetByID(ctx context.Context, workspaceID, id string) (*domain.Destination, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, workspaceID, id)
	ret0, _ := ret[0].(*domain.Destination)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockDestinationRepositoryMockRecorder) GetByID(ctx, workspaceID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockDestinationRepository)(nil).GetByID), ctx, workspaceID, id)
}

// GetEnabled mocks base method
func (m *MockDestinationRepository) GetEnabled(ctx context.Context, workspaceID, kind string) (*domain.Destination, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetEnabled", ctx, workspaceID, kind)
	ret0, _ := ret[0].(*domain.Destination)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetEnabled indicates an expected call of GetEnabled
func (mr *MockDestinationRepositoryMockRecorder) GetEnabled(ctx, workspaceID, kind interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetEnabled", reflect.TypeOf((*MockDestinationRepository)(nil).GetEnabled), ctx, workspaceID, kind)
}

// List mocks base method
func (m *MockDestinationRepository) List(ctx context.Context) ([]*domain.Destination, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List", ctx)
	ret0, _ := ret[0].([]*domain.Destination)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// List indicates an expected call of List
func (mr *MockDestinationRepositoryMockRecorder) List(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockDestinationRepository)(nil).List), ctx)
}

// Upsert mocks base method
func (m *MockDestinationRepository) Upsert(ctx context.Context, destination *domain.Destination) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Upsert", ctx, destination)
	ret0, _ := ret[0].(error)
	return ret0
}

// Upsert indicates an expected call of Upsert
func (mr *MockDestinationRepositoryMockRecorder) Upsert(ctx, destination interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Upsert", reflect.TypeOf((*MockDestinationRepository)(nil).Upsert), ctx, destination)
}

// UpdateSyncStatus mocks base method
func (m *MockDestinationRepository) UpdateSyncStatus(ctx context.Context, workspaceID, id string, lastSyncAt *time.Time, lastError *string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateSyncStatus", ctx, workspaceID, id, lastSyncAt, lastError)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateSyncStatus indicates an expected call of UpdateSyncStatus
func (mr *MockDestinationRepositoryMockRecorder) UpdateSyncStatus(ctx, workspaceID, id, lastSyncAt, lastError interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateSyncStatus", reflect.TypeOf((*MockDestinationRepository)(nil).UpdateSyncStatus), ctx, workspaceID, id, lastSyncAt, lastError)
}
