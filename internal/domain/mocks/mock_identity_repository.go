package mocks

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockIdentityRepository is a mock of IdentityRepository interface
type MockIdentityRepository struct {
	ctrl     *gomock.Controller
	recorder *MockIdentityRepositoryMockRecorder
}

// MockIdentityRepositoryMockRecorder is the mock recorder for MockIdentityRepository
type MockIdentityRepositoryMockRecorder struct {
	mock *MockIdentityRepository
}

// NewMockIdentityRepository creates a new mock instance
func NewMockIdentityRepository(ctrl *gomock.Controller) *MockIdentityRepository {
	mock := &MockIdentityRepository{ctrl: ctrl}
	mock.recorder = &MockIdentityRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockIdentityRepository) EXPECT() *MockIdentityRepositoryMockRecorder {
	return m.recorder
}

// WithTransaction mocks base method
func (m *MockIdentityRepository) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "WithTransaction", ctx, fn)
	ret0, _ := ret[0].(error)
	return ret0
}

// WithTransaction indicates an expected call of WithTransaction
func (mr *MockIdentityRepositoryMockRecorder) WithTransaction(ctx, fn interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "WithTransaction", reflect.TypeOf((*MockIdentityRepository)(nil).WithTransaction), ctx, fn)
}

// AcquireEmailLock mocks base method
func (m *MockIdentityRepository) AcquireEmailLock(ctx context.Context, tx *sql.Tx, workspaceID, email string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "AcquireEmailLock", ctx, tx, workspaceID, email)
	ret0, _ := ret[0].(error)
	return ret0
}

// AcquireEmailLock indicates an expected call of AcquireEmailLock
func (mr *MockIdentityRepositoryMockRecorder) AcquireEmailLock(ctx, tx, workspaceID, email interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "AcquireEmailLock", reflect.TypeOf((*MockIdentityRepository)(nil).AcquireEmailLock), ctx, tx, workspaceID, email)
}

// GetByID mocks base method
func (m *MockIdentityRepository) GetByID(ctx context.Context, tx *sql.Tx, workspaceID, id string) (*domain.UnifiedIdentity, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByID", ctx, tx, workspaceID, id)
	ret0, _ := ret[0].(*domain.UnifiedIdentity)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByID indicates an expected call of GetByID
func (mr *MockIdentityRepositoryMockRecorder) GetByID(ctx, tx, workspaceID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByID", reflect.TypeOf((*MockIdentityRepository)(nil).GetByID), ctx, tx, workspaceID, id)
}

// GetByAnonymousID mocks base method
func (m *MockIdentityRepository) GetByAnonymousID(ctx context.Context, tx *sql.Tx, workspaceID, anonymousID string) (*domain.UnifiedIdentity, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByAnonymousID", ctx, tx, workspaceID, anonymousID)
	ret0, _ := ret[0].(*domain.UnifiedIdentity)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByAnonymousID indicates an expected call of GetByAnonymousID
func (mr *MockIdentityRepositoryMockRecorder) GetByAnonymousID(ctx, tx, workspaceID, anonymousID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByAnonymousID", reflect.TypeOf((*MockIdentityRepository)(nil).GetByAnonymousID), ctx, tx, workspaceID, anonymousID)
}

// GetByEmail mocks base method
func (m *MockIdentityRepository) GetByEmail(ctx context.Context, tx *sql.Tx, workspaceID, email string) (*domain.UnifiedIdentity, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByEmail", ctx, tx, workspaceID, email)
	ret0, _ := ret[0].(*domain.UnifiedIdentity)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByEmail indicates an expected call of GetByEmail
func (mr *MockIdentityRepositoryMockRecorder) GetByEmail(ctx, tx, workspaceID, email interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByEmail", reflect.TypeOf((*MockIdentityRepository)(nil).GetByEmail), ctx, tx, workspaceID, email)
}

// GetByCustomerID mocks base method
func (m *MockIdentityRepository) GetByCustomerID(ctx context.Context, tx *sql.Tx, workspaceID, customerID string) (*domain.UnifiedIdentity, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetByCustomerID", ctx, tx, workspaceID, customerID)
	ret0, _ := ret[0].(*domain.UnifiedIdentity)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetByCustomerID indicates an expected call of GetByCustomerID
func (mr *MockIdentityRepositoryMockRecorder) GetByCustomerID(ctx, tx, workspaceID, customerID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetByCustomerID", reflect.TypeOf((*MockIdentityRepository)(nil).GetByCustomerID), ctx, tx, workspaceID, customerID)
}

// Create mocks base method
func (m *MockIdentityRepository) Create(ctx context.Context, tx *sql.Tx, identity *domain.UnifiedIdentity) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Create", ctx, tx, identity)
	ret0, _ := ret[0].(error)
	return ret0
}

// Create indicates an expected call of Create
func (mr *MockIdentityRepositoryMockRecorder) Create(ctx, tx, identity interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Create", reflect.TypeOf((*MockIdentityRepository)(nil).Create), ctx, tx, identity)
}

// Update mocks base method
func (m *MockIdentityRepository) Update(ctx context.Context, tx *sql.Tx, identity *domain.UnifiedIdentity) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, tx, identity)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update
func (mr *MockIdentityRepositoryMockRecorder) Update(ctx, tx, identity interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockIdentityRepository)(nil).Update), ctx, tx, identity)
}

// UpdateComputed mocks base method
func (m *MockIdentityRepository) UpdateComputed(ctx context.Context, workspaceID, id string, computed domain.ComputedTraits) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateComputed", ctx, workspaceID, id, computed)
	ret0, _ := ret[0].(error)
	return ret0
}

// UpdateComputed indicates an expected call of UpdateComputed
func (mr *MockIdentityRepositoryMockRecorder) UpdateComputed(ctx, workspaceID, id, computed interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateComputed", reflect.TypeOf((*MockIdentityRepository)(nil).UpdateComputed), ctx, workspaceID, id, computed)
}

// Merge mocks base method
func (m *MockIdentityRepository) Merge(ctx context.Context, tx *sql.Tx, workspaceID, winnerID, loserID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Merge", ctx, tx, workspaceID, winnerID, loserID)
	ret0, _ := ret[0].(error)
	return ret0
}

// Merge indicates an expected call of Merge
func (mr *MockIdentityRepositoryMockRecorder) Merge(ctx, tx, workspaceID, winnerID, loserID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Merge", reflect.TypeOf((*MockIdentityRepository)(nil).Merge), ctx, tx, workspaceID, winnerID, loserID)
}

// Delete mocks base method
func (m *MockIdentityRepository) Delete(ctx context.Context, workspaceID, id string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Delete", ctx, workspaceID, id)
	ret0, _ := ret[0].(error)
	return ret0
}

// Delete indicates an expected call of Delete
func (mr *MockIdentityRepositoryMockRecorder) Delete(ctx, workspaceID, id interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Delete", reflect.TypeOf((*MockIdentityRepository)(nil).Delete), ctx, workspaceID, id)
}

// ListStale mocks base method
func (m *MockIdentityRepository) ListStale(ctx context.Context, workspaceID string, updatedBefore time.Time, limit int) ([]*domain.UnifiedIdentity, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListStale", ctx, workspaceID, updatedBefore, limit)
	ret0, _ := ret[0].([]*domain.UnifiedIdentity)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListStale indicates an expected call of ListStale
func (mr *MockIdentityRepositoryMockRecorder) ListStale(ctx, workspaceID, updatedBefore, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListStale", reflect.TypeOf((*MockIdentityRepository)(nil).ListStale), ctx, workspaceID, updatedBefore, limit)
}

// ListRecentlyUpdated mocks base method
func (m *MockIdentityRepository) ListRecentlyUpdated(ctx context.Context, workspaceID string, since time.Time, limit int) ([]*domain.UnifiedIdentity, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListRecentlyUpdated", ctx, workspaceID, since, limit)
	ret0, _ := ret[0].([]*domain.UnifiedIdentity)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListRecentlyUpdated indicates an expected call of ListRecentlyUpdated
func (mr *MockIdentityRepositoryMockRecorder) ListRecentlyUpdated(ctx, workspaceID, since, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListRecentlyUpdated", reflect.TypeOf((*MockIdentityRepository)(nil).ListRecentlyUpdated), ctx, workspaceID, since, limit)
}
