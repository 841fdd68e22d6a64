package mocks

import (
	"context"
	"database/sql"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockIdentityLinkRepository is a mock of IdentityLinkRepository interface
type MockIdentityLinkRepository struct {
	ctrl     *gomock.Controller
	recorder *MockIdentityLinkRepositoryMockRecorder
}

// MockIdentityLinkRepositoryMockRecorder is the mock recorder for MockIdentityLinkRepository
type MockIdentityLinkRepositoryMockRecorder struct {
	mock *MockIdentityLinkRepository
}

// NewMockIdentityLinkRepository creates a new mock instance
func NewMockIdentityLinkRepository(ctrl *gomock.Controller) *MockIdentityLinkRepository {
	mock := &MockIdentityLinkRepository{ctrl: ctrl}
	mock.recorder = &MockIdentityLinkRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockIdentityLinkRepository) EXPECT() *MockIdentityLinkRepositoryMockRecorder {
	return m.recorder
}

// Upsert mocks base method
func (m *MockIdentityLinkRepository) Upsert(ctx context.Context, tx *sql.Tx, link *domain.IdentityLink) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Upsert", ctx, tx, link)
	ret0, _ := ret[0].(error)
	return ret0
}

// Upsert indicates an expected call of Upsert
func (mr *MockIdentityLinkRepositoryMockRecorder) Upsert(ctx, tx, link interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Upsert", reflect.TypeOf((*MockIdentityLinkRepository)(nil).Upsert), ctx, tx, link)
}

// ListByUser mocks base method
func (m *MockIdentityLinkRepository) ListByUser(ctx context.Context, workspaceID, unifiedUserID string) ([]*domain.IdentityLink, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByUser", ctx, workspaceID, unifiedUserID)
	ret0, _ := ret[0].([]*domain.IdentityLink)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByUser indicates an expected call of ListByUser
func (mr *MockIdentityLinkRepositoryMockRecorder) ListByUser(ctx, workspaceID, unifiedUserID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByUser", reflect.TypeOf((*MockIdentityLinkRepository)(nil).ListByUser), ctx, workspaceID, unifiedUserID)
}

// DeleteForUser mocks base method
func (m *MockIdentityLinkRepository) DeleteForUser(ctx context.Context, workspaceID, unifiedUserID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DeleteForUser", ctx, workspaceID, unifiedUserID)
	ret0, _ := ret[0].(error)
	return ret0
}

// DeleteForUser indicates an expected call of DeleteForUser
func (mr *MockIdentityLinkRepositoryMockRecorder) DeleteForUser(ctx, workspaceID, unifiedUserID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DeleteForUser", reflect.TypeOf((*MockIdentityLinkRepository)(nil).DeleteForUser), ctx, workspaceID, unifiedUserID)
}
