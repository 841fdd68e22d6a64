package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockSignalComputer is a mock of SignalComputer interface
type MockSignalComputer struct {
	ctrl     *gomock.Controller
	recorder *MockSignalComputerMockRecorder
}

// MockSignalComputerMockRecorder is the mock recorder for MockSignalComputer
type MockSignalComputerMockRecorder struct {
	mock *MockSignalComputer
}

// NewMockSignalComputer creates a new mock instance
func NewMockSignalComputer(ctrl *gomock.Controller) *MockSignalComputer {
	mock := &MockSignalComputer{ctrl: ctrl}
	mock.recorder = &MockSignalComputerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockSignalComputer) EXPECT() *MockSignalComputerMockRecorder {
	return m.recorder
}

// ApplyEvent mocks base method
func (m *MockSignalComputer) ApplyEvent(ctx context.Context, identity *domain.UnifiedIdentity, event *domain.Event) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ApplyEvent", ctx, identity, event)
	ret0, _ := ret[0].(error)
	return ret0
}

// ApplyEvent indicates an expected call of ApplyEvent
func (mr *MockSignalComputerMockRecorder) ApplyEvent(ctx, identity, event interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ApplyEvent", reflect.TypeOf((*MockSignalComputer)(nil).ApplyEvent), ctx, identity, event)
}

// RecomputeBatch mocks base method
func (m *MockSignalComputer) RecomputeBatch(ctx context.Context, workspaceID string, limit int) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecomputeBatch", ctx, workspaceID, limit)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RecomputeBatch indicates an expected call of RecomputeBatch
func (mr *MockSignalComputerMockRecorder) RecomputeBatch(ctx, workspaceID, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecomputeBatch", reflect.TypeOf((*MockSignalComputer)(nil).RecomputeBatch), ctx, workspaceID, limit)
}

// DecayScores mocks base method
func (m *MockSignalComputer) DecayScores(ctx context.Context, workspaceID string, limit int) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "DecayScores", ctx, workspaceID, limit)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// DecayScores indicates an expected call of DecayScores
func (mr *MockSignalComputerMockRecorder) DecayScores(ctx, workspaceID, limit interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "DecayScores", reflect.TypeOf((*MockSignalComputer)(nil).DecayScores), ctx, workspaceID, limit)
}
