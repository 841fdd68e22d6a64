package mocks

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"
	"github.com/signalforge/signalforge/internal/domain"
)

// MockAPIKeyVerifier is a mock of APIKeyVerifier interface
type MockAPIKeyVerifier struct {
	ctrl     *gomock.Controller
	recorder *MockAPIKeyVerifierMockRecorder
}

// MockAPIKeyVerifierMockRecorder is the mock recorder for MockAPIKeyVerifier
type MockAPIKeyVerifierMockRecorder struct {
	mock *MockAPIKeyVerifier
}

// NewMockAPIKeyVerifier creates a new mock instance
func NewMockAPIKeyVerifier(ctrl *gomock.Controller) *MockAPIKeyVerifier {
	mock := &MockAPIKeyVerifier{ctrl: ctrl}
	mock.recorder = &MockAPIKeyVerifierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use
func (m *MockAPIKeyVerifier) EXPECT() *MockAPIKeyVerifierMockRecorder {
	return m.recorder
}

// VerifyKey mocks base method
func (m *MockAPIKeyVerifier) VerifyKey(ctx context.Context, rawKey string) (*domain.APIKeyGrant, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "VerifyKey", ctx, rawKey)
	ret0, _ := ret[0].(*domain.APIKeyGrant)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// VerifyKey indicates an expected call of VerifyKey
func (mr *MockAPIKeyVerifierMockRecorder) VerifyKey(ctx, rawKey interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "VerifyKey", reflect.TypeOf((*MockAPIKeyVerifier)(nil).VerifyKey), ctx, rawKey)
}
