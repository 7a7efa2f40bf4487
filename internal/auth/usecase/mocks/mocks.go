// Package mocks provides mock implementations for testing the authentication workflow.
package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	authDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/domain"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/network"
)

// MockAuthAPI is a mock implementation of AuthAPI.
type MockAuthAPI struct {
	mock.Mock
}

// IDExists mocks the IDExists method of AuthAPI.
func (m *MockAuthAPI) IDExists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// AuthCode mocks the AuthCode method of AuthAPI.
func (m *MockAuthAPI) AuthCode(ctx context.Context, req network.AuthCodeRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// AuthToken mocks the AuthToken method of AuthAPI.
func (m *MockAuthAPI) AuthToken(ctx context.Context, req network.AuthTokenRequest) (*network.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*network.TokenResponse), args.Error(1)
}

// Refresh mocks the Refresh method of AuthAPI.
func (m *MockAuthAPI) Refresh(ctx context.Context, refreshToken string) (*network.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*network.TokenResponse), args.Error(1)
}

// Logout mocks the Logout method of AuthAPI.
func (m *MockAuthAPI) Logout(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

// ValidToken mocks the ValidToken method of AuthAPI.
func (m *MockAuthAPI) ValidToken(ctx context.Context, accessToken string) (json.RawMessage, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// MockAuthUseCase is a mock implementation of AuthUseCase.
type MockAuthUseCase struct {
	mock.Mock
}

// Authenticate mocks the Authenticate method of AuthUseCase.
func (m *MockAuthUseCase) Authenticate(ctx context.Context) (authDomain.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(authDomain.Session), args.Error(1)
}

// Refresh mocks the Refresh method of AuthUseCase.
func (m *MockAuthUseCase) Refresh(ctx context.Context) (authDomain.Session, error) {
	args := m.Called(ctx)
	return args.Get(0).(authDomain.Session), args.Error(1)
}

// Rotate mocks the Rotate method of AuthUseCase.
func (m *MockAuthUseCase) Rotate(ctx context.Context) (authDomain.RotateAction, error) {
	args := m.Called(ctx)
	return args.Get(0).(authDomain.RotateAction), args.Error(1)
}

// AccessToken mocks the AccessToken method of AuthUseCase.
func (m *MockAuthUseCase) AccessToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// Session mocks the Session method of AuthUseCase.
func (m *MockAuthUseCase) Session() authDomain.Session {
	args := m.Called()
	return args.Get(0).(authDomain.Session)
}

// Logout mocks the Logout method of AuthUseCase.
func (m *MockAuthUseCase) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ValidateToken mocks the ValidateToken method of AuthUseCase.
func (m *MockAuthUseCase) ValidateToken(ctx context.Context) (json.RawMessage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
