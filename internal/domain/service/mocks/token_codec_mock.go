package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/turtacn/authsvc/internal/domain/models"
)

// MockTokenCodec is a mock implementation of service.TokenCodec
type MockTokenCodec struct {
	mock.Mock
}

func (m *MockTokenCodec) Mint(ctx context.Context, subject string, extra map[string]interface{}, ttl time.Duration) (string, error) {
	args := m.Called(ctx, subject, extra, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockTokenCodec) Decode(ctx context.Context, token string) (*models.Claims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Claims), args.Error(1)
}

func (m *MockTokenCodec) IsValid(ctx context.Context, token, expectedSubject string) bool {
	args := m.Called(ctx, token, expectedSubject)
	return args.Bool(0)
}

func (m *MockTokenCodec) ExtractSubject(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

// MockPasswordHasher is a mock implementation of service.PasswordHasher
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(hash, password string) bool {
	args := m.Called(hash, password)
	return args.Bool(0)
}
