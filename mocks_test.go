package activation_test

import (
	"context"

	activation "github.com/goliatone/go-activation"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore implements activation.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) FindByEmail(ctx context.Context, email string, fullness activation.Fullness) (*activation.User, error) {
	args := m.Called(ctx, email, fullness)
	if user, ok := args.Get(0).(*activation.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountStore) Insert(ctx context.Context, record *activation.User) (*activation.User, error) {
	args := m.Called(ctx, record)
	if user, ok := args.Get(0).(*activation.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockActivityStore implements activation.ActivityStore
type MockActivityStore struct {
	mock.Mock
}

func (m *MockActivityStore) LoginActivity(ctx context.Context, ip string) (int64, error) {
	args := m.Called(ctx, ip)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockActivityStore) TrackLoginActivity(ctx context.Context, ip string) error {
	args := m.Called(ctx, ip)
	return args.Error(0)
}

func (m *MockActivityStore) Session(ctx context.Context, userID string) (activation.PublicUserInfo, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(activation.PublicUserInfo), args.Error(1)
}

func (m *MockActivityStore) StoreSession(ctx context.Context, user activation.PublicUserInfo) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockActivityStore) DropSession(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockTokenCodec implements activation.TokenCodec
type MockTokenCodec struct {
	mock.Mock
}

func (m *MockTokenCodec) GenerateActivationLink(payload activation.RegistrationPayload) (activation.ActivationLink, error) {
	args := m.Called(payload)
	return args.Get(0).(activation.ActivationLink), args.Error(1)
}

func (m *MockTokenCodec) GenerateActivationCode(user activation.PublicUserInfo) (activation.ActivationCode, error) {
	args := m.Called(user)
	return args.Get(0).(activation.ActivationCode), args.Error(1)
}

func (m *MockTokenCodec) VerifyActivationToken(token string) (activation.ActivationPayload, error) {
	args := m.Called(token)
	if payload, ok := args.Get(0).(activation.ActivationPayload); ok {
		return payload, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTokenCodec) DecodeRefreshToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

// capturingNotifier records every notification the flows emit.
type capturingNotifier struct {
	notifications []activation.Notification
	err           error
}

func (c *capturingNotifier) Notify(_ context.Context, n activation.Notification) error {
	c.notifications = append(c.notifications, n)
	return c.err
}

// MockLogger implements activation.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}
