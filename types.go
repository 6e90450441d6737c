package activation

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds activation flow options
type Config interface {
	GetSigningKey() string
	GetRefreshSecret() string
	GetIssuer() string
	GetAudience() []string
	GetActivationTokenTTL() time.Duration
	GetActivationBaseURL() string
	GetSessionTTL() time.Duration
	GetThrottleTTL() time.Duration
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// AccountStore is the user lookup surface the flows need: email search at a
// chosen fidelity and inserts for the two account-creation paths.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string, fullness Fullness) (*User, error)
	Insert(ctx context.Context, record *User) (*User, error)
}

// ActivityStore is the cache surface the flows need: the per-IP throttle
// counter and the per-user session entries backing refresh validation.
type ActivityStore interface {
	LoginActivity(ctx context.Context, ip string) (int64, error)
	TrackLoginActivity(ctx context.Context, ip string) error
	Session(ctx context.Context, userID string) (PublicUserInfo, error)
	StoreSession(ctx context.Context, user PublicUserInfo) error
	DropSession(ctx context.Context, userID string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACTIVATION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACTIVATION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACTIVATION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
