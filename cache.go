package activation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Default lifetimes for cache entries.
const (
	// DefaultThrottleTTL is the window in which a verified IP skips the
	// activation code challenge.
	DefaultThrottleTTL = 30 * time.Minute
	// DefaultSessionTTL bounds how long a session stays refreshable without
	// a new login.
	DefaultSessionTTL = 7 * 24 * time.Hour
)

const (
	throttleKeyPrefix = "user_ip:"
	sessionKeyPrefix  = "user:"
)

// ActivityCache is the redis-backed implementation of ActivityStore. It owns
// two keyspaces: per-IP login activity counters and per-user session hashes.
type ActivityCache struct {
	client      redis.UniversalClient
	throttleTTL time.Duration
	sessionTTL  time.Duration
	logger      Logger
}

var _ ActivityStore = (*ActivityCache)(nil)

// CacheOption customizes the activity cache.
type CacheOption func(*ActivityCache)

// WithThrottleTTL overrides the throttle counter lifetime.
func WithThrottleTTL(ttl time.Duration) CacheOption {
	return func(c *ActivityCache) {
		if ttl > 0 {
			c.throttleTTL = ttl
		}
	}
}

// WithSessionTTL overrides the session entry lifetime.
func WithSessionTTL(ttl time.Duration) CacheOption {
	return func(c *ActivityCache) {
		if ttl > 0 {
			c.sessionTTL = ttl
		}
	}
}

// WithCacheLogger overrides the logger used for cache failures.
func WithCacheLogger(logger Logger) CacheOption {
	return func(c *ActivityCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewActivityCache creates an ActivityCache over an existing redis client.
func NewActivityCache(client redis.UniversalClient, opts ...CacheOption) *ActivityCache {
	cache := &ActivityCache{
		client:      client,
		throttleTTL: DefaultThrottleTTL,
		sessionTTL:  DefaultSessionTTL,
		logger:      defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}

	return cache
}

// NewActivityCacheFromConfig wires an ActivityCache from activation flow
// options.
func NewActivityCacheFromConfig(client redis.UniversalClient, cfg Config, opts ...CacheOption) *ActivityCache {
	base := []CacheOption{
		WithThrottleTTL(cfg.GetThrottleTTL()),
		WithSessionTTL(cfg.GetSessionTTL()),
	}
	return NewActivityCache(client, append(base, opts...)...)
}

// LoginActivity returns the throttle counter for an IP. Zero means no recent
// verified login and the caller must issue an activation challenge.
func (c *ActivityCache) LoginActivity(ctx context.Context, ip string) (int64, error) {
	if ip == "" {
		return 0, nil
	}

	val, err := c.client.Get(ctx, throttleKey(ip)).Result()
	if err != nil {
		if goerrors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read login activity")
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "malformed login activity counter")
	}

	return count, nil
}

// TrackLoginActivity bumps the throttle counter for an IP and refreshes its
// TTL. Called after a successful activation so subsequent logins from the
// same address skip the challenge for the window.
func (c *ActivityCache) TrackLoginActivity(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}

	key := throttleKey(ip)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, c.throttleTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to track login activity")
	}

	return nil
}

// Session returns the cached public record for a user id. An empty
// PublicUserInfo with no error means no live session exists.
func (c *ActivityCache) Session(ctx context.Context, userID string) (PublicUserInfo, error) {
	fields, err := c.client.HGetAll(ctx, sessionKey(userID)).Result()
	if err != nil {
		return PublicUserInfo{}, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read session")
	}

	if len(fields) == 0 {
		return PublicUserInfo{}, nil
	}

	user := PublicUserInfo{
		Email: fields["email"],
		Name:  fields["name"],
		Image: fields["image"],
	}

	if raw, ok := fields["id"]; ok && raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return PublicUserInfo{}, goerrors.Wrap(err, goerrors.CategoryInternal, "malformed session user id")
		}
		user.ID = id
	}

	return user, nil
}

// StoreSession caches the public record keyed by user id so refresh tokens
// can be validated against a live session.
func (c *ActivityCache) StoreSession(ctx context.Context, user PublicUserInfo) error {
	if user.ID == uuid.Nil {
		return goerrors.New("session requires a user id", goerrors.CategoryBadInput)
	}

	key := sessionKey(user.ID.String())
	fields := map[string]any{
		"id":    user.ID.String(),
		"email": user.Email,
		"name":  user.Name,
		"image": user.Image,
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, c.sessionTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to store session")
	}

	return nil
}

// DropSession removes the cached session for a user id, invalidating any
// outstanding refresh tokens.
func (c *ActivityCache) DropSession(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to drop session")
	}
	return nil
}

func throttleKey(ip string) string {
	return fmt.Sprintf("%s%s", throttleKeyPrefix, ip)
}

func sessionKey(userID string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, userID)
}
