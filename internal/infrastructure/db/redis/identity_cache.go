package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduacademy/academy-api/internal/api/metrics"
	"github.com/eduacademy/academy-api/internal/core/domain"
)

const defaultIdentityTTL = 5 * time.Minute

// IdentityCache keeps resolved identities in Redis hashes so the
// authentication filter can skip the credential store on hot paths.
// Password hashes are never written.
// Key format: identity:<email>
//
// Evict leaves a tombstone at evicted-identity:<email> for one TTL. Set is a
// no-op while the tombstone exists, so a lookup that read the store before a
// delete cannot put the deleted identity back.
type IdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdentityCache creates an IdentityCache. If ttl <= 0, defaultIdentityTTL is used.
func NewIdentityCache(client *redis.Client, ttl time.Duration) *IdentityCache {
	if ttl <= 0 {
		ttl = defaultIdentityTTL
	}
	return &IdentityCache{client: client, ttl: ttl}
}

type cachedIdentity struct {
	ID        int64  `redis:"id"`
	Username  string `redis:"username"`
	Email     string `redis:"email"`
	Role      string `redis:"role"`
	CreatedAt int64  `redis:"created_at"`
	UpdatedAt int64  `redis:"updated_at"`
}

// Get returns the cached identity for email, or domain.ErrUserNotFound on a miss.
func (c *IdentityCache) Get(ctx context.Context, email string) (*domain.User, error) {
	cmd := c.client.HGetAll(ctx, c.key(email))
	if err := cmd.Err(); err != nil {
		metrics.IdentityCacheTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("identity cache get: %w", err)
	}
	if len(cmd.Val()) == 0 {
		metrics.IdentityCacheTotal.WithLabelValues("miss").Inc()
		return nil, domain.ErrUserNotFound
	}

	var ci cachedIdentity
	if err := cmd.Scan(&ci); err != nil {
		metrics.IdentityCacheTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("identity cache decode: %w", err)
	}
	if ci.Email != email {
		metrics.IdentityCacheTotal.WithLabelValues("miss").Inc()
		return nil, domain.ErrUserNotFound
	}

	metrics.IdentityCacheTotal.WithLabelValues("hit").Inc()
	return &domain.User{
		ID:        ci.ID,
		Username:  ci.Username,
		Email:     ci.Email,
		Role:      domain.Role(ci.Role),
		CreatedAt: unixToTime(ci.CreatedAt),
		UpdatedAt: unixToTime(ci.UpdatedAt),
	}, nil
}

// fillScript writes the identity hash unless the tombstone KEYS[2] exists.
// ARGV[1] is the TTL in milliseconds, the rest are field/value pairs.
var fillScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return 1
`)

// Set stores user for the configured TTL unless the email was evicted less
// than one TTL ago.
func (c *IdentityCache) Set(ctx context.Context, user *domain.User) error {
	if user == nil || user.Email == "" {
		return errors.New("identity cache set: user email is required")
	}

	args := []any{
		c.ttl.Milliseconds(),
		"id", user.ID,
		"username", user.Username,
		"email", user.Email,
		"role", string(user.Role),
		"created_at", user.CreatedAt.Unix(),
		"updated_at", user.UpdatedAt.Unix(),
	}
	written, err := fillScript.Run(ctx, c.client, []string{c.key(user.Email), c.tombstone(user.Email)}, args...).Int()
	if err != nil {
		return fmt.Errorf("identity cache set: %w", err)
	}
	if written == 0 {
		metrics.IdentityCacheSuppressedTotal.Inc()
	}
	return nil
}

// Evict drops the cached identity for email and tombstones it for one TTL.
func (c *IdentityCache) Evict(ctx context.Context, email string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key(email))
		pipe.Set(ctx, c.tombstone(email), 1, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("identity cache evict: %w", err)
	}
	return nil
}

func (c *IdentityCache) key(email string) string {
	return "identity:" + email
}

func (c *IdentityCache) tombstone(email string) string {
	return "evicted-identity:" + email
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
