package accounts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// tokenDigest keys the registry by a SHA-256 digest so raw session tokens
// never sit in the revocation store.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MemoryRevoker is a process wide revocation registry backed by a set.
// Entries live for the life of the process; revocation layers on top of the
// token's own expiry, so losing the set on restart is acceptable.
type MemoryRevoker struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

// NewMemoryRevoker creates an empty registry
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		revoked: make(map[string]struct{}),
	}
}

// Revoke adds the token to the registry. Re-adding an already revoked token
// is a no-op.
func (r *MemoryRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revoked[tokenDigest(token)] = struct{}{}
	return nil
}

// IsRevoked reports whether the token has been revoked
func (r *MemoryRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.revoked[tokenDigest(token)]
	return ok, nil
}

var _ TokenRevoker = (*MemoryRevoker)(nil)

const redisRevokedPrefix = "accounts:revoked:"

// RedisRevoker is a revocation registry shared across processes. Entries
// carry a TTL matching the token lifetime so Redis evicts them once the
// token would have expired on its own anyway.
type RedisRevoker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRevoker creates a registry on the given client
func NewRedisRevoker(client redis.UniversalClient) *RedisRevoker {
	return &RedisRevoker{
		client: client,
		prefix: redisRevokedPrefix,
	}
}

// Revoke inserts the token digest with the given TTL. A non positive TTL
// stores the entry without expiry.
func (r *RedisRevoker) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	if err := r.client.Set(ctx, r.prefix+tokenDigest(token), "1", ttl).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record token revocation")
	}

	return nil
}

// IsRevoked reports whether the token digest is present
func (r *RedisRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+tokenDigest(token)).Result()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check token revocation")
	}

	return n > 0, nil
}

var _ TokenRevoker = (*RedisRevoker)(nil)
