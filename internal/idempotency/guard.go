// Package idempotency provides a best-effort double-submit guard backed by
// redis. Checkout and payment handlers use it to reject a retried request
// carrying the same Idempotency-Key while the first attempt is still fresh.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// DefaultTTL bounds how long a claimed key blocks a duplicate submission.
const DefaultTTL = 10 * time.Minute

type Guard struct {
	client *redis.Client
	script *redis.Script
}

// NewGuard returns nil when redis is not configured; a nil Guard accepts
// every request. Idempotency is an operational nicety here, not a
// correctness requirement.
func NewGuard(client *redis.Client) *Guard {
	if client == nil {
		return nil
	}
	return &Guard{
		client: client,
		script: redis.NewScript(releaseScript),
	}
}

// Claim reserves (orgID, key) for ttl. It returns ok=false when another
// request already holds the key. The returned token releases the claim
// early via Release; callers that want the duplicate window to last the
// full ttl simply never release.
func (g *Guard) Claim(ctx context.Context, orgID, key string, ttl time.Duration) (string, bool, error) {
	if g == nil || g.client == nil {
		return "", true, nil
	}
	if key == "" {
		return "", true, nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, claimKey(orgID, key), token, ttl).Result()
	if err != nil {
		// Redis being down must not take checkout down with it; the caller
		// logs the error and lets the request through.
		return "", true, err
	}
	return token, ok, nil
}

// Release frees a claim so the caller can retry immediately, used when the
// guarded operation failed before producing any durable effect.
func (g *Guard) Release(ctx context.Context, orgID, key, token string) error {
	if g == nil || g.client == nil || key == "" || token == "" {
		return nil
	}
	return g.script.Run(ctx, g.client, []string{claimKey(orgID, key)}, token).Err()
}

func claimKey(orgID, key string) string {
	return fmt.Sprintf("idem:%s:%s", orgID, key)
}
