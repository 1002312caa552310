package payments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmercadier/raccordement-platform/internal/requests"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

const referenceCacheKeyPrefix = "payments:ref:"

// ReferenceLookup resolves a service request by its reference number.
type ReferenceLookup interface {
	GetByReference(ctx context.Context, reference string) (*requests.ServiceRequest, error)
}

// CachedReferenceLookup is a short-TTL read-through cache in front of the
// requests repository, used by the payment page pre-check. Not-found results
// and cache failures fall through to the inner lookup; the cache is never
// authoritative for absence.
type CachedReferenceLookup struct {
	inner  ReferenceLookup
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedReferenceLookup wraps a lookup with a Redis read-through cache.
func NewCachedReferenceLookup(inner ReferenceLookup, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedReferenceLookup {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedReferenceLookup{inner: inner, client: client, ttl: ttl, logger: logger}
}

// GetByReference implements ReferenceLookup.
func (c *CachedReferenceLookup) GetByReference(ctx context.Context, reference string) (*requests.ServiceRequest, error) {
	key := referenceCacheKeyPrefix + requests.CanonicalReference(reference)

	if c.client != nil {
		data, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			var req requests.ServiceRequest
			if json.Unmarshal(data, &req) == nil {
				return &req, nil
			}
		} else if err != redis.Nil {
			c.logger.Warn("reference cache read failed", "error", err, "reference", reference)
		}
	}

	req, err := c.inner.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if c.client != nil {
		if data, err := json.Marshal(req); err == nil {
			if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.logger.Warn("reference cache write failed", "error", err, "reference", reference)
			}
		}
	}
	return req, nil
}

// Invalidate drops a cached reference, used after its payment status changes.
func (c *CachedReferenceLookup) Invalidate(ctx context.Context, reference string) {
	if c.client == nil {
		return
	}
	key := referenceCacheKeyPrefix + requests.CanonicalReference(reference)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("reference cache invalidate failed", "error", err, "reference", reference)
	}
}
