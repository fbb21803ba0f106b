package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ryanluriea/blaidtrades/internal/fleet/readiness"
)

const (
	readinessKey = "blaidtrades:readiness:latest"
	readinessTTL = 30 * time.Second
)

// ReadinessPublisher pushes the latest readiness verdict to redis so every
// dashboard instance renders the same admission state without re-running the
// gate. The short TTL means a dead publisher reads as UNKNOWN, not as stale
// green.
type ReadinessPublisher struct {
	client redis.Cmdable
}

// NewReadinessPublisher wraps a redis client (or a redismock in tests).
func NewReadinessPublisher(client redis.Cmdable) *ReadinessPublisher {
	return &ReadinessPublisher{client: client}
}

// Publish stores the result under the shared key.
func (p *ReadinessPublisher) Publish(ctx context.Context, result readiness.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding readiness result: %w", err)
	}
	if err := p.client.Set(ctx, readinessKey, payload, readinessTTL).Err(); err != nil {
		return fmt.Errorf("publishing readiness result: %w", err)
	}
	return nil
}

// Latest fetches the last published result. The second return is false when
// no fresh result exists.
func (p *ReadinessPublisher) Latest(ctx context.Context) (readiness.Result, bool, error) {
	payload, err := p.client.Get(ctx, readinessKey).Bytes()
	if err == redis.Nil {
		return readiness.Result{}, false, nil
	}
	if err != nil {
		return readiness.Result{}, false, fmt.Errorf("fetching readiness result: %w", err)
	}
	var result readiness.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return readiness.Result{}, false, fmt.Errorf("decoding readiness result: %w", err)
	}
	return result, true, nil
}
