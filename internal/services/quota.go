package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// quotaKeyTTL keeps yesterday's counters around briefly for inspection.
const quotaKeyTTL = 48 * time.Hour

// QuotaKey builds the per-user per-day counter key. The budget resets when
// the calendar date string rolls over.
func QuotaKey(userID string, day time.Time) string {
	return fmt.Sprintf("quota:%s:%s", userID, day.Format("2006-01-02"))
}

// QuotaService tracks the advisory per-user daily upload budget in redis
type QuotaService struct {
	rdb   *redis.Client
	limit int64
	now   func() time.Time
}

// NewQuotaService creates a new quota service
func NewQuotaService(rdb *redis.Client, limitBytes int64) *QuotaService {
	return &QuotaService{rdb: rdb, limit: limitBytes, now: time.Now}
}

// Remaining reports how many bytes the user may still upload today
func (s *QuotaService) Remaining(ctx context.Context, userID string) (int64, error) {
	used, err := s.rdb.Get(ctx, QuotaKey(userID, s.now())).Int64()
	if err != nil && err != redis.Nil {
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}
	if used >= s.limit {
		return 0, nil
	}
	return s.limit - used, nil
}

// Consume charges an upload against today's budget. The check is advisory:
// a racing pair of uploads may both pass, which is acceptable for a
// client-enforced limit.
func (s *QuotaService) Consume(ctx context.Context, userID string, bytes int64) error {
	key := QuotaKey(userID, s.now())

	used, err := s.rdb.Get(ctx, key).Int64()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read quota counter: %w", err)
	}
	if used+bytes > s.limit {
		return ErrQuotaExceeded
	}

	pipe := s.rdb.TxPipeline()
	pipe.IncrBy(ctx, key, bytes)
	pipe.Expire(ctx, key, quotaKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update quota counter: %w", err)
	}
	return nil
}
