package services

import (
	"context"
	"time"

	"campus-portal-backend/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// presenceTTL lets a dropped connection age out even if teardown never ran.
const presenceTTL = 90 * time.Second

// PresenceService tracks who is online. The online flag lives in redis with
// a TTL; last-seen is persisted on the user row when the connection goes away.
type PresenceService struct {
	rdb      *redis.Client
	userRepo *repository.UserRepository
}

// NewPresenceService creates a new presence service
func NewPresenceService(rdb *redis.Client, userRepo *repository.UserRepository) *PresenceService {
	return &PresenceService{rdb: rdb, userRepo: userRepo}
}

func presenceKey(userID string) string { return "presence:" + userID }

// Online marks the user online; callers refresh it while the connection lives
func (s *PresenceService) Online(ctx context.Context, userID string) {
	if err := s.rdb.Set(ctx, presenceKey(userID), "1", presenceTTL).Err(); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to set presence")
	}
}

// Offline clears the online flag and stamps last-seen; best effort
func (s *PresenceService) Offline(ctx context.Context, userID string) {
	if err := s.rdb.Del(ctx, presenceKey(userID)).Err(); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to clear presence")
	}
	if err := s.userRepo.SetLastSeen(ctx, userID, time.Now()); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to stamp last seen")
	}
}

// IsOnline reports whether the user currently has a live connection
func (s *PresenceService) IsOnline(ctx context.Context, userID string) bool {
	n, err := s.rdb.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to check presence")
		return false
	}
	return n > 0
}
