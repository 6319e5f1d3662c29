package services

import (
	"context"
	"time"

	"campus-portal-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// RepairService periodically re-derives the denormalized fields that the
// non-atomic write pairs can leave stale: conversation summaries and post
// reply counts. Every pass is idempotent.
type RepairService struct {
	convRepo *repository.ConversationRepository
	postRepo *repository.PostRepository
}

// NewRepairService creates a new repair service
func NewRepairService(convRepo *repository.ConversationRepository, postRepo *repository.PostRepository) *RepairService {
	return &RepairService{convRepo: convRepo, postRepo: postRepo}
}

// Run executes one repair pass
func (s *RepairService) Run(ctx context.Context) error {
	summaries, err := s.convRepo.RecomputeSummaries(ctx)
	if err != nil {
		return err
	}
	counts, err := s.postRepo.RecomputeReplyCounts(ctx)
	if err != nil {
		return err
	}
	if summaries > 0 || counts > 0 {
		log.Info().
			Int64("conversation_summaries", summaries).
			Int64("post_reply_counts", counts).
			Msg("Repair pass corrected drifted rows")
	}
	return nil
}

// RunPeriodic repairs on an interval until the context is cancelled
func (s *RepairService) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Repair pass failed")
			}
		}
	}
}
