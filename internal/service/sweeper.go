package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/templui/walletauth/internal/metrics"
	"github.com/templui/walletauth/internal/repository"
)

const DefaultTokenRetention = 7 * 24 * time.Hour

// Sweeper deletes expired tokens and challenges. Consumed tokens are kept
// for the retention window so a replayed link still reports "already used".
type Sweeper struct {
	store     repository.Store
	retention time.Duration
	now       func() time.Time
}

func NewSweeper(store repository.Store, retention time.Duration) *Sweeper {
	if retention <= 0 {
		retention = DefaultTokenRetention
	}
	return &Sweeper{
		store:     store,
		retention: retention,
		now:       utcNow,
	}
}

// SweepResult counts what a sweep removed.
type SweepResult struct {
	Tokens     int64
	Challenges int64
}

func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := s.now()

	tokens, err := s.store.Tokens().CleanupExpired(ctx, now.Add(-s.retention))
	if err != nil {
		return result, unavailable(err)
	}
	result.Tokens = tokens
	metrics.SweptRecords.WithLabelValues("token").Add(float64(tokens))

	challenges, err := s.store.Challenges().DeleteExpired(ctx, now)
	if err != nil {
		return result, unavailable(err)
	}
	result.Challenges = challenges
	metrics.SweptRecords.WithLabelValues("challenge").Add(float64(challenges))

	if tokens > 0 || challenges > 0 {
		slog.Info("swept expired records", "tokens", tokens, "challenges", challenges)
	}
	return result, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := s.SweepOnce(ctx)
			if err != nil && ctx.Err() == nil {
				slog.Error("sweep failed", "error", err)
			}
		}
	}
}
