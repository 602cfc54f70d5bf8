package service

import (
	"context"
	"testing"
	"time"
)

func TestSweepOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accountID := env.register(t, "sweep@example.com")
	_, address := newEthereumKey(t)

	_, err := env.wallets.IssueChallenge(ctx, accountID, address)
	if err != nil {
		t.Fatalf("issue challenge: %v", err)
	}

	sweeper := NewSweeper(env.store, time.Hour)
	sweeper.now = env.clock.Now

	result, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Tokens != 0 || result.Challenges != 0 {
		t.Fatalf("fresh records were swept: %+v", result)
	}

	env.clock.Advance(DefaultTokenTTL + 2*time.Hour)
	result, err = sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Tokens != 1 || result.Challenges != 1 {
		t.Fatalf("expected one token and one challenge swept, got %+v", result)
	}
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	sweeper := NewSweeper(env.store, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop after cancel")
	}
}
