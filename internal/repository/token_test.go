package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/templui/walletauth/internal/model"
)

func createToken(t *testing.T, store Store, accountID, hash string, expiresAt time.Time) {
	t.Helper()
	err := store.Tokens().Create(context.Background(), &model.VerificationToken{
		AccountID: accountID,
		Purpose:   model.PurposeEmailVerification,
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
}

func TestReserveIssuance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := createAccount(t, store, "gate@x.com")
	tokens := store.Tokens()

	err := tokens.ReserveIssuance(ctx, account.ID, model.PurposeEmailVerification, testNow, time.Minute)
	if err != nil {
		t.Fatalf("first reservation: %v", err)
	}

	err = tokens.ReserveIssuance(ctx, account.ID, model.PurposeEmailVerification, testNow.Add(30*time.Second), time.Minute)
	if !errors.Is(err, ErrIssueTooSoon) {
		t.Fatalf("expected ErrIssueTooSoon, got %v", err)
	}

	err = tokens.ReserveIssuance(ctx, account.ID, model.PurposeEmailVerification, testNow.Add(time.Minute), time.Minute)
	if err != nil {
		t.Fatalf("reservation after interval: %v", err)
	}
}

func TestReserveIssuanceConcurrent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := createAccount(t, store, "burst@x.com")

	err := store.Tokens().ReserveIssuance(ctx, account.ID, model.PurposeEmailVerification, testNow, time.Minute)
	if err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	const workers = 6
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	later := testNow.Add(2 * time.Minute)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Tokens().ReserveIssuance(ctx, account.ID, model.PurposeEmailVerification, later, time.Minute)
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrIssueTooSoon):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected one reservation to win, got %d", successes)
	}
}

func TestConsume(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := createAccount(t, store, "consume@x.com")
	createToken(t, store, account.ID, "live", testNow.Add(time.Hour))
	createToken(t, store, account.ID, "stale", testNow.Add(-time.Second))

	token, err := store.Tokens().Consume(ctx, "live", testNow)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if token.ConsumedAt == nil || !token.ConsumedAt.Equal(testNow) {
		t.Fatalf("consumed_at not set: %+v", token)
	}

	tests := []struct {
		hash string
		want error
	}{
		{hash: "live", want: ErrTokenUsed},
		{hash: "stale", want: ErrTokenExpired},
		{hash: "missing", want: ErrTokenNotFound},
	}
	for _, tt := range tests {
		_, err := store.Tokens().Consume(ctx, tt.hash, testNow)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.hash, tt.want, err)
		}
	}
}

func TestSupersedeAndCleanup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := createAccount(t, store, "cleanup@x.com")
	createToken(t, store, account.ID, "used", testNow.Add(time.Hour))
	createToken(t, store, account.ID, "pending", testNow.Add(time.Hour))

	_, err := store.Tokens().Consume(ctx, "used", testNow)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	removed, err := store.Tokens().SupersedeActive(ctx, account.ID, model.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("supersede: %v", err)
	}
	if removed != 1 {
		t.Fatalf("superseded %d tokens, want 1", removed)
	}
	if _, err := store.Tokens().ByHash(ctx, "used"); err != nil {
		t.Fatalf("consumed token must survive supersede: %v", err)
	}

	removed, err = store.Tokens().CleanupExpired(ctx, testNow.Add(time.Second))
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("cleaned %d tokens, want 1", removed)
	}
}
