package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/templui/walletauth/internal/model"
)

func TestChallengeReplaceAndTake(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := createAccount(t, store, "wallet@x.com")
	challenges := store.Challenges()

	for _, nonce := range []string{"first", "second"} {
		err := challenges.Replace(ctx, &model.WalletChallenge{
			AccountID:     account.ID,
			WalletAddress: "0xAAA",
			Chain:         "ethereum",
			Nonce:         nonce,
			ExpiresAt:     testNow.Add(5 * time.Minute),
			CreatedAt:     testNow,
		})
		if err != nil {
			t.Fatalf("replace %s: %v", nonce, err)
		}
	}

	challenge, err := challenges.Take(ctx, account.ID)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if challenge.Nonce != "second" || challenge.WalletAddress != "0xAAA" {
		t.Fatalf("took %s for %s, want the latest challenge", challenge.Nonce, challenge.WalletAddress)
	}

	_, err = challenges.Take(ctx, account.ID)
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("second take: expected ErrChallengeNotFound, got %v", err)
	}
}

func TestChallengeDeleteExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	account := createAccount(t, store, "expire@x.com")

	err := store.Challenges().Replace(ctx, &model.WalletChallenge{
		AccountID:     account.ID,
		WalletAddress: "0xAAA",
		Chain:         "ethereum",
		Nonce:         "n",
		ExpiresAt:     testNow,
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	removed, err := store.Challenges().DeleteExpired(ctx, testNow)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 0 {
		t.Fatalf("challenge expiring now was removed early")
	}

	removed, err = store.Challenges().DeleteExpired(ctx, testNow.Add(time.Second))
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed %d challenges, want 1", removed)
	}
}
