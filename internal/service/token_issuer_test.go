package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/templui/walletauth/internal/model"
)

func TestIssueSupersedesPendingToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accountID := env.register(t, "supersede@example.com")
	registered := env.mail.lastToken(t)

	env.clock.Advance(DefaultResendInterval)
	first, _, err := env.tokens.Issue(ctx, accountID, model.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}

	env.clock.Advance(DefaultResendInterval)
	second, _, err := env.tokens.Issue(ctx, accountID, model.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	for _, old := range []string{registered, first} {
		_, err = env.tokens.Validate(ctx, old)
		if !errors.Is(err, ErrTokenNotFound) && !errors.Is(err, ErrTokenAlreadyUsed) {
			t.Fatalf("superseded token: expected not found or already used, got %v", err)
		}
	}

	token, err := env.tokens.Validate(ctx, second)
	if err != nil {
		t.Fatalf("latest token should validate: %v", err)
	}
	if token.AccountID != accountID {
		t.Fatalf("token belongs to %s, want %s", token.AccountID, accountID)
	}
}

func TestIssueRateLimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	accountID := env.register(t, "ratelimit@example.com")
	pending := env.mail.lastToken(t)

	env.clock.Advance(DefaultResendInterval - time.Second)
	_, _, err := env.tokens.Issue(ctx, accountID, model.PurposeEmailVerification)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// The refused issuance must leave the pending token usable.
	_, err = env.tokens.Validate(ctx, pending)
	if err != nil {
		t.Fatalf("pending token should still validate: %v", err)
	}

	env.clock.Advance(time.Second)
	_, _, err = env.tokens.Issue(ctx, accountID, model.PurposeEmailVerification)
	if err != nil {
		t.Fatalf("issue after interval: %v", err)
	}
}

func TestValidateConcurrentExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "race@example.com")
	token := env.mail.lastToken(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.tokens.Validate(ctx, token)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrTokenAlreadyUsed):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful validation, got %d", successes)
	}
}

func TestValidateFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "expired@example.com")
	token := env.mail.lastToken(t)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrTokenNotFound},
		{name: "unknown", token: "not-a-real-token", want: ErrTokenNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tokens.Validate(ctx, tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	env.clock.Advance(DefaultTokenTTL)
	_, err := env.tokens.Validate(ctx, token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired at expiry, got %v", err)
	}
}
