package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/walletauth/internal/model"
	"github.com/templui/walletauth/internal/repository"
	"github.com/templui/walletauth/internal/security"
)

const (
	DefaultTokenTTL       = 24 * time.Hour
	DefaultResendInterval = 60 * time.Second
)

// TokenIssuer owns the lifecycle of single-use verification tokens.
type TokenIssuer struct {
	store          repository.Store
	ttl            time.Duration
	resendInterval time.Duration
	now            func() time.Time
}

func NewTokenIssuer(store repository.Store, ttl, resendInterval time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if resendInterval < 0 {
		resendInterval = 0
	}
	return &TokenIssuer{
		store:          store,
		ttl:            ttl,
		resendInterval: resendInterval,
		now:            utcNow,
	}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue creates a new token for the account and purpose, superseding any
// unconsumed one. The returned plaintext is never stored.
func (i *TokenIssuer) Issue(ctx context.Context, accountID string, purpose model.TokenPurpose) (string, *model.VerificationToken, error) {
	var plaintext string
	var token *model.VerificationToken

	err := i.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		plaintext, token, err = i.IssueTx(ctx, tx, accountID, purpose)
		return err
	})
	if err != nil {
		return "", nil, classify(err)
	}
	return plaintext, token, nil
}

// IssueTx is Issue inside a transaction owned by the caller.
func (i *TokenIssuer) IssueTx(ctx context.Context, tx repository.Store, accountID string, purpose model.TokenPurpose) (string, *model.VerificationToken, error) {
	now := i.now()

	err := tx.Tokens().ReserveIssuance(ctx, accountID, purpose, now, i.resendInterval)
	if errors.Is(err, repository.ErrIssueTooSoon) {
		return "", nil, ErrRateLimited
	}
	if err != nil {
		return "", nil, unavailable(err)
	}

	superseded, err := tx.Tokens().SupersedeActive(ctx, accountID, purpose)
	if err != nil {
		return "", nil, unavailable(err)
	}

	plaintext, hash, err := security.GenerateToken()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := &model.VerificationToken{
		AccountID: accountID,
		Purpose:   purpose,
		TokenHash: hash,
		ExpiresAt: now.Add(i.ttl),
		CreatedAt: now,
	}
	err = tx.Tokens().Create(ctx, token)
	if err != nil {
		return "", nil, unavailable(err)
	}

	if superseded > 0 {
		slog.Debug("superseded verification tokens", "account_id", accountID, "purpose", purpose, "count", superseded)
	}
	return plaintext, token, nil
}

// Validate consumes the token. It succeeds at most once per token.
func (i *TokenIssuer) Validate(ctx context.Context, plaintext string) (*model.VerificationToken, error) {
	return i.ValidateTx(ctx, i.store, plaintext)
}

// ValidateTx is Validate against the given (possibly transaction-bound) store.
func (i *TokenIssuer) ValidateTx(ctx context.Context, tx repository.Store, plaintext string) (*model.VerificationToken, error) {
	if plaintext == "" {
		return nil, ErrTokenNotFound
	}
	hash := security.HashToken(plaintext)

	token, err := tx.Tokens().Consume(ctx, hash, i.now())
	switch {
	case errors.Is(err, repository.ErrTokenNotFound):
		return nil, ErrTokenNotFound
	case errors.Is(err, repository.ErrTokenUsed):
		return nil, ErrTokenAlreadyUsed
	case errors.Is(err, repository.ErrTokenExpired):
		return nil, ErrTokenExpired
	case err != nil:
		return nil, unavailable(err)
	}
	return token, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
