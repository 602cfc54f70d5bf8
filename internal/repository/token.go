package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/templui/walletauth/internal/model"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token has expired")
	ErrTokenUsed     = errors.New("token has already been used")
	ErrIssueTooSoon  = errors.New("token issued too recently")
)

type TokenRepository interface {
	ReserveIssuance(ctx context.Context, accountID string, purpose model.TokenPurpose, now time.Time, minInterval time.Duration) error
	SupersedeActive(ctx context.Context, accountID string, purpose model.TokenPurpose) (int64, error)
	Create(ctx context.Context, token *model.VerificationToken) error
	ByHash(ctx context.Context, tokenHash string) (*model.VerificationToken, error)
	Consume(ctx context.Context, tokenHash string, now time.Time) (*model.VerificationToken, error)
	CleanupExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type tokenRepository struct {
	db queryer
}

// ReserveIssuance advances the last-issued timestamp for (account, purpose)
// only when the previous issuance is at least minInterval old. The check and
// the write are one statement, so two racing issuers cannot both pass.
func (r *tokenRepository) ReserveIssuance(ctx context.Context, accountID string, purpose model.TokenPurpose, now time.Time, minInterval time.Duration) error {
	query := `
		INSERT INTO token_issuances (account_id, purpose, last_issued_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, purpose) DO UPDATE
		SET last_issued_at = excluded.last_issued_at
		WHERE token_issuances.last_issued_at <= $4
	`
	result, err := r.db.ExecContext(ctx, query, accountID, purpose, now, now.Add(-minInterval))
	if err != nil {
		return err
	}
	return requireRow(result, ErrIssueTooSoon)
}

// SupersedeActive removes every unconsumed token of the purpose for the account.
func (r *tokenRepository) SupersedeActive(ctx context.Context, accountID string, purpose model.TokenPurpose) (int64, error) {
	query := `DELETE FROM verification_tokens WHERE account_id = $1 AND purpose = $2 AND consumed_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, accountID, purpose)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *tokenRepository) Create(ctx context.Context, token *model.VerificationToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO verification_tokens (id, account_id, purpose, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.AccountID,
		token.Purpose,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

func (r *tokenRepository) ByHash(ctx context.Context, tokenHash string) (*model.VerificationToken, error) {
	var t model.VerificationToken
	err := r.db.GetContext(ctx, &t, `SELECT * FROM verification_tokens WHERE token_hash = $1`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Consume atomically marks the token as used and returns it.
// Only one caller can flip consumed_at; everyone else gets the reason the
// token is not usable: not found, already used or expired.
func (r *tokenRepository) Consume(ctx context.Context, tokenHash string, now time.Time) (*model.VerificationToken, error) {
	var t model.VerificationToken

	query := `
		UPDATE verification_tokens
		SET consumed_at = $1
		WHERE token_hash = $2
		AND consumed_at IS NULL
		AND expires_at > $3
		RETURNING *
	`
	err := r.db.GetContext(ctx, &t, query, now, tokenHash, now)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	existing, err := r.ByHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if existing.IsConsumed() {
		return nil, ErrTokenUsed
	}
	return nil, ErrTokenExpired
}

// CleanupExpired removes consumed tokens and tokens that expired before cutoff.
func (r *tokenRepository) CleanupExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM verification_tokens
		WHERE (consumed_at IS NOT NULL AND consumed_at < $1)
		   OR (expires_at < $2)
	`
	result, err := r.db.ExecContext(ctx, query, cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
