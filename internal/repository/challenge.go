package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/templui/walletauth/internal/model"
)

var ErrChallengeNotFound = errors.New("wallet challenge not found")

type ChallengeRepository interface {
	Replace(ctx context.Context, challenge *model.WalletChallenge) error
	Take(ctx context.Context, accountID string) (*model.WalletChallenge, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type challengeRepository struct {
	db queryer
}

// Replace stores the challenge as the only outstanding one for its account.
func (r *challengeRepository) Replace(ctx context.Context, challenge *model.WalletChallenge) error {
	if challenge.ID == "" {
		challenge.ID = uuid.New().String()
	}
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM wallet_challenges WHERE account_id = $1`, challenge.AccountID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO wallet_challenges (id, account_id, wallet_address, chain, nonce, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		challenge.ID,
		challenge.AccountID,
		challenge.WalletAddress,
		challenge.Chain,
		challenge.Nonce,
		challenge.ExpiresAt,
		challenge.CreatedAt,
	)
	return err
}

// Take deletes and returns the account's outstanding challenge. A challenge
// can be taken once; address and expiry are left for the caller to judge.
func (r *challengeRepository) Take(ctx context.Context, accountID string) (*model.WalletChallenge, error) {
	var c model.WalletChallenge
	query := `DELETE FROM wallet_challenges WHERE account_id = $1 RETURNING *`
	err := r.db.GetContext(ctx, &c, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *challengeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wallet_challenges WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
