package model

import (
	"time"
)

type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
)

// VerificationToken is the persisted half of a verification secret.
// Only the hash is stored; the plaintext leaves the process by email.
type VerificationToken struct {
	ID         string       `db:"id"`
	AccountID  string       `db:"account_id"`
	Purpose    TokenPurpose `db:"purpose"`
	TokenHash  string       `db:"token_hash"`
	ExpiresAt  time.Time    `db:"expires_at"`
	ConsumedAt *time.Time   `db:"consumed_at"`
	CreatedAt  time.Time    `db:"created_at"`
}

func (t *VerificationToken) IsExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *VerificationToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

// TokenIssuance records when a token of a purpose was last issued to an account.
type TokenIssuance struct {
	AccountID    string       `db:"account_id"`
	Purpose      TokenPurpose `db:"purpose"`
	LastIssuedAt time.Time    `db:"last_issued_at"`
}
