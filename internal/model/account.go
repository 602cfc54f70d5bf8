package model

import (
	"time"
)

type VerificationStatus string

const (
	StatusUnverified VerificationStatus = "unverified"
	StatusVerified   VerificationStatus = "verified"
)

type Account struct {
	ID                 string             `db:"id" json:"id"`
	Email              string             `db:"email" json:"email"`
	PasswordHash       string             `db:"password_hash" json:"-"`
	VerificationStatus VerificationStatus `db:"verification_status" json:"verification_status"`
	WalletAddress      *string            `db:"wallet_address" json:"wallet_address,omitempty"`
	WalletChain        *string            `db:"wallet_chain" json:"wallet_chain,omitempty"`
	EmailVerifiedAt    *time.Time         `db:"email_verified_at" json:"email_verified_at,omitempty"`
	WalletBoundAt      *time.Time         `db:"wallet_bound_at" json:"wallet_bound_at,omitempty"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}

func (a *Account) IsVerified() bool {
	return a.VerificationStatus == StatusVerified
}

func (a *Account) HasWallet() bool {
	return a.WalletAddress != nil && *a.WalletAddress != ""
}
