package model

import (
	"time"
)

type WalletChallenge struct {
	ID            string    `db:"id"`
	AccountID     string    `db:"account_id"`
	WalletAddress string    `db:"wallet_address"`
	Chain         string    `db:"chain"`
	Nonce         string    `db:"nonce"`
	ExpiresAt     time.Time `db:"expires_at"`
	CreatedAt     time.Time `db:"created_at"`
}

func (c *WalletChallenge) IsExpiredAt(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
