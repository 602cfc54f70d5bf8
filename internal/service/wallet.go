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
	"github.com/templui/walletauth/internal/wallet"
)

const (
	DefaultChallengeTTL = 5 * time.Minute
	challengeNonceBytes = 32
)

// Challenge is what a wallet owner needs to prove key possession.
type Challenge struct {
	Address   string
	Chain     string
	Nonce     string
	Message   string
	ExpiresAt time.Time
}

// WalletVerifier binds wallets to accounts through a signed challenge.
type WalletVerifier struct {
	store   repository.Store
	appName string
	ttl     time.Duration
	now     func() time.Time
}

func NewWalletVerifier(store repository.Store, appName string, ttl time.Duration) *WalletVerifier {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &WalletVerifier{
		store:   store,
		appName: appName,
		ttl:     ttl,
		now:     utcNow,
	}
}

// ValidateFormat is a pure syntax check. It never touches the store.
func (v *WalletVerifier) ValidateFormat(address string) (wallet.Address, error) {
	addr, err := wallet.Parse(address)
	if err != nil {
		return wallet.Address{}, err
	}
	return addr, nil
}

func (v *WalletVerifier) IssueChallenge(ctx context.Context, accountID, address string) (*Challenge, error) {
	addr, err := v.ValidateFormat(address)
	if err != nil {
		return nil, err
	}

	nonce, err := security.GenerateNonce(challengeNonceBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := v.now()
	challenge := &model.WalletChallenge{
		AccountID:     accountID,
		WalletAddress: addr.Canonical,
		Chain:         string(addr.Chain),
		Nonce:         nonce,
		ExpiresAt:     now.Add(v.ttl),
		CreatedAt:     now,
	}

	err = v.store.InTx(ctx, func(tx repository.Store) error {
		account, err := tx.Accounts().ByID(ctx, accountID)
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return unavailable(err)
		}
		if account.HasWallet() && *account.WalletAddress != addr.Canonical {
			return ErrWalletImmutable
		}

		owner, err := tx.Accounts().ByWalletAddress(ctx, addr.Canonical)
		switch {
		case err == nil && owner.ID != accountID:
			return ErrWalletAlreadyBound
		case err != nil && !errors.Is(err, repository.ErrAccountNotFound):
			return unavailable(err)
		}

		err = tx.Challenges().Replace(ctx, challenge)
		if err != nil {
			return unavailable(err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	slog.Info("wallet challenge issued", "account_id", accountID, "chain", addr.Chain)
	return &Challenge{
		Address:   addr.Canonical,
		Chain:     string(addr.Chain),
		Nonce:     nonce,
		Message:   wallet.ChallengeMessage(v.appName, accountID, addr, nonce),
		ExpiresAt: challenge.ExpiresAt,
	}, nil
}

// VerifySignature consumes the outstanding challenge, checks the signature
// over the challenge message and binds the wallet. The challenge is gone
// after this call whatever the outcome, including a malformed or different
// address.
func (v *WalletVerifier) VerifySignature(ctx context.Context, accountID, address, signature string) (*model.Account, error) {
	challenge, err := v.store.Challenges().Take(ctx, accountID)
	if errors.Is(err, repository.ErrChallengeNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}

	addr, err := v.ValidateFormat(address)
	if err != nil {
		return nil, err
	}
	if addr.Canonical != challenge.WalletAddress {
		slog.Warn("wallet challenge address mismatch", "account_id", accountID, "chain", addr.Chain)
		return nil, ErrChallengeNotFound
	}

	now := v.now()
	if challenge.IsExpiredAt(now) {
		return nil, ErrChallengeExpired
	}

	message := wallet.ChallengeMessage(v.appName, accountID, addr, challenge.Nonce)
	err = wallet.VerifySignature(addr, []byte(message), signature)
	if err != nil {
		slog.Warn("wallet signature rejected", "account_id", accountID, "chain", addr.Chain, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	}

	err = v.store.Accounts().BindWallet(ctx, accountID, string(addr.Chain), addr.Canonical, now)
	switch {
	case errors.Is(err, repository.ErrDuplicateWallet):
		return nil, ErrWalletAlreadyBound
	case errors.Is(err, repository.ErrWalletImmutable):
		return nil, ErrWalletImmutable
	case errors.Is(err, repository.ErrAccountNotFound):
		return nil, ErrAccountNotFound
	case err != nil:
		return nil, unavailable(err)
	}

	account, err := v.store.Accounts().ByID(ctx, accountID)
	if err != nil {
		return nil, unavailable(err)
	}

	slog.Info("wallet bound", "account_id", accountID, "chain", addr.Chain)
	return account, nil
}
