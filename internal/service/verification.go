package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/templui/walletauth/internal/model"
	"github.com/templui/walletauth/internal/repository"
)

// VerificationService moves accounts from unverified to verified.
type VerificationService struct {
	store  repository.Store
	tokens *TokenIssuer
	now    func() time.Time
}

func NewVerificationService(store repository.Store, tokens *TokenIssuer) *VerificationService {
	return &VerificationService{
		store:  store,
		tokens: tokens,
		now:    utcNow,
	}
}

// Verify consumes an email verification token and marks its account
// verified. Consuming the token and the status change commit together.
// A valid token for an account that is already verified is a no-op.
func (s *VerificationService) Verify(ctx context.Context, plaintext string) (*model.Account, error) {
	var account *model.Account

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		token, err := s.tokens.ValidateTx(ctx, tx, plaintext)
		if err != nil {
			return err
		}

		// Tokens never cross purposes or accounts; report the same thing as
		// an unknown token.
		if token.Purpose != model.PurposeEmailVerification {
			return ErrTokenNotFound
		}

		acct, err := tx.Accounts().ByID(ctx, token.AccountID)
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrTokenNotFound
		}
		if err != nil {
			return unavailable(err)
		}

		if acct.IsVerified() {
			slog.Info("email verification repeated on verified account", "account_id", acct.ID)
			account = acct
			return nil
		}

		now := s.now()
		err = tx.Accounts().MarkVerified(ctx, acct.ID, now)
		if err != nil {
			return unavailable(err)
		}

		acct.VerificationStatus = model.StatusVerified
		acct.EmailVerifiedAt = &now
		acct.UpdatedAt = now
		account = acct
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	slog.Info("email verified", "account_id", account.ID)
	return account, nil
}

func (s *VerificationService) Status(ctx context.Context, accountID string) (model.VerificationStatus, error) {
	account, err := s.store.Accounts().ByID(ctx, accountID)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", unavailable(err)
	}
	return account.VerificationStatus, nil
}
