package service

import (
	"errors"
	"fmt"

	"github.com/templui/walletauth/internal/wallet"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrTokenNotFound      = errors.New("verification token not found")
	ErrTokenExpired       = errors.New("verification token has expired")
	ErrTokenAlreadyUsed   = errors.New("verification token has already been used")
	ErrRateLimited        = errors.New("too many requests, please try again later")
	ErrInvalidFormat      = wallet.ErrInvalidFormat
	ErrWalletAlreadyBound = errors.New("wallet already bound to another account")
	ErrWalletImmutable    = errors.New("account already has a different wallet")
	ErrChallengeNotFound  = errors.New("wallet challenge not found")
	ErrChallengeExpired   = errors.New("wallet challenge has expired")
	ErrSignatureMismatch  = errors.New("signature does not match wallet address")
	ErrInvalidSession     = errors.New("invalid session")
	ErrUnavailable        = errors.New("identity store unavailable")
)

// ErrDuplicateWallet is the credential store's name for a wallet that is
// already bound elsewhere.
var ErrDuplicateWallet = ErrWalletAlreadyBound

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrDuplicateEmail, "duplicate_email"},
	{ErrWeakPassword, "weak_password"},
	{ErrInvalidEmail, "invalid_email"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrAlreadyVerified, "already_verified"},
	{ErrTokenNotFound, "token_not_found"},
	{ErrTokenExpired, "token_expired"},
	{ErrTokenAlreadyUsed, "token_already_used"},
	{ErrRateLimited, "rate_limited"},
	{ErrInvalidFormat, "invalid_format"},
	{ErrWalletAlreadyBound, "wallet_already_bound"},
	{ErrWalletImmutable, "wallet_immutable"},
	{ErrChallengeNotFound, "challenge_not_found"},
	{ErrChallengeExpired, "challenge_expired"},
	{ErrSignatureMismatch, "signature_mismatch"},
	{ErrInvalidSession, "invalid_session"},
	{ErrUnavailable, "unavailable"},
}

// Kind names the error for logs and metrics: "ok" for nil, "internal" for
// anything outside the taxonomy.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

// unavailable marks a store failure that is not a business rule outcome.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

// classify leaves taxonomy errors alone and marks everything else as a
// store failure.
func classify(err error) error {
	if err == nil || Kind(err) != "internal" {
		return err
	}
	return unavailable(err)
}
