package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/walletauth/internal/metrics"
	"github.com/templui/walletauth/internal/model"
	"github.com/templui/walletauth/internal/repository"
	"github.com/templui/walletauth/internal/security"
	"github.com/templui/walletauth/internal/validation"
	"github.com/templui/walletauth/internal/wallet"
)

type RegisterRequest struct {
	Email    string
	Password string
}

// RegisterResult reports the new account. EmailSent is false when the
// account was created but the verification email could not be dispatched.
type RegisterResult struct {
	Account   *model.Account
	EmailSent bool
}

type LoginRequest struct {
	Email    string
	Password string
}

type AuthResult struct {
	Account   *model.Account
	Token     string
	ExpiresAt time.Time
}

type VerifyWalletRequest struct {
	AccountID string
	Address   string
	Signature string
}

// IdentityService is the entry point for the route layer. It takes typed
// requests and returns typed results or taxonomy errors.
type IdentityService struct {
	store        repository.Store
	hasher       security.PasswordHasher
	tokens       *TokenIssuer
	verification *VerificationService
	wallets      *WalletVerifier
	sessions     *SessionIssuer
	email        EmailSender
	appURL       string
	dummyHash    string
}

func NewIdentityService(
	store repository.Store,
	hasher security.PasswordHasher,
	tokens *TokenIssuer,
	verification *VerificationService,
	wallets *WalletVerifier,
	sessions *SessionIssuer,
	email EmailSender,
	appURL string,
) *IdentityService {
	// Unknown emails are checked against this hash so a miss costs as much
	// as a wrong password.
	dummyHash, err := hasher.Hash("walletauth-timing-equalizer")
	if err != nil {
		slog.Warn("failed to prepare dummy password hash", "error", err)
	}

	return &IdentityService{
		store:        store,
		hasher:       hasher,
		tokens:       tokens,
		verification: verification,
		wallets:      wallets,
		sessions:     sessions,
		email:        email,
		appURL:       strings.TrimSuffix(appURL, "/"),
		dummyHash:    dummyHash,
	}
}

func (s *IdentityService) Register(ctx context.Context, req RegisterRequest) (result *RegisterResult, err error) {
	defer func() { observe("register", err) }()

	email := validation.NormalizeEmail(req.Email)
	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	err = validation.ValidatePassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		Email:              email,
		PasswordHash:       hash,
		VerificationStatus: model.StatusUnverified,
	}

	var plaintext string
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		err := tx.Accounts().Create(ctx, account)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return ErrDuplicateEmail
		}
		if err != nil {
			return unavailable(err)
		}

		plaintext, _, err = s.tokens.IssueTx(ctx, tx, account.ID, model.PurposeEmailVerification)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	slog.Info("account registered", "account_id", account.ID)

	sent := s.dispatch(ctx, account, plaintext)
	return &RegisterResult{Account: account, EmailSent: sent}, nil
}

// Login succeeds for unverified accounts too; verification gates features,
// not sign-in.
func (s *IdentityService) Login(ctx context.Context, req LoginRequest) (result *AuthResult, err error) {
	defer func() { observe("login", err) }()

	email := validation.NormalizeEmail(req.Email)

	account, err := s.store.Accounts().ByEmail(ctx, email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		s.hasher.Verify(req.Password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, unavailable(err)
	}

	if !s.hasher.Verify(req.Password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	slog.Info("account logged in", "account_id", account.ID, "verified", account.IsVerified())
	return &AuthResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

// ResendVerification issues a fresh email token, superseding the pending
// one. Callers facing the public should not reveal which error occurred.
func (s *IdentityService) ResendVerification(ctx context.Context, email string) (err error) {
	defer func() { observe("resend_verification", err) }()

	email = validation.NormalizeEmail(email)

	account, err := s.store.Accounts().ByEmail(ctx, email)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return unavailable(err)
	}

	if account.IsVerified() {
		return ErrAlreadyVerified
	}

	plaintext, _, err := s.tokens.Issue(ctx, account.ID, model.PurposeEmailVerification)
	if err != nil {
		return err
	}

	s.dispatch(ctx, account, plaintext)
	return nil
}

func (s *IdentityService) VerifyEmail(ctx context.Context, token string) (account *model.Account, err error) {
	defer func() { observe("verify_email", err) }()
	return s.verification.Verify(ctx, token)
}

func (s *IdentityService) VerificationStatus(ctx context.Context, accountID string) (status model.VerificationStatus, err error) {
	defer func() { observe("verification_status", err) }()
	return s.verification.Status(ctx, accountID)
}

func (s *IdentityService) ValidateWalletFormat(address string) (addr wallet.Address, err error) {
	defer func() { observe("validate_wallet_format", err) }()
	return s.wallets.ValidateFormat(address)
}

func (s *IdentityService) IssueWalletChallenge(ctx context.Context, accountID, address string) (challenge *Challenge, err error) {
	defer func() { observe("wallet_challenge", err) }()
	return s.wallets.IssueChallenge(ctx, accountID, address)
}

func (s *IdentityService) VerifyWallet(ctx context.Context, req VerifyWalletRequest) (account *model.Account, err error) {
	defer func() { observe("verify_wallet", err) }()
	return s.wallets.VerifySignature(ctx, req.AccountID, req.Address, req.Signature)
}

// Authenticate returns the account ID behind a session token.
func (s *IdentityService) Authenticate(token string) (string, error) {
	return s.sessions.Verify(token)
}

func (s *IdentityService) VerificationLink(plaintext string) string {
	return s.appURL + "/verify-email/" + plaintext
}

func (s *IdentityService) dispatch(ctx context.Context, account *model.Account, plaintext string) bool {
	err := s.email.SendVerification(ctx, account.Email, s.VerificationLink(plaintext))
	if err != nil {
		metrics.EmailDispatch.WithLabelValues("failed").Inc()
		slog.Error("failed to send verification email", "error", err, "account_id", account.ID)
		return false
	}
	metrics.EmailDispatch.WithLabelValues("sent").Inc()
	return true
}

func observe(operation string, err error) {
	kind := Kind(err)
	metrics.IdentityOperations.WithLabelValues(operation, kind).Inc()

	switch kind {
	case "ok":
	case "unavailable", "internal":
		slog.Error("identity operation failed", "operation", operation, "kind", kind, "error", err)
	default:
		slog.Debug("identity operation rejected", "operation", operation, "kind", kind, "error", err)
	}
}
