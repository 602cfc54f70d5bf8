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
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrDuplicateWallet = errors.New("wallet already bound to another account")
	ErrWalletImmutable = errors.New("account already has a different wallet")
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	ByID(ctx context.Context, id string) (*model.Account, error)
	ByEmail(ctx context.Context, email string) (*model.Account, error)
	ByWalletAddress(ctx context.Context, address string) (*model.Account, error)
	MarkVerified(ctx context.Context, id string, at time.Time) error
	BindWallet(ctx context.Context, id, chain, address string, at time.Time) error
}

type accountRepository struct {
	db queryer
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = account.CreatedAt
	}
	if account.VerificationStatus == "" {
		account.VerificationStatus = model.StatusUnverified
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, verification_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.VerificationStatus,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if isUniqueViolation(err, "email") {
		return ErrDuplicateEmail
	}
	return err
}

func (r *accountRepository) ByID(ctx context.Context, id string) (*model.Account, error) {
	return r.one(ctx, `SELECT * FROM accounts WHERE id = $1`, id)
}

func (r *accountRepository) ByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.one(ctx, `SELECT * FROM accounts WHERE email = $1`, email)
}

func (r *accountRepository) ByWalletAddress(ctx context.Context, address string) (*model.Account, error) {
	return r.one(ctx, `SELECT * FROM accounts WHERE wallet_address = $1`, address)
}

func (r *accountRepository) one(ctx context.Context, query string, arg any) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.GetContext(ctx, account, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// MarkVerified moves the account to verified. Verifying an already verified
// account keeps the original verification time.
func (r *accountRepository) MarkVerified(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE accounts
		SET verification_status = $1,
			email_verified_at = COALESCE(email_verified_at, $2),
			updated_at = $3
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, model.StatusVerified, at, at, id)
	if err != nil {
		return err
	}
	return requireRow(result, ErrAccountNotFound)
}

// BindWallet attaches a wallet to the account in a single statement. The
// unique index on wallet_address decides races between accounts.
func (r *accountRepository) BindWallet(ctx context.Context, id, chain, address string, at time.Time) error {
	query := `
		UPDATE accounts
		SET wallet_address = $1,
			wallet_chain = $2,
			wallet_bound_at = COALESCE(wallet_bound_at, $3),
			updated_at = $4
		WHERE id = $5
		AND (wallet_address IS NULL OR wallet_address = $6)
	`
	result, err := r.db.ExecContext(ctx, query, address, chain, at, at, id, address)
	if isUniqueViolation(err, "wallet_address") {
		return ErrDuplicateWallet
	}
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows > 0 {
		return nil
	}

	_, err = r.ByID(ctx, id)
	if err != nil {
		return err
	}
	return ErrWalletImmutable
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
