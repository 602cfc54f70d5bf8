package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Store is the credential store: accounts, verification tokens and wallet
// challenges behind one transactional handle.
type Store interface {
	Accounts() AccountRepository
	Tokens() TokenRepository
	Challenges() ChallengeRepository

	// InTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling InTx on a transaction-bound Store reuses the open transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type sqlStore struct {
	db *sqlx.DB
	q  queryer
	tx bool
}

func NewStore(db *sqlx.DB) Store {
	return &sqlStore{db: db, q: db}
}

func (s *sqlStore) Accounts() AccountRepository {
	return &accountRepository{db: s.q}
}

func (s *sqlStore) Tokens() TokenRepository {
	return &tokenRepository{db: s.q}
}

func (s *sqlStore) Challenges() ChallengeRepository {
	return &challengeRepository{db: s.q}
}

func (s *sqlStore) InTx(ctx context.Context, fn func(tx Store) error) (err error) {
	if s.tx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, context.Canceled) {
				slog.Warn("failed to roll back transaction", "error", rollbackErr)
			}
			return
		}
		err = tx.Commit()
		if err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(&sqlStore{db: s.db, q: tx, tx: true})
}

// isUniqueViolation reports whether err is a unique index violation on the
// given column. Works for both SQLite and PostgreSQL.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, column)
	}

	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
		return strings.Contains(errStr, column)
	}
	return false
}
