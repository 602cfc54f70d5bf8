package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/walletauth/internal/ctxkeys"
	"github.com/templui/walletauth/internal/model"
	"github.com/templui/walletauth/internal/service"
)

const SessionCookie = "auth_token"

// Authenticator resolves a session token to an account ID.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// AuthMiddleware checks for a session token (Authorization: Bearer, then
// the auth_token cookie) and adds the account ID to the context if valid.
// Requests without a valid token continue anonymously.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			accountID, err := auth.Authenticate(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithAccountID(r.Context(), accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.AccountID(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required.")
			return
		}
		next(w, r)
	}
}

// StatusChecker reports an account's email verification status.
type StatusChecker interface {
	VerificationStatus(ctx context.Context, accountID string) (model.VerificationStatus, error)
}

// RequireVerified lets only accounts with a verified email through. It
// expects RequireAuth to run first.
func RequireVerified(checker StatusChecker) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			accountID := ctxkeys.AccountID(r.Context())
			if accountID == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required.")
				return
			}

			status, err := checker.VerificationStatus(r.Context(), accountID)
			switch {
			case errors.Is(err, service.ErrAccountNotFound):
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required.")
				return
			case err != nil:
				slog.Error("verification status lookup failed", "account_id", accountID, "error", err)
				writeError(w, http.StatusServiceUnavailable, "unavailable", "Service temporarily unavailable.")
				return
			case status != model.StatusVerified:
				writeError(w, http.StatusForbidden, "email_not_verified", "Verify your email address to continue.")
				return
			}
			next(w, r)
		}
	}
}

func sessionToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		return cookie.Value
	}
	return ""
}
