package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/walletauth/internal/ctxkeys"
	"github.com/templui/walletauth/internal/middleware"
	"github.com/templui/walletauth/internal/model"
	"github.com/templui/walletauth/internal/service"
)

const resendAccepted = "If an account exists for this email, a verification email has been sent."

type authHandler struct {
	identity     *service.IdentityService
	isProduction bool
}

func NewAuthHandler(identity *service.IdentityService, isProduction bool) *authHandler {
	return &authHandler{
		identity:     identity,
		isProduction: isProduction,
	}
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.identity.Register(r.Context(), service.RegisterRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Account   *model.Account `json:"account"`
		EmailSent bool           `json:"email_sent"`
	}{
		Account:   result.Account,
		EmailSent: result.EmailSent,
	})
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.identity.Login(r.Context(), service.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token, result.ExpiresAt)

	writeJSON(w, http.StatusOK, struct {
		Account   *model.Account `json:"account"`
		Token     string         `json:"token"`
		ExpiresAt time.Time      `json:"expires_at"`
	}{
		Account:   result.Account,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	})
}

// ResendVerification answers the same way whether or not the account exists,
// is already verified or hit the resend limit.
func (h *authHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.identity.ResendVerification(r.Context(), req.Email)
	if errors.Is(err, service.ErrUnavailable) {
		writeServiceError(w, err)
		return
	}
	if err != nil {
		slog.Info("verification resend not sent", "kind", service.Kind(err))
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"message": resendAccepted})
}

// VerifyEmail accepts the token as a path segment or as ?token=.
func (h *authHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	account, err := h.identity.VerifyEmail(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		AccountID string                   `json:"account_id"`
		Status    model.VerificationStatus `json:"status"`
	}{
		AccountID: account.ID,
		Status:    account.VerificationStatus,
	})
}

func (h *authHandler) VerificationStatus(w http.ResponseWriter, r *http.Request) {
	accountID := ctxkeys.AccountID(r.Context())

	status, err := h.identity.VerificationStatus(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		AccountID string                   `json:"account_id"`
		Status    model.VerificationStatus `json:"status"`
	}{
		AccountID: accountID,
		Status:    status,
	})
}

func (h *authHandler) setSessionCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// VerifiedOnly answers for accounts that passed RequireVerified.
func (h *authHandler) VerifiedOnly(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		AccountID string                   `json:"account_id"`
		Status    model.VerificationStatus `json:"status"`
	}{
		AccountID: ctxkeys.AccountID(r.Context()),
		Status:    model.StatusVerified,
	})
}
