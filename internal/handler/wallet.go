package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/templui/walletauth/internal/ctxkeys"
	"github.com/templui/walletauth/internal/model"
	"github.com/templui/walletauth/internal/service"
)

type walletHandler struct {
	identity *service.IdentityService
}

func NewWalletHandler(identity *service.IdentityService) *walletHandler {
	return &walletHandler{identity: identity}
}

// ValidateFormat reports whether an address is well formed. A malformed
// address is a normal answer here, not an error.
func (h *walletHandler) ValidateFormat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	addr, err := h.identity.ValidateWalletFormat(req.Address)
	if errors.Is(err, service.ErrInvalidFormat) {
		writeJSON(w, http.StatusOK, map[string]any{
			"valid":  false,
			"reason": err.Error(),
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"chain":   addr.Chain,
		"address": addr.Canonical,
	})
}

func (h *walletHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	challenge, err := h.identity.IssueWalletChallenge(r.Context(), ctxkeys.AccountID(r.Context()), req.Address)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Address   string    `json:"address"`
		Chain     string    `json:"chain"`
		Nonce     string    `json:"nonce"`
		Message   string    `json:"message"`
		ExpiresAt time.Time `json:"expires_at"`
	}{
		Address:   challenge.Address,
		Chain:     challenge.Chain,
		Nonce:     challenge.Nonce,
		Message:   challenge.Message,
		ExpiresAt: challenge.ExpiresAt,
	})
}

func (h *walletHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address   string `json:"address"`
		Signature string `json:"signature"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.identity.VerifyWallet(r.Context(), service.VerifyWalletRequest{
		AccountID: ctxkeys.AccountID(r.Context()),
		Address:   req.Address,
		Signature: req.Signature,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Account *model.Account `json:"account"`
	}{
		Account: account,
	})
}
