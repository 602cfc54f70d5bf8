package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/templui/walletauth/internal/service"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Request body must be valid JSON.")
		return false
	}
	return true
}

var errorStatus = map[string]int{
	"invalid_credentials":  http.StatusUnauthorized,
	"invalid_session":      http.StatusUnauthorized,
	"duplicate_email":      http.StatusConflict,
	"weak_password":        http.StatusBadRequest,
	"invalid_email":        http.StatusBadRequest,
	"account_not_found":    http.StatusNotFound,
	"already_verified":     http.StatusConflict,
	"token_not_found":      http.StatusNotFound,
	"token_expired":        http.StatusGone,
	"token_already_used":   http.StatusConflict,
	"rate_limited":         http.StatusTooManyRequests,
	"invalid_format":       http.StatusBadRequest,
	"wallet_already_bound": http.StatusConflict,
	"wallet_immutable":     http.StatusConflict,
	"challenge_not_found":  http.StatusNotFound,
	"challenge_expired":    http.StatusGone,
	"signature_mismatch":   http.StatusUnauthorized,
	"unavailable":          http.StatusServiceUnavailable,
}

var errorMessage = map[string]string{
	"invalid_credentials":  "Invalid email or password.",
	"duplicate_email":      "An account with this email already exists.",
	"invalid_email":        "Please provide a valid email address.",
	"token_not_found":      "Invalid verification link.",
	"token_expired":        "This verification link has expired. Please request a new one.",
	"token_already_used":   "This verification link has already been used.",
	"wallet_already_bound": "This wallet is already linked to another account.",
	"wallet_immutable":     "This account is already linked to a different wallet.",
	"challenge_not_found":  "No pending wallet challenge. Please request a new one.",
	"challenge_expired":    "The wallet challenge has expired. Please request a new one.",
	"signature_mismatch":   "The signature does not match the wallet address.",
	"unavailable":          "Service temporarily unavailable. Please try again.",
}

// writeServiceError maps a service error onto its HTTP status and code.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := service.Kind(err)

	status, ok := errorStatus[kind]
	if !ok {
		slog.Error("unhandled service error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "An error occurred. Please try again.")
		return
	}

	message, ok := errorMessage[kind]
	if !ok {
		message = err.Error()
	}
	writeError(w, status, kind, message)
}
