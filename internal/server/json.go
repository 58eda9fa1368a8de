package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/podsec/podsec/internal/auth"
	"github.com/podsec/podsec/internal/logger"
	"github.com/podsec/podsec/internal/podman"
	"github.com/podsec/podsec/internal/secrets"
)

// Stable machine-readable error kinds. Clients switch on these, not on
// the human-readable message.
const (
	kindInvalidCredentials = "invalid_credentials"
	kindTokenInvalid       = "token_invalid"
	kindTokenExpired       = "token_expired"
	kindWeakPassword       = "weak_password"
	kindValidation         = "validation_error"
	kindConflict           = "conflict"
	kindNotFound           = "not_found"
	kindUnavailable        = "unavailable"
	kindBadRequest         = "bad_request"
	kindInternal           = "internal"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Kind: kind, Message: message}})
}

// writeMappedError translates the error taxonomy into HTTP responses.
// Internal detail is logged, never echoed to the client.
func writeMappedError(w http.ResponseWriter, err error) {
	var apiErr *podman.APIError
	switch {
	case errors.Is(err, secrets.ErrInvalidName):
		writeError(w, http.StatusBadRequest, kindValidation, err.Error())
	case errors.Is(err, podman.ErrSecretExists):
		writeError(w, http.StatusConflict, kindConflict, "secret already exists")
	case errors.Is(err, podman.ErrSecretNotFound):
		writeError(w, http.StatusNotFound, kindNotFound, "secret not found")
	case errors.Is(err, podman.ErrUnavailable):
		logger.Error("Podman unreachable: %v", err)
		writeError(w, http.StatusBadGateway, kindUnavailable, "cannot reach podman API")
	case errors.As(err, &apiErr):
		logger.Error("Podman API error: %v", apiErr)
		writeError(w, http.StatusBadGateway, kindUnavailable, "podman API rejected the request")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, kindInvalidCredentials, "incorrect username or password")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, kindTokenExpired, "session token has expired")
	case errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, kindTokenInvalid, "invalid session token")
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, kindWeakPassword, "new password is too short")
	default:
		logger.Error("Unhandled error: %v", err)
		writeError(w, http.StatusInternalServerError, kindInternal, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, kindBadRequest, "malformed JSON body")
		return false
	}
	return true
}
