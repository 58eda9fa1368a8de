package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/podsec/podsec/internal/auth"
	"github.com/podsec/podsec/internal/logger"
	"github.com/podsec/podsec/internal/secrets"
	"github.com/podsec/podsec/internal/userstore"
)

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func (a *App) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "PodSec API",
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, kindBadRequest, "username and password are required")
		return
	}

	token, err := a.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Info("Failed login attempt for user %s from %s", req.Username, remoteIP(r))
		}
		writeMappedError(w, err)
		return
	}

	logger.Info("User %s logged in from %s", req.Username, remoteIP(r))
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
}

type meResponse struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	u, err := a.users.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			// Token subject no longer exists in the store.
			writeError(w, http.StatusUnauthorized, kindTokenInvalid, "invalid session token")
			return
		}
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{Username: u.Username, CreatedAt: u.CreatedAt})
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *App) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, kindBadRequest, "current_password and new_password are required")
		return
	}

	username := usernameFrom(r)
	if err := a.auth.ChangePassword(r.Context(), username, req.CurrentPassword, req.NewPassword); err != nil {
		// The original API reports a wrong current password as a 400, not
		// a 401: the caller is authenticated, the input is what is wrong.
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, kindInvalidCredentials, "current password is incorrect")
			return
		}
		writeMappedError(w, err)
		return
	}

	logger.Info("User %s changed their password from %s", username, remoteIP(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (a *App) handleListSecrets(w http.ResponseWriter, r *http.Request) {
	refs, err := a.gateway.List(r.Context())
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}

type secretCreatedResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (a *App) handleCreateSecret(w http.ResponseWriter, r *http.Request) {
	var item secrets.CreateItem
	if !decodeJSON(w, r, &item) {
		return
	}

	created, err := a.gateway.Create(r.Context(), item)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, secretCreatedResponse{
		ID:      created.ID,
		Name:    created.Name,
		Message: "Secret created successfully",
	})
}

type bulkCreateRequest struct {
	Secrets []secrets.CreateItem `json:"secrets"`
}

func (a *App) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result := a.gateway.BulkCreate(r.Context(), req.Secrets)
	writeJSON(w, http.StatusCreated, result)
}

func (a *App) handleInspectSecret(w http.ResponseWriter, r *http.Request) {
	ref, err := a.gateway.Inspect(r.Context(), r.PathValue("id"))
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (a *App) handleDeleteSecret(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.gateway.Delete(r.Context(), id); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Secret '%s' deleted successfully", id),
	})
}

type healthResponse struct {
	PodmanAvailable bool   `json:"podman_available"`
	Version         string `json:"version,omitempty"`
	Host            string `json:"host"`
	Connection      string `json:"connection"`
	Error           string `json:"error,omitempty"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Host:       orDefault(a.runtime.Host()),
		Connection: orDefault(a.runtime.Connection()),
	}

	version, err := a.runtime.Version(r.Context())
	if err != nil {
		logger.Warn("Health check: podman unreachable: %v", err)
		resp.Error = "cannot reach podman API"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.PodmanAvailable = true
	resp.Version = version.Version
	if resp.Version == "" {
		resp.Version = "unknown"
	}
	writeJSON(w, http.StatusOK, resp)
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}
