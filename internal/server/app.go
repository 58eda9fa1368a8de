package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/podsec/podsec/internal/auth"
	"github.com/podsec/podsec/internal/podman"
	"github.com/podsec/podsec/internal/secrets"
	"github.com/podsec/podsec/internal/userstore"
)

// UserDirectory resolves authenticated usernames to user records.
// *userstore.Store satisfies it.
type UserDirectory interface {
	GetByUsername(ctx context.Context, username string) (*userstore.User, error)
}

// RuntimeInfo is what the health endpoint needs from the podman client.
type RuntimeInfo interface {
	Version(ctx context.Context) (podman.VersionReport, error)
	Host() string
	Connection() string
}

type App struct {
	auth        *auth.Service
	users       UserDirectory
	gateway     *secrets.Gateway
	runtime     RuntimeInfo
	corsOrigins map[string]struct{}
}

func NewApp(authSvc *auth.Service, users UserDirectory, gateway *secrets.Gateway, runtime RuntimeInfo, corsOrigins []string) *App {
	origins := make(map[string]struct{}, len(corsOrigins))
	for _, o := range corsOrigins {
		origins[o] = struct{}{}
	}
	return &App{
		auth:        authSvc,
		users:       users,
		gateway:     gateway,
		runtime:     runtime,
		corsOrigins: origins,
	}
}

// Routes wires the HTTP surface. Auth endpoints (except /me and
// /change-password) and health are open; everything touching secrets
// requires a valid bearer token.
func (a *App) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("GET /api/auth/me", a.requireAuth(a.handleMe))
	mux.HandleFunc("POST /api/auth/change-password", a.requireAuth(a.handleChangePassword))

	mux.HandleFunc("GET /api/secrets", a.requireAuth(a.handleListSecrets))
	mux.HandleFunc("POST /api/secrets", a.requireAuth(a.handleCreateSecret))
	mux.HandleFunc("POST /api/secrets/bulk", a.requireAuth(a.handleBulkCreate))
	mux.HandleFunc("GET /api/secrets/{id}", a.requireAuth(a.handleInspectSecret))
	mux.HandleFunc("DELETE /api/secrets/{id}", a.requireAuth(a.handleDeleteSecret))

	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", a.handleRoot)

	return a.withCORS(mux)
}
