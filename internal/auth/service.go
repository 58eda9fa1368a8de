// Package auth verifies credentials against the user store, issues and
// validates signed session tokens, and rotates passwords.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/podsec/podsec/internal/logger"
	"github.com/podsec/podsec/internal/metrics"
	"github.com/podsec/podsec/internal/userstore"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password too short")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

const (
	DefaultTokenTTL = 24 * time.Hour
	// MinPasswordLen matches the client-side floor. Deliberately low;
	// raising it breaks the existing UI contract.
	MinPasswordLen = 4
)

// UserStore is the slice of the credential store the service needs.
// *userstore.Store satisfies it.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*userstore.User, error)
	UpdatePasswordHash(ctx context.Context, username, hash string) error
}

type Config struct {
	Secret         []byte
	TokenTTL       time.Duration // zero means DefaultTokenTTL
	MinPasswordLen int           // zero means MinPasswordLen
}

type Service struct {
	store UserStore
	cfg   Config

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func New(store UserStore, cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.MinPasswordLen <= 0 {
		cfg.MinPasswordLen = MinPasswordLen
	}
	return &Service{
		store:     store,
		cfg:       cfg,
		userLocks: map[string]*sync.Mutex{},
	}
}

// Authenticate verifies the credentials and returns a signed session token.
// Unknown usernames and wrong passwords fail identically.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			equalizeTiming(password)
			metrics.AuthFailure()
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	ok, legacy := verifyHash(u.PasswordHash, password)
	if !ok {
		metrics.AuthFailure()
		return "", ErrInvalidCredentials
	}

	if legacy {
		s.upgradeHash(ctx, username, password)
	}

	return signHS256(s.cfg.Secret, username, s.cfg.TokenTTL)
}

// ValidateToken verifies signature and expiry and resolves the subject.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	claims, err := parseHS256(s.cfg.Secret, tokenString)
	if err != nil {
		metrics.AuthFailure()
		return "", err
	}
	return claims.Subject, nil
}

// ChangePassword re-verifies the current password before storing the new
// hash. Writes for the same user are serialized so two concurrent calls
// can never both pass verification against a stale hash.
func (s *Service) ChangePassword(ctx context.Context, username, current, next string) error {
	if len([]rune(next)) < s.cfg.MinPasswordLen {
		return ErrWeakPassword
	}

	lock := s.lockFor(username)
	lock.Lock()
	defer lock.Unlock()

	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			metrics.AuthFailure()
			return ErrInvalidCredentials
		}
		return err
	}
	if ok, _ := verifyHash(u.PasswordHash, current); !ok {
		metrics.AuthFailure()
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.UpdatePasswordHash(ctx, username, hash)
}

// upgradeHash rewrites a legacy crypt(3) hash as bcrypt. Best-effort: a
// failed rewrite leaves the old hash working.
func (s *Service) upgradeHash(ctx context.Context, username, password string) {
	lock := s.lockFor(username)
	lock.Lock()
	defer lock.Unlock()

	// The hash may have been rotated since verification; only rewrite if
	// it is still a legacy one that matches.
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return
	}
	if ok, legacy := verifyHash(u.PasswordHash, password); !ok || !legacy {
		return
	}

	hash, err := HashPassword(password)
	if err == nil {
		err = s.store.UpdatePasswordHash(ctx, username, hash)
	}
	if err != nil {
		logger.Warn("Failed to upgrade legacy password hash for user %s: %v", username, err)
		return
	}
	logger.Info("Upgraded legacy password hash for user %s", username)
}

func (s *Service) lockFor(username string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[username]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[username] = l
	}
	return l
}
