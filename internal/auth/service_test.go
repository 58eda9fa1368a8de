package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/GehirnInc/crypt/sha512_crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podsec/podsec/internal/userstore"
)

type fakeStore struct {
	mu    sync.Mutex
	users map[string]*userstore.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*userstore.User{}}
}

func (f *fakeStore) add(username, hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = &userstore.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
}

func (f *fakeStore) GetByUsername(_ context.Context, username string) (*userstore.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpdatePasswordHash(_ context.Context, username, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return userstore.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeStore) hashOf(username string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[username].PasswordHash
}

func newTestService(t *testing.T, store UserStore) *Service {
	t.Helper()
	return New(store, Config{Secret: []byte("test-signing-secret")})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := HashPassword(password)
	require.NoError(t, err)
	return h
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	store := newFakeStore()
	store.add("alice", mustHash(t, "correct horse"))
	svc := newTestService(t, store)

	token, err := svc.Authenticate(context.Background(), "alice", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestAuthenticate_FailsUniformly(t *testing.T) {
	store := newFakeStore()
	store.add("alice", mustHash(t, "correct horse"))
	svc := newTestService(t, store)

	_, errWrongPassword := svc.Authenticate(context.Background(), "alice", "wrong")
	_, errUnknownUser := svc.Authenticate(context.Background(), "nobody", "wrong")

	assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownUser, ErrInvalidCredentials)
	// Same error value either way, so clients cannot enumerate usernames.
	assert.Equal(t, errWrongPassword, errUnknownUser)
}

func TestAuthenticate_CaseSensitiveUsername(t *testing.T) {
	store := newFakeStore()
	store.add("alice", mustHash(t, "pw-1234"))
	svc := newTestService(t, store)

	_, err := svc.Authenticate(context.Background(), "Alice", "pw-1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_UpgradesLegacyHash(t *testing.T) {
	c := sha512_crypt.New()
	legacy, err := c.Generate([]byte("migrated-pw"), nil)
	require.NoError(t, err)

	store := newFakeStore()
	store.add("bob", legacy)
	svc := newTestService(t, store)

	_, err = svc.Authenticate(context.Background(), "bob", "migrated-pw")
	require.NoError(t, err)

	upgraded := store.hashOf("bob")
	assert.NotEqual(t, legacy, upgraded)
	assert.True(t, len(upgraded) > 2 && upgraded[:2] == "$2", "expected bcrypt hash, got %q", upgraded)

	// The password still works against the rewritten hash.
	_, err = svc.Authenticate(context.Background(), "bob", "migrated-pw")
	assert.NoError(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := newTestService(t, newFakeStore())

	// Expiry well past the parser's leeway.
	token, err := signHS256(svc.cfg.Secret, "alice", -time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestService(t, newFakeStore())

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", tok)
	}
}

func TestValidateToken_WrongKey(t *testing.T) {
	svc := newTestService(t, newFakeStore())

	token, err := signHS256([]byte("some-other-secret"), "alice", time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestChangePassword(t *testing.T) {
	store := newFakeStore()
	store.add("alice", mustHash(t, "old-pass"))
	svc := newTestService(t, store)
	ctx := context.Background()

	t.Run("wrong current leaves hash untouched", func(t *testing.T) {
		before := store.hashOf("alice")
		err := svc.ChangePassword(ctx, "alice", "not-the-password", "new-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, before, store.hashOf("alice"))
	})

	t.Run("too short new password rejected", func(t *testing.T) {
		err := svc.ChangePassword(ctx, "alice", "old-pass", "abc")
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("minimum length accepted", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, "alice", "old-pass", "abcd"))
		_, err := svc.Authenticate(ctx, "alice", "abcd")
		assert.NoError(t, err)
		_, err = svc.Authenticate(ctx, "alice", "old-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestChangePassword_ConcurrentRotationsSerialize(t *testing.T) {
	store := newFakeStore()
	store.add("alice", mustHash(t, "stale-pass"))
	svc := newTestService(t, store)

	// Both callers present the same stale current password. Exactly one
	// may win; the loser must fail verification against the new hash.
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i, next := range []string{"winner-pass", "loser-pass"} {
		wg.Add(1)
		go func(i int, next string) {
			defer wg.Done()
			results <- svc.ChangePassword(context.Background(), "alice", "stale-pass", next)
		}(i, next)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		}
	}
	assert.Equal(t, 1, succeeded)
}
