package userstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEnsure_SeedsDefaultAdminOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seeded, err := s.Ensure(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, seeded)

	u, err := s.GetByUsername(ctx, DefaultAdminUser)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", u.PasswordHash)
	assert.False(t, u.CreatedAt.IsZero())

	// A second boot must not reseed or overwrite.
	seeded, err = s.Ensure(ctx, "hash-2")
	require.NoError(t, err)
	assert.False(t, seeded)
	u, err = s.GetByUsername(ctx, DefaultAdminUser)
	require.NoError(t, err)
	assert.Equal(t, "hash-1", u.PasswordHash)
}

func TestGetByUsername_ExactMatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Ensure(ctx, "h")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "alice", "hash-a"))

	u, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = s.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePasswordHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Ensure(ctx, "h")
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "alice", "old-hash"))

	before, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, s.UpdatePasswordHash(ctx, "alice", "new-hash"))

	after, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", after.PasswordHash)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))

	assert.ErrorIs(t, s.UpdatePasswordHash(ctx, "nobody", "x"), ErrNotFound)
}

func TestSeedFromFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Ensure(ctx, "h")
	require.NoError(t, err)

	seedPath := filepath.Join(t.TempDir(), "users.yaml")
	content := `- username: alice
  password: plain-pw
- username: bob
  password_hash: "$6$abcdefgh$precomputed"
`
	require.NoError(t, os.WriteFile(seedPath, []byte(content), 0o600))

	hashed := func(pw string) (string, error) { return "hashed(" + pw + ")", nil }

	added, err := SeedFromFile(ctx, s, seedPath, hashed)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	alice, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hashed(plain-pw)", alice.PasswordHash)

	bob, err := s.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "$6$abcdefgh$precomputed", bob.PasswordHash)

	// Seeding is additive and idempotent.
	added, err = SeedFromFile(ctx, s, seedPath, hashed)
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}

func TestSeedFromFile_RejectsIncompleteEntries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Ensure(ctx, "h")
	require.NoError(t, err)

	seedPath := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte("- username: ghost\n"), 0o600))

	_, err = SeedFromFile(ctx, s, seedPath, func(string) (string, error) { return "", nil })
	assert.Error(t, err)
}
