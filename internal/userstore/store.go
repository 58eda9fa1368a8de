// Package userstore is the credential store behind the auth service.
// User records live in a local SQLite database; secret material never
// touches this store.
package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNotFound is returned when no user record matches the given username.
var ErrNotFound = errors.New("user not found")

// DefaultAdminUser is seeded on first boot when the store is empty.
const DefaultAdminUser = "admin"

// User maps the users table.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,unique,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

// Store provides access to user records.
type Store struct {
	db *bun.DB
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open user database: %w", err)
	}
	// SQLite serializes writers anyway; a single connection avoids
	// SQLITE_BUSY under concurrent password changes.
	sqlDB.SetMaxOpenConns(1)
	return &Store{db: bun.NewDB(sqlDB, sqlitedialect.New())}, nil
}

// NewWithDB wraps an existing bun.DB. Used by tests.
func NewWithDB(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure creates the schema and, when the store holds no users at all,
// seeds the default admin account with the supplied password hash.
// It reports whether the default account was created.
func (s *Store) Ensure(ctx context.Context, defaultAdminHash string) (bool, error) {
	if _, err := s.db.NewCreateTable().Model((*User)(nil)).IfNotExists().Exec(ctx); err != nil {
		return false, fmt.Errorf("create users table: %w", err)
	}

	count, err := s.db.NewSelect().Model((*User)(nil)).Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	now := time.Now().UTC()
	_, err = s.db.NewInsert().Model(&User{
		Username:     DefaultAdminUser,
		PasswordHash: defaultAdminHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("seed default admin: %w", err)
	}
	return true, nil
}

// GetByUsername returns the user record for an exact, case-sensitive
// username match.
func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.NewSelect().Model(&u).Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user record.
func (s *Store) Create(ctx context.Context, username, passwordHash string) error {
	now := time.Now().UTC()
	_, err := s.db.NewInsert().Model(&User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}).Exec(ctx)
	return err
}

// UpdatePasswordHash overwrites the stored hash for username.
func (s *Store) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	res, err := s.db.NewUpdate().Model((*User)(nil)).
		Set("password_hash = ?", hash).
		Set("updated_at = ?", time.Now().UTC()).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
