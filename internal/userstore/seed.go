package userstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedEntry is one record of the optional bootstrap file. Either a plain
// password (hashed through hashFn at load time) or a precomputed hash may
// be given; exported shadow-style crypt hashes ($6$...) are accepted and
// upgraded on the user's first successful login.
type SeedEntry struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
}

// SeedFromFile loads a YAML list of users and inserts the ones that do not
// exist yet. Existing records are never overwritten. It reports how many
// users were added.
func SeedFromFile(ctx context.Context, s *Store, path string, hashFn func(string) (string, error)) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var entries []SeedEntry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	added := 0
	for i, e := range entries {
		username := strings.TrimSpace(e.Username)
		if username == "" {
			return added, fmt.Errorf("seed file %s: entry %d has no username", path, i)
		}

		if _, err := s.GetByUsername(ctx, username); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return added, err
		}

		hash := e.PasswordHash
		if hash == "" {
			if e.Password == "" {
				return added, fmt.Errorf("seed file %s: user %s has neither password nor password_hash", path, username)
			}
			hash, err = hashFn(e.Password)
			if err != nil {
				return added, err
			}
		}

		if err := s.Create(ctx, username, hash); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
