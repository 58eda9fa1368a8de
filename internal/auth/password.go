package auth

import (
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// verifyHash checks password against a stored hash. Besides bcrypt it
// accepts common crypt(3) formats ($1$ md5, $5$ sha256, $6$ sha512) so
// that user records seeded from a shadow-style export keep working; such
// hashes are reported as legacy and rewritten as bcrypt after the next
// successful login.
func verifyHash(hash, password string) (ok, legacy bool) {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, false
	}

	var crypters []crypt.Crypter
	crypters = append(crypters, sha512_crypt.New())
	crypters = append(crypters, sha256_crypt.New())
	crypters = append(crypters, md5_crypt.New())

	// Verify returns nil on success.
	for _, c := range crypters {
		if err := c.Verify(hash, []byte(password)); err == nil {
			return true, true
		}
	}
	return false, false
}

// dummyHash is compared against when the username is unknown, so lookup
// misses and wrong passwords take roughly the same time.
var dummyHash = func() string {
	h, err := HashPassword("podsec-timing-equalizer")
	if err != nil {
		panic(err)
	}
	return h
}()

func equalizeTiming(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
