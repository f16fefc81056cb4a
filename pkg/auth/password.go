package auth

import (
	"github.com/alexedwards/argon2id"
)

func HashPassword(plain string) (string, error) {
	return argon2id.CreateHash(plain, argon2id.DefaultParams)
}

// CheckPassword reports whether plain matches the stored hash.
// A malformed hash counts as a mismatch.
func CheckPassword(plain, hash string) bool {
	ok, err := argon2id.ComparePasswordAndHash(plain, hash)
	return err == nil && ok
}
