package security

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyAdminToken = errors.New("admin token must not be empty")

// HashAdminToken returns the bcrypt hash stored in admin.token_hash.
func HashAdminToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyAdminToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAdminToken reports whether token matches hash. An empty hash never
// matches.
func VerifyAdminToken(hash string, token string) bool {
	hash = strings.TrimSpace(hash)
	token = strings.TrimSpace(token)
	if hash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}
