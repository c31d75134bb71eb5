// ABOUTME: Admin password authenticator for the bot console login screen
// ABOUTME: Accepts a configured plaintext password or a bcrypt hash

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminPassword is the well-known password used when none is
// configured. Anyone who knows it can administer every bot user.
const DefaultAdminPassword = "admin123"

// ErrInvalidPassword is returned when a login password does not match.
var ErrInvalidPassword = errors.New("invalid admin password")

// Authenticator decides whether a login password grants console access.
type Authenticator interface {
	Authenticate(ctx context.Context, password string) error
}

// StaticPassword compares against a single configured secret.
type StaticPassword struct {
	plain []byte
	hash  []byte
}

// NewStaticPassword creates an authenticator for a plaintext password.
func NewStaticPassword(password string) *StaticPassword {
	return &StaticPassword{plain: []byte(password)}
}

// NewBcryptPassword creates an authenticator for a bcrypt hash, as produced
// by HashAdminPassword.
func NewBcryptPassword(hash string) (*StaticPassword, error) {
	hash = strings.TrimSpace(hash)
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parsing admin password hash: %w", err)
	}
	return &StaticPassword{hash: []byte(hash)}, nil
}

// Authenticate returns nil when password matches, ErrInvalidPassword
// otherwise.
func (s *StaticPassword) Authenticate(_ context.Context, password string) error {
	if s.hash != nil {
		if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	}

	if subtle.ConstantTimeCompare(s.plain, []byte(password)) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// HashAdminPassword produces a bcrypt hash suitable for
// auth.admin_password_hash.
func HashAdminPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing admin password: %w", err)
	}
	return string(hash), nil
}
