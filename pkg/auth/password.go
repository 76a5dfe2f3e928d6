package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 6
	MaxPasswordLen = 72 // bcrypt ignores input beyond 72 bytes
)

// BcryptCost is the work factor used by HashPassword. Tests lower it to
// bcrypt.MinCost to keep suites fast.
var BcryptCost = 12

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// PasswordValidationError describes why a candidate password was rejected.
type PasswordValidationError struct {
	Reason string
}

func (e *PasswordValidationError) Error() string {
	return e.Reason
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// VerifyPassword reports whether password matches hashedPassword.
func VerifyPassword(hashedPassword, password string) bool {
	return ComparePassword(hashedPassword, password) == nil
}

// DummyVerify burns roughly the same CPU as a real VerifyPassword call so that
// lookups for unknown accounts are not distinguishable by latency.
func DummyVerify(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// ValidatePassword enforces length bounds on a new password.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLen {
		return &PasswordValidationError{
			Reason: fmt.Sprintf("password must be at least %d characters long", MinPasswordLen),
		}
	}
	if len(password) > MaxPasswordLen {
		return &PasswordValidationError{
			Reason: fmt.Sprintf("password must be at most %d characters long", MaxPasswordLen),
		}
	}
	return nil
}
