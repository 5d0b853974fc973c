package mocks

import (
	"github.com/praaatap/vibeedit-backend/internal/service/auth"
)

// MockPasswordHasher implements auth.PasswordHasher for tests without the
// cost of real bcrypt rounds.
type MockPasswordHasher struct {
	// HashFn overrides Hash when set.
	HashFn func(password string) (string, error)
	// CompareFn overrides Compare when set.
	CompareFn func(hashedPassword, password string) error

	// ShouldSucceed controls the default Compare behavior: when false,
	// Compare returns auth.ErrPasswordMismatch.
	ShouldSucceed bool
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// NewMockPasswordHasher returns a hasher whose Compare succeeds.
func NewMockPasswordHasher() *MockPasswordHasher {
	return &MockPasswordHasher{ShouldSucceed: true}
}

// Hash returns a recognizable fake digest so tests can assert the plaintext
// never reaches the store.
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return "hashed:" + password, nil
}

// Compare reports a mismatch unless ShouldSucceed is set.
func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if !m.ShouldSucceed {
		return auth.ErrPasswordMismatch
	}
	return nil
}
