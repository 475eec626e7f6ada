// Package password hashes and verifies user credentials with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidHash indicates the stored hash is not a bcrypt hash.
var ErrInvalidHash = errors.New("invalid hash format")

// Hasher hashes passwords with a fixed bcrypt cost.
// Output is always 60 bytes, matching the users.password column.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's bounds.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the configured bcrypt cost.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns the bcrypt hash of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether plain matches hash. A mismatch is not an error;
// a malformed hash is.
func (h *Hasher) Compare(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, bcrypt.ErrHashTooShort):
		return false, ErrInvalidHash
	default:
		var versionErr bcrypt.HashVersionTooNewError
		var prefixErr bcrypt.InvalidHashPrefixError
		if errors.As(err, &versionErr) || errors.As(err, &prefixErr) {
			return false, ErrInvalidHash
		}
		return false, fmt.Errorf("compare password: %w", err)
	}
}
