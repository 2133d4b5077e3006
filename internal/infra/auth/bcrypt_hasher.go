package auth

import (
	"strings"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/domain/service"
	"firecms/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	minBcryptCost = bcrypt.MinCost
	maxBcryptCost = bcrypt.MaxCost
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost   int
	limits verifyLimits
}

// NewBcryptHasher returns a bcrypt hasher with bcrypt.DefaultCost.
func NewBcryptHasher() service.PasswordHasher {
	return NewBcryptHasherWithCost(bcrypt.DefaultCost)
}

// NewBcryptHasherWithCost returns a bcrypt hasher with the given cost.
// Stored argon2id hashes are checked against the default argon2id parameters.
func NewBcryptHasherWithCost(cost int) service.PasswordHasher {
	return newBcryptHasher(cost, newVerifyLimits(defaultArgon2Params, cost))
}

func newBcryptHasher(cost int, limits verifyLimits) *bcryptHasher {
	return &bcryptHasher{cost: cost, limits: limits}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Join(domainerrors.ErrPasswordHashFailed, errors.Wrap(err, "bcrypt.GenerateFromPassword"))
	}

	return string(bytes), nil
}

// Verify compares a plaintext password with a stored hash.
func (h *bcryptHasher) Verify(password, hash string) bool {
	return verify(password, hash, h.limits)
}

// NeedsRehash is true unless hash is a bcrypt hash of the configured cost.
func (h *bcryptHasher) NeedsRehash(hash string) bool {
	if !isBcryptHash(hash) {
		return true
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}

	return cost != h.cost
}

func (h *bcryptHasher) Algorithm() string {
	return AlgoBcrypt
}

func isBcryptHash(hash string) bool {
	return len(hash) == 60 && strings.HasPrefix(hash, "$2")
}

func verifyBcrypt(password, hash string, limits verifyLimits) bool {
	if !limits.allowsBcrypt(hash) {
		return false
	}

	// err is nil if the password and hash match.
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
