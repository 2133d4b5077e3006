// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate behavior that sits behind swappable implementations.
package service

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying hashing algorithm (argon2id, bcrypt), keeping the domain pure.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Verify compares a plaintext password with a hash to see if they match.
	// A malformed hash never matches.
	Verify(password, hash string) bool

	// NeedsRehash reports whether hash was produced with another algorithm or
	// other cost parameters than the ones currently configured. A malformed
	// hash always needs a rehash.
	NeedsRehash(hash string) bool

	// Algorithm names the configured algorithm.
	Algorithm() string
}
