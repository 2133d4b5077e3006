// Package auth provides concrete implementations of the PasswordHasher domain service.
package auth

import (
	"strings"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/domain/service"
	"firecms/internal/errors"
	"firecms/internal/infra/options"
)

// Algorithm identifiers accepted by the "algo" option.
const (
	AlgoArgon2id = "argon2id"
	AlgoBcrypt   = "bcrypt"
	AlgoDefault  = "default"
)

// Options are the resolved password hashing options.
type Options struct {
	Algo       string `option:"algo"`
	Cost       int    `option:"cost"`
	MemoryCost int    `option:"memory_cost"`
	TimeCost   int    `option:"time_cost"`
	Threads    int    `option:"threads"`
}

func configureOptions(r *options.Resolver) {
	r.SetDefaults(map[string]any{
		"algo":        AlgoDefault,
		"cost":        10,
		"memory_cost": int(defaultArgon2Params.Memory),
		"time_cost":   int(defaultArgon2Params.Time),
		"threads":     int(defaultArgon2Params.Threads),
	})
	r.SetAllowedTypes("algo", options.TypeString)
	r.SetAllowedTypes("cost", options.TypeInt)
	r.SetAllowedTypes("memory_cost", options.TypeInt)
	r.SetAllowedTypes("time_cost", options.TypeInt)
	r.SetAllowedTypes("threads", options.TypeInt)
}

// NewPasswordHasher resolves opts and returns the hasher for the configured
// algorithm. Every returned hasher verifies both argon2id and bcrypt hashes,
// so stored hashes keep working after the algorithm changes.
func NewPasswordHasher(opts map[string]any) (service.PasswordHasher, error) {
	resolver := options.NewResolver()
	configureOptions(resolver)

	var resolved Options
	if err := resolver.ResolveInto(opts, &resolved); err != nil {
		return nil, err
	}

	params := Argon2Params{
		Memory:  uint32(resolved.MemoryCost),
		Time:    uint32(resolved.TimeCost),
		Threads: uint8(resolved.Threads),
	}
	limits := newVerifyLimits(params, resolved.Cost)

	switch strings.ToLower(resolved.Algo) {
	case AlgoDefault, AlgoArgon2id:
		if resolved.MemoryCost < 8*resolved.Threads || resolved.TimeCost < 1 ||
			resolved.Threads < 1 || resolved.Threads > 255 {
			return nil, domainerrors.NewConfigurationError(
				errors.Errorf("invalid argon2id parameters m=%d t=%d p=%d",
					resolved.MemoryCost, resolved.TimeCost, resolved.Threads),
				"password.argon2id")
		}

		return newArgon2idHasher(params, limits), nil
	case AlgoBcrypt:
		if resolved.Cost < minBcryptCost || resolved.Cost > maxBcryptCost {
			return nil, domainerrors.NewConfigurationError(
				errors.Errorf("bcrypt cost %d outside [%d, %d]", resolved.Cost, minBcryptCost, maxBcryptCost),
				"password.cost")
		}

		return newBcryptHasher(resolved.Cost, limits), nil
	default:
		return nil, domainerrors.NewConfigurationError(
			errors.Errorf("unsupported password algorithm %q", resolved.Algo), "password.algo")
	}
}

// verify checks password against hash, whichever supported algorithm made
// it. Hashes whose cost exceeds limits are rejected without hashing.
func verify(password, hash string, limits verifyLimits) bool {
	switch {
	case strings.HasPrefix(hash, argon2idPrefix):
		return verifyArgon2id(password, hash, limits)
	case isBcryptHash(hash):
		return verifyBcrypt(password, hash, limits)
	default:
		return false
	}
}
