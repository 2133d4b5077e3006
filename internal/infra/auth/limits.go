package auth

import "golang.org/x/crypto/bcrypt"

const (
	// maxArgon2Memory caps the memory a stored argon2id hash may ask for, in KiB.
	maxArgon2Memory  = 1 << 20
	minArgon2TimeCap = 16
	maxArgon2Threads = 16
	bcryptCostMargin = 2
)

// verifyLimits bounds the cost parameters read from a hash before any key
// derivation runs. Hashes above them verify as false.
type verifyLimits struct {
	argon2Memory  uint32
	argon2Time    uint32
	argon2Threads uint8
	bcryptCost    int
}

func newVerifyLimits(params Argon2Params, bcryptCost int) verifyLimits {
	memory := min(uint64(params.Memory)*4, maxArgon2Memory)

	return verifyLimits{
		argon2Memory:  uint32(max(memory, uint64(params.Memory))),
		argon2Time:    max(params.Time, minArgon2TimeCap),
		argon2Threads: max(params.Threads, maxArgon2Threads),
		bcryptCost:    min(bcryptCost+bcryptCostMargin, bcrypt.MaxCost),
	}
}

func (l verifyLimits) allowsArgon2(params Argon2Params) bool {
	return params.Memory <= l.argon2Memory && params.Time <= l.argon2Time && params.Threads <= l.argon2Threads
}

func (l verifyLimits) allowsBcrypt(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))

	return err == nil && cost <= l.bcryptCost
}
