package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	domainerrors "firecms/internal/domain/errors"
	"firecms/internal/domain/service"
	"firecms/internal/errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	argon2idPrefix = "$argon2id$"
	argon2SaltLen  = 16
	argon2KeyLen   = 32
)

// Argon2Params are the argon2id cost parameters. Memory is in KiB.
type Argon2Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
}

var defaultArgon2Params = Argon2Params{Memory: 64 * 1024, Time: 4, Threads: 1}

type argon2Hasher struct {
	params Argon2Params
	limits verifyLimits
}

// NewArgon2idHasher returns an argon2id hasher producing PHC encoded hashes.
// Stored bcrypt hashes are checked against the default bcrypt cost.
func NewArgon2idHasher(params Argon2Params) service.PasswordHasher {
	return newArgon2idHasher(params, newVerifyLimits(params, bcrypt.DefaultCost))
}

func newArgon2idHasher(params Argon2Params, limits verifyLimits) *argon2Hasher {
	return &argon2Hasher{params: params, limits: limits}
}

func (h *argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Join(domainerrors.ErrPasswordHashFailed, errors.Wrap(err, "rand.Read"))
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, argon2KeyLen)

	return encodeArgon2id(h.params, salt, key), nil
}

func (h *argon2Hasher) Verify(password, hash string) bool {
	return verify(password, hash, h.limits)
}

func (h *argon2Hasher) NeedsRehash(hash string) bool {
	params, salt, key, err := decodeArgon2id(hash)
	if err != nil || !h.limits.allowsArgon2(params) {
		return true
	}

	return params != h.params || len(salt) != argon2SaltLen || len(key) != argon2KeyLen
}

func (h *argon2Hasher) Algorithm() string {
	return AlgoArgon2id
}

func verifyArgon2id(password, hash string, limits verifyLimits) bool {
	params, salt, key, err := decodeArgon2id(hash)
	if err != nil || !limits.allowsArgon2(params) {
		return false
	}

	derived := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(derived, key) == 1
}

// encodeArgon2id renders $argon2id$v=19$m=<m>,t=<t>,p=<p>$<salt>$<key>.
func encodeArgon2id(params Argon2Params, salt, key []byte) string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix, argon2.Version, params.Memory, params.Time, params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func decodeArgon2id(hash string) (Argon2Params, []byte, []byte, error) {
	var params Argon2Params

	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, errors.New("not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, errors.Wrap(err, "argon2id version")
	}
	if version != argon2.Version {
		return params, nil, nil, errors.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Threads); err != nil {
		return params, nil, nil, errors.Wrap(err, "argon2id parameters")
	}
	if params.Time == 0 || params.Threads == 0 || params.Memory < 8*uint32(params.Threads) {
		return params, nil, nil, errors.New("argon2id parameters out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, errors.Wrap(err, "argon2id salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, errors.New("argon2id key")
	}

	return params, salt, key, nil
}
