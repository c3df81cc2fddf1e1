package crypto

import (
	"fmt"
	"wordrush/domain"

	"github.com/alexedwards/argon2id"
)

// HashParams sets the cost of password hashing. Memory is in KB.
type HashParams struct {
	Time       uint32
	Memory     uint32
	Threads    uint8
	KeyLen     uint32
	SaltLength uint32
}

type Argon2idHasher struct {
	params *argon2id.Params
}

func NewArgon2idHasher(p HashParams) *Argon2idHasher {
	return &Argon2idHasher{
		params: &argon2id.Params{
			Memory:      p.Memory,
			Iterations:  p.Time,
			Parallelism: p.Threads,
			SaltLength:  p.SaltLength,
			KeyLength:   p.KeyLen,
		},
	}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, h.params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedPasswordHashingError, err)
	}
	return hash, nil
}

// Compare reports whether password matches hash. Hashes made with other
// parameters still verify, the parameters are read from the hash itself.
func (h *Argon2idHasher) Compare(hash, password string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.UnexpectedPasswordHashComparisonError, err)
	}
	return match, nil
}
