package services

import (
	"errors"
	"sync"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 12

// Hasher turns plaintext passwords into self-contained tokens (salt and cost
// embedded) and checks candidates against them.
type Hasher interface {
	Hash(plain string) (string, error)
	// Verify returns (false, nil) on mismatch and an error only for a
	// malformed token.
	Verify(plain, hash string) (bool, error)
}

type BcryptHasher struct {
	Cost int

	dummyOnce sync.Once
	dummy     string
	dummyErr  error
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", oops.Code("HASH_FAILED").With("cost", h.Cost).Wrap(err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("HASH_INVALID").Wrap(err)
	}
}

// Dummy returns a real token at the configured cost that no submitted
// password matches in practice. Login verifies against it when the email did
// not resolve to exactly one record, so both paths cost one bcrypt compare.
func (h *BcryptHasher) Dummy() (string, error) {
	h.dummyOnce.Do(func() {
		h.dummy, h.dummyErr = h.Hash("membersite-no-such-account")
	})
	return h.dummy, h.dummyErr
}
