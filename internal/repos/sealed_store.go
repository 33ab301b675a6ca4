package repos

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"membersite/internal/secure"
)

// SealedStorage encrypts session records before they reach the backing
// storage. A record that fails to open reads as missing, so rotating the
// store secret logs everybody out instead of failing requests.
type SealedStorage struct {
	fiber.Storage
	Sealer *secure.Sealer
}

func (s *SealedStorage) Get(key string) ([]byte, error) {
	b, err := s.Storage.Get(key)
	if err != nil || b == nil {
		return b, err
	}
	plain, err := s.Sealer.Open(b)
	if err != nil {
		return nil, nil
	}
	return plain, nil
}

func (s *SealedStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	sealed, err := s.Sealer.Seal(val)
	if err != nil {
		return err
	}
	return s.Storage.Set(key, sealed, exp)
}
