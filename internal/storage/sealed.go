package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const nonceSize = 24

var (
	ErrSealedValue = errors.New("sealed value cannot be opened")

	sealSalt = []byte("go-wanandroid/state")
)

// SealedStore encrypts values at rest. Keys are stored in the clear.
type SealedStore struct {
	inner Store
	key   [32]byte
}

func NewSealed(inner Store, secret string) (*SealedStore, error) {
	if secret == "" {
		return nil, fmt.Errorf("sealed store requires a secret")
	}

	derived, err := scrypt.Key([]byte(secret), sealSalt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive state key: %w", err)
	}

	s := &SealedStore{inner: inner}
	copy(s.key[:], derived)
	return s, nil
}

func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}

	value, err := s.open(sealed)
	if err != nil {
		return nil, false, fmt.Errorf("open %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SealedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.seal(value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	entries, err := s.inner.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(entries))
	for key, sealed := range entries {
		value, err := s.open(sealed)
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

func (s *SealedStore) DeletePrefix(ctx context.Context, prefix string) error {
	return s.inner.DeletePrefix(ctx, prefix)
}

func (s *SealedStore) Close() error {
	return s.inner.Close()
}

func (s *SealedStore) seal(value []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], value, &nonce, &s.key), nil
}

func (s *SealedStore) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrSealedValue
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	value, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrSealedValue
	}
	return value, nil
}
