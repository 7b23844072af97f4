package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrBadSignature = errors.New("signature mismatch")

type CryptoService interface {
	Sign(payload []byte) string
	Verify(payload []byte, signature string) error
}

// ---- Implementation ----

type hmacService struct {
	key []byte
}

// NewCryptoService returns an HMAC-SHA256 signer over raw request bodies.
// Signatures are lowercase hex, optionally prefixed with "sha256=".
func NewCryptoService(key []byte) (CryptoService, error) {
	if len(key) == 0 {
		return nil, errors.New("hmac key required")
	}
	return &hmacService{key: key}, nil
}

func (s *hmacService) Sign(payload []byte) string {
	m := hmac.New(sha256.New, s.key)
	m.Write(payload)
	return hex.EncodeToString(m.Sum(nil))
}

func (s *hmacService) Verify(payload []byte, signature string) error {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	m := hmac.New(sha256.New, s.key)
	m.Write(payload)
	if !hmac.Equal(got, m.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}
