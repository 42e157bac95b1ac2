// Package security holds the stateless credentials of the signup flow:
// HMAC confirmation codes and signed access tokens.
package security

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	PurposeConfirmationCode = "review-catalog/confirmation-code"
	PurposeAccessToken      = "review-catalog/access-token"
)

// DeriveKey expands the server secret into a 32 byte key bound to purpose,
// so codes and tokens never share key material.
func DeriveKey(secret, purpose string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("empty secret")
	}

	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}
