package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// ID is an opaque 16-byte identifier for sessions and remember-token records.
type ID [16]byte

const (
	rememberSecretSize = 32
	rememberRawSize    = 16 + rememberSecretSize
)

var (
	// ErrMalformedToken is returned when a client-presented token cannot be decoded.
	ErrMalformedToken = errors.New("malformed token")
)

func NewID() (ID, error) {
	var id ID
	_, err := rand.Read(id[:])
	return id, err
}

func (id ID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(id[:])
}

func ParseID(s string) (ID, error) {
	var id ID

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return id, ErrMalformedToken
	}
	if len(raw) != len(id) {
		return id, ErrMalformedToken
	}

	copy(id[:], raw)
	return id, nil
}

func NewRememberSecret() ([rememberSecretSize]byte, error) {
	var secret [rememberSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

// HashRememberSecret produces the digest stored server-side. The raw secret
// only ever exists inside the encoded token held by the client.
func HashRememberSecret(secret [rememberSecretSize]byte) [32]byte {
	return sha256.Sum256(secret[:])
}

// EncodeRememberToken packs record id and secret into a single opaque
// client-side credential.
func EncodeRememberToken(id ID, secret [rememberSecretSize]byte) string {
	var raw [rememberRawSize]byte
	copy(raw[:len(id)], id[:])
	copy(raw[len(id):], secret[:])

	return base64.RawURLEncoding.EncodeToString(raw[:])
}

func DecodeRememberToken(tok string) (ID, [rememberSecretSize]byte, error) {
	var (
		id     ID
		secret [rememberSecretSize]byte
	)

	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return id, secret, ErrMalformedToken
	}
	if len(raw) != rememberRawSize {
		return id, secret, ErrMalformedToken
	}

	copy(id[:], raw[:len(id)])
	copy(secret[:], raw[len(id):])

	return id, secret, nil
}
