// Package votecrypt encodes ballot choices into opaque encrypted payloads.
//
// Payloads are sealed with XChaCha20-Poly1305 using a fresh random nonce per
// call, so encrypting the same choice twice always yields different bytes.
// This non-determinism is a hard requirement: the ballot store deduplicates
// on the hash of the ciphertext, and deterministic encryption would make two
// honest identical votes collide.
package votecrypt

import (
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/civicgraph/ballotbox/types"
	"github.com/civicgraph/ballotbox/util"
)

// KeySize is the size in bytes of the symmetric ballot key.
const KeySize = chacha20poly1305.KeySize

var (
	// ErrShortPayload is returned when a payload is too short to contain a nonce.
	ErrShortPayload = fmt.Errorf("payload shorter than nonce")
	// ErrDecrypt is returned when a payload fails authentication or decryption.
	ErrDecrypt = fmt.Errorf("cannot decrypt payload")
)

// Encoder seals and opens ballot payloads with a process-wide symmetric key.
// The key is injected at construction and is not tied to any voter or
// election record.
type Encoder struct {
	aead cipher.AEAD
}

// New creates an Encoder from a 32-byte key.
func New(key []byte) (*Encoder, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("ballot key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return &Encoder{aead: aead}, nil
}

// Encode seals a choice into an opaque payload bound to the election ID.
// The random nonce is prepended to the ciphertext.
func (e *Encoder) Encode(electionID types.HexBytes, choice string) (types.HexBytes, error) {
	nonce := util.RandomBytes(e.aead.NonceSize())
	payload := e.aead.Seal(nonce, nonce, []byte(choice), electionID)
	return payload, nil
}

// Decode opens a payload previously produced by Encode for the same
// election. It is used only by the tally engine after the reveal gate opens.
func (e *Encoder) Decode(electionID types.HexBytes, payload types.HexBytes) (string, error) {
	if len(payload) < e.aead.NonceSize() {
		return "", ErrShortPayload
	}
	nonce, ciphertext := payload[:e.aead.NonceSize()], payload[e.aead.NonceSize():]
	plain, err := e.aead.Open(nil, nonce, ciphertext, electionID)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// ContentHash returns the sha256 hash of an encrypted payload. It is the
// ballot deduplication key and is never computed over the plaintext.
func ContentHash(payload types.HexBytes) types.HexBytes {
	hash := sha256.Sum256(payload)
	return hash[:]
}
