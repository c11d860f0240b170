// Package vault is the content protection gateway for sensitive items.
//
// Values are sealed with AES-256-GCM and wrapped in a sniffable envelope:
//
//	ckv1:<base64(nonce || ciphertext)>
//
// The prefix lets callers detect already-encrypted content and avoid
// double-encryption on update. Key material lifecycle is the caller's
// concern; the vault only derives a fixed-size key from whatever secret
// it is handed.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// envelopePrefix marks vault-sealed values. Version suffix allows a future
// format change without breaking the sniff.
const envelopePrefix = "ckv1:"

// ErrCorruptContent reports ciphertext that cannot be opened: truncated
// envelope, invalid base64, or failed authentication. Low-level cipher
// errors are never surfaced directly.
var ErrCorruptContent = errors.New("corrupt content")

// Vault seals and opens sensitive content. Stateless per call and safe for
// concurrent use.
type Vault struct {
	key [32]byte
}

// New derives an AES-256 key from secret and returns a ready vault.
// The secret may be any non-empty byte string (e.g. the contents of a key
// file); it is hashed to key size.
func New(secret []byte) (*Vault, error) {
	if len(secret) == 0 {
		return nil, errors.New("vault: empty key material")
	}
	return &Vault{key: sha256.Sum256(secret)}, nil
}

// Encrypt seals plaintext into the envelope format. Each call uses a fresh
// random nonce, so equal inputs produce distinct envelopes.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	aead, err := v.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("vault: nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return envelopePrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. Any malformed or
// unauthentic input fails with ErrCorruptContent.
func (v *Vault) Decrypt(value string) (string, error) {
	raw, ok := strings.CutPrefix(value, envelopePrefix)
	if !ok {
		return "", fmt.Errorf("%w: missing envelope prefix", ErrCorruptContent)
	}
	sealed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", ErrCorruptContent)
	}
	aead, err := v.aead()
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize() {
		return "", fmt.Errorf("%w: truncated envelope", ErrCorruptContent)
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrCorruptContent)
	}
	return string(plaintext), nil
}

// IsEncrypted reports whether value carries the vault envelope. This is a
// format sniff only; it does not prove the value can be opened.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, envelopePrefix)
}

func (v *Vault) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key[:])
	if err != nil {
		return nil, fmt.Errorf("vault: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: gcm: %w", err)
	}
	return aead, nil
}
