package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

var log = logger.GetGoI2PLogger()

const (
	// KeySize is the size of an X25519 key, public or private.
	KeySize = 32

	// SaltSize is the size of the random salt mixed into key derivation.
	SaltSize = 16

	// SharedKeySize is the size of the derived AES key.
	SharedKeySize = 16
)

// hkdfInfo binds derived keys to this protocol.
var hkdfInfo = []byte("oblivion-key")

// PrivateKey is an ephemeral X25519 scalar. It must be used for exactly
// one key agreement and discarded.
type PrivateKey [KeySize]byte

// PublicKey is the public counterpart of a PrivateKey.
type PublicKey [KeySize]byte

// Bytes returns the raw scalar.
func (k *PrivateKey) Bytes() []byte {
	return k[:]
}

// Bytes returns the raw curve point.
func (k *PublicKey) Bytes() []byte {
	return k[:]
}

// GenerateKeyPair generates a fresh ephemeral X25519 key pair.
func GenerateKeyPair() (*PrivateKey, *PublicKey, error) {
	log.Debug("Generating new X25519 key pair")

	var priv PrivateKey
	if _, err := io.ReadFull(rand.Reader, priv[:]); err != nil {
		return nil, nil, oops.Errorf("failed to generate X25519 private key: %w", err)
	}

	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, nil, oops.Errorf("failed to derive X25519 public key: %w", err)
	}

	var public PublicKey
	copy(public[:], pub)
	return &priv, &public, nil
}

// GenerateSalt returns a fresh random salt for key derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, oops.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// SharedKey runs the X25519 agreement between priv and peerPublic and
// derives the session's AES key with HKDF-SHA256 over the given salt.
// Both peers obtain the same key from their own private key, the peer's
// public key and the shared salt.
func SharedKey(priv *PrivateKey, peerPublic, salt []byte) ([]byte, error) {
	if priv == nil {
		return nil, ErrInvalidPrivateKey
	}
	if len(peerPublic) != KeySize {
		return nil, ErrInvalidPublicKey
	}

	secret, err := curve25519.X25519(priv.Bytes(), peerPublic)
	if err != nil {
		return nil, oops.Errorf("X25519 agreement failed: %w", err)
	}

	key := make([]byte, SharedKeySize)
	kdf := hkdf.New(sha256.New, secret, salt, hkdfInfo)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, oops.Errorf("failed to derive shared key: %w", err)
	}

	log.WithField("salt_length", len(salt)).Debug("Derived shared AES key")
	return key, nil
}
