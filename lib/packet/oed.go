package packet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/samber/oops"

	"github.com/go-oblivion/go-oblivion/lib/socket"
)

const (
	// NonceSize is the AES-GCM nonce length prepended to ciphertext.
	NonceSize = 12

	// MaxFrameSize bounds a single encrypted data frame.
	MaxFrameSize = 16 * 1024 * 1024
)

// OED is the Oblivion encrypted data packet: a length-prefixed
// AES-128-GCM frame of `nonce || ciphertext`.
type OED struct {
	key        []byte
	plaintext  []byte
	ciphertext []byte
}

// NewOED builds an encrypted data packet around the session key.
func NewOED(key []byte) *OED {
	return &OED{key: key}
}

// FromBytes seals data into the packet.
func (o *OED) FromBytes(data []byte) (*OED, error) {
	gcm, err := o.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, oops.Errorf("failed to generate nonce: %w", err)
	}

	o.plaintext = data
	o.ciphertext = gcm.Seal(nonce, nonce, data, nil)
	return o, nil
}

// ToStream writes the sealed frame with its length prefix.
func (o *OED) ToStream(sock *socket.Socket) error {
	prefix, err := socket.LenPrefix(o.ciphertext)
	if err != nil {
		return err
	}
	if err := sock.Send(prefix); err != nil {
		return err
	}
	return sock.Send(o.ciphertext)
}

// FromStream reads a sealed frame off the socket and opens it.
func (o *OED) FromStream(sock *socket.Socket) (*OED, error) {
	size, err := sock.RecvLen()
	if err != nil {
		return nil, err
	}
	if size > MaxFrameSize {
		return nil, ErrOversizeFrame
	}
	if size < NonceSize {
		return nil, ErrMalformedFrame
	}

	frame, err := sock.RecvExact(int(size))
	if err != nil {
		return nil, err
	}
	o.ciphertext = frame

	gcm, err := o.aead()
	if err != nil {
		return nil, err
	}

	plain, err := gcm.Open(nil, frame[:NonceSize], frame[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	o.plaintext = plain
	return o, nil
}

// Data returns the plaintext payload.
func (o *OED) Data() []byte {
	return o.plaintext
}

func (o *OED) aead() (cipher.AEAD, error) {
	if o.key == nil {
		return nil, ErrNoEncryptKey
	}
	block, err := aes.NewCipher(o.key)
	if err != nil {
		return nil, oops.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, oops.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
