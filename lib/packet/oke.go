package packet

import (
	"github.com/go-i2p/logger"

	"github.com/go-oblivion/go-oblivion/lib/crypto"
	"github.com/go-oblivion/go-oblivion/lib/socket"
)

var log = logger.GetGoI2PLogger()

// OKE is the Oblivion key exchange packet. One side transmits its salted
// material (public key plus a fresh random salt), the other answers with
// a completion (its bare public key). Both sides then hold the same
// derived AES key.
//
// The private key is moved into the OKE and zeroed when the agreement
// runs; an OKE is single-use.
type OKE struct {
	privateKey *crypto.PrivateKey
	publicKey  *crypto.PublicKey
	salt       []byte
	sharedKey  []byte
}

// NewOKE builds a key exchange around an ephemeral key pair. The OKE
// takes ownership of the private key.
func NewOKE(priv *crypto.PrivateKey, pub *crypto.PublicKey) (*OKE, error) {
	if priv == nil || pub == nil {
		return nil, ErrMissingKey
	}
	return &OKE{privateKey: priv, publicKey: pub}, nil
}

// ToStreamWithSalt writes this side's salted material: the 32-byte
// public key followed by a fresh 16-byte salt. The salt is retained for
// key derivation once the peer's completion arrives.
func (o *OKE) ToStreamWithSalt(sock *socket.Socket) error {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	o.salt = salt

	if err := sock.Send(o.publicKey.Bytes()); err != nil {
		return err
	}
	return sock.Send(o.salt)
}

// FromStreamWithSalt reads the peer's salted material and derives the
// shared key from it.
func (o *OKE) FromStreamWithSalt(sock *socket.Socket) error {
	peerPublic, err := sock.RecvExact(crypto.KeySize)
	if err != nil {
		return err
	}
	salt, err := sock.RecvExact(crypto.SaltSize)
	if err != nil {
		return err
	}
	o.salt = salt
	return o.agree(peerPublic)
}

// ToStream writes this side's completion: the bare public key.
func (o *OKE) ToStream(sock *socket.Socket) error {
	return sock.Send(o.publicKey.Bytes())
}

// FromStream reads the peer's completion and derives the shared key
// using the salt sent earlier by ToStreamWithSalt.
func (o *OKE) FromStream(sock *socket.Socket) error {
	peerPublic, err := sock.RecvExact(crypto.KeySize)
	if err != nil {
		return err
	}
	return o.agree(peerPublic)
}

// SharedAESKey returns the derived key. Valid only once the exchange has
// completed in both directions.
func (o *OKE) SharedAESKey() ([]byte, error) {
	if o.sharedKey == nil {
		return nil, ErrExchangeNotRun
	}
	return o.sharedKey, nil
}

func (o *OKE) agree(peerPublic []byte) error {
	if o.privateKey == nil {
		return ErrMissingKey
	}

	key, err := crypto.SharedKey(o.privateKey, peerPublic, o.salt)
	if err != nil {
		return err
	}
	o.sharedKey = key

	// The scalar was used; wipe it so the exchange cannot run twice.
	for i := range o.privateKey {
		o.privateKey[i] = 0
	}
	o.privateKey = nil

	log.Debug("Key exchange complete")
	return nil
}
