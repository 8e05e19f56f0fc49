package crypto

import (
	"github.com/samber/oops"
)

var (
	ErrInvalidPrivateKey = oops.New("invalid X25519 private key")
	ErrInvalidPublicKey  = oops.New("invalid X25519 public key")
)
