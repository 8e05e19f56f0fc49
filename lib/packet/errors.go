package packet

import (
	"github.com/samber/oops"
)

var (
	ErrMissingKey     = oops.New("key exchange packet is missing key material")
	ErrExchangeNotRun = oops.New("key exchange has not completed both directions")
	ErrNoEncryptKey   = oops.New("encrypted data packet has no key")
	ErrDecryptFailed  = oops.New("failed to decrypt data packet")
	ErrOversizeFrame  = oops.New("data packet exceeds maximum frame size")
	ErrMalformedFrame = oops.New("data packet too short to carry a nonce")
)
