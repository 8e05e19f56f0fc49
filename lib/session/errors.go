package session

import (
	"github.com/samber/oops"
)

var (
	ErrConnectionClosed = oops.New("session is closed")
	ErrUnknownFlag      = oops.New("unknown handshake flag")
	ErrKeyConsumed      = oops.New("session key material already consumed")
	ErrNotEstablished   = oops.New("session has no symmetric key; handshake first")
	ErrNoHeader         = oops.New("session has no header to send")
	ErrNoRequest        = oops.New("session carries no request metadata")
)
