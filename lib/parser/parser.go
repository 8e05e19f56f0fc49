package parser

import (
	"net"
	"strings"

	"github.com/go-i2p/logger"

	"github.com/go-oblivion/go-oblivion/lib/socket"
)

var log = logger.GetGoI2PLogger()

// Length returns the 4-byte big-endian length prefix used for the
// handshake header line.
func Length(data []byte) ([]byte, error) {
	return socket.LenPrefix(data)
}

// OblivionRequest is the routing metadata parsed from a handshake header
// line, e.g. "GET /resource". The responder attaches the peer address
// and, after the key exchange, the derived session key so higher layers
// can act on both.
type OblivionRequest struct {
	Method   string
	Entrance string
	Header   string

	AESKey []byte

	remoteHost string
	remotePort string
}

// NewRequest parses a header line into a request.
func NewRequest(header string) (*OblivionRequest, error) {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		log.Warnf("Rejected malformed header line: %q", header)
		return nil, ErrBadHeader
	}

	return &OblivionRequest{
		Method:   fields[0],
		Entrance: fields[1],
		Header:   header,
	}, nil
}

// SetRemotePeer records the transport address of the peer that sent the
// header.
func (r *OblivionRequest) SetRemotePeer(addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// Not host:port shaped; keep the raw address.
		r.remoteHost = addr
		return
	}
	r.remoteHost = host
	r.remotePort = port
}

// GetIP returns the peer's host address.
func (r *OblivionRequest) GetIP() string {
	return r.remoteHost
}

// GetPort returns the peer's port.
func (r *OblivionRequest) GetPort() string {
	return r.remotePort
}

// Plain returns the original header line.
func (r *OblivionRequest) Plain() string {
	return r.Header
}
