package packet

import (
	"encoding/binary"

	"github.com/go-oblivion/go-oblivion/lib/socket"
)

// OSC is the Oblivion status code packet. A status code frames each
// message on the wire: code 0 opens a message, the trailing code carries
// the application status. Code 1 in the leading position signals session
// termination.
type OSC struct {
	StatusCode uint32
}

// NewOSC builds a status packet carrying code.
func NewOSC(code uint32) *OSC {
	return &OSC{StatusCode: code}
}

// ToStream writes the status code as 4 big-endian bytes.
func (o *OSC) ToStream(sock *socket.Socket) error {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, o.StatusCode)
	return sock.Send(buf)
}

// OSCFromStream reads a status packet off the socket.
func OSCFromStream(sock *socket.Socket) (*OSC, error) {
	buf, err := sock.RecvExact(4)
	if err != nil {
		return nil, err
	}
	return &OSC{StatusCode: binary.BigEndian.Uint32(buf)}, nil
}
