package socket

import (
	"encoding/binary"
	"io"
	"math"
	"net"
	"sync"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// Socket wraps a net.Conn with the framed read/write primitives the
// protocol needs. A single Socket is shared by every holder of the same
// session; Close is safe to call more than once and from more than one
// holder.
type Socket struct {
	conn net.Conn

	closeOnce sync.Once
	closeErr  error
}

// New wraps an established connection.
func New(conn net.Conn) *Socket {
	return &Socket{conn: conn}
}

// Send writes the whole buffer to the connection.
func (s *Socket) Send(data []byte) error {
	if _, err := s.conn.Write(data); err != nil {
		return oops.Errorf("socket write failed: %w", err)
	}
	return nil
}

// RecvExact reads exactly n bytes from the connection.
func (s *Socket) RecvExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.conn, buf); err != nil {
		return nil, oops.Errorf("socket read failed: %w", err)
	}
	return buf, nil
}

// RecvLen reads a 4-byte big-endian length prefix.
func (s *Socket) RecvLen() (uint32, error) {
	buf, err := s.RecvExact(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// RecvStr reads exactly n bytes and returns them as a string.
func (s *Socket) RecvStr(n int) (string, error) {
	buf, err := s.RecvExact(n)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// PeerAddr returns the remote address of the connection.
func (s *Socket) PeerAddr() string {
	return s.conn.RemoteAddr().String()
}

// Close closes the underlying connection. Repeated calls return the
// result of the first close.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		log.WithField("peer", s.PeerAddr()).Debug("Closing socket")
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// LenPrefix returns the 4-byte big-endian length prefix for data.
func LenPrefix(data []byte) ([]byte, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return nil, ErrOversize
	}
	prefix := make([]byte, 4)
	binary.BigEndian.PutUint32(prefix, uint32(len(data)))
	return prefix, nil
}
