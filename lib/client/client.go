package client

import (
	"net"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"

	"github.com/go-oblivion/go-oblivion/lib/session"
	"github.com/go-oblivion/go-oblivion/lib/socket"
)

var log = logger.GetGoI2PLogger()

// Connect dials addr, builds an initiator session carrying header and
// runs the handshake. The caller owns the returned session.
func Connect(addr, header string) (*session.Session, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, oops.Errorf("failed to dial %s: %w", addr, err)
	}

	sess, err := session.NewSessionWithHeader(header, socket.New(conn))
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := sess.Handshake(session.FlagInitiator); err != nil {
		sess.Close()
		return nil, err
	}

	log.WithField("addr", addr).Debug("Connected")
	return sess, nil
}

// Request is a one-shot exchange: connect, send a single payload,
// return the peer's response.
func Request(addr, header string, payload []byte, statusCode uint32) (*session.Response, error) {
	sess, err := Connect(addr, header)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if err := sess.Send(payload, statusCode); err != nil {
		return nil, err
	}
	return sess.Recv()
}
