package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/go-i2p/logger"

	"github.com/go-oblivion/go-oblivion/lib/crypto"
	"github.com/go-oblivion/go-oblivion/lib/packet"
	"github.com/go-oblivion/go-oblivion/lib/parser"
	"github.com/go-oblivion/go-oblivion/lib/socket"
)

var log = logger.GetGoI2PLogger()

// Handshake role flags.
const (
	FlagInitiator uint8 = 0
	FlagResponder uint8 = 1
)

// TerminateFlag is the leading status code that signals the final
// message of a session.
const TerminateFlag uint32 = 1

// Session is one end of an encrypted message channel over a shared
// socket. It is built around an ephemeral X25519 key pair which the
// handshake consumes exactly once; after a successful handshake every
// payload is sealed with the derived AES key.
//
// The closed flag is the only state shared with concurrent callers and
// is guarded by its own lock. Send and Recv each serialize internally,
// so one in-flight sender and one in-flight receiver never interleave
// frames; concurrent senders (or receivers) queue behind each other.
type Session struct {
	Header      string
	RequestTime time.Time

	// Request holds the parsed peer metadata. Populated only on the
	// responder side, during the handshake.
	Request *parser.OblivionRequest

	// Sock is shared with every holder of this session.
	Sock *socket.Socket

	privateKey *crypto.PrivateKey
	publicKey  *crypto.PublicKey
	aesKey     []byte

	closedMu sync.RWMutex
	closed   bool

	sendMu sync.Mutex
	recvMu sync.Mutex
}

// NewSession builds a responder-side session. The header line is
// learned from the wire during the handshake.
func NewSession(sock *socket.Socket) (*Session, error) {
	priv, pub, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return &Session{
		RequestTime: time.Now(),
		Sock:        sock,
		privateKey:  priv,
		publicKey:   pub,
	}, nil
}

// NewSessionWithHeader builds an initiator-side session that will send
// header during the handshake.
func NewSessionWithHeader(header string, sock *socket.Socket) (*Session, error) {
	s, err := NewSession(sock)
	if err != nil {
		return nil, err
	}
	s.Header = header
	return s, nil
}

// Handshake establishes the encrypted channel. Flag 0 runs the
// initiator side, flag 1 the responder side; any other flag fails
// without touching the socket. A session handshakes at most once: the
// ephemeral private key is consumed by the first attempt, successful or
// not, and a second attempt reports ErrKeyConsumed.
func (s *Session) Handshake(flag uint8) error {
	switch flag {
	case FlagInitiator:
		return s.firstHand()
	case FlagResponder:
		return s.secondHand()
	default:
		return ErrUnknownFlag
	}
}

// firstHand sends the header line, then answers the peer's salted key
// material with a completion.
func (s *Session) firstHand() error {
	if s.Header == "" {
		return ErrNoHeader
	}

	oke, err := s.newOKE()
	if err != nil {
		return err
	}

	header := []byte(s.Header)
	prefix, err := parser.Length(header)
	if err != nil {
		return err
	}
	if err := s.Sock.Send(append(prefix, header...)); err != nil {
		return err
	}

	if err := oke.FromStreamWithSalt(s.Sock); err != nil {
		return err
	}
	key, err := oke.SharedAESKey()
	if err != nil {
		return err
	}
	s.aesKey = key

	if err := oke.ToStream(s.Sock); err != nil {
		return err
	}

	log.WithField("header", s.Header).Debug("Initiator handshake complete")
	return nil
}

// secondHand reads the peer's header line, transmits the salted key
// material first and then processes the peer's completion.
func (s *Session) secondHand() error {
	oke, err := s.newOKE()
	if err != nil {
		return err
	}

	peer := s.Sock.PeerAddr()
	length, err := s.Sock.RecvLen()
	if err != nil {
		return err
	}
	header, err := s.Sock.RecvStr(int(length))
	if err != nil {
		return err
	}
	request, err := parser.NewRequest(header)
	if err != nil {
		return err
	}
	request.SetRemotePeer(peer)

	if err := oke.ToStreamWithSalt(s.Sock); err != nil {
		return err
	}
	if err := oke.FromStream(s.Sock); err != nil {
		return err
	}

	key, err := oke.SharedAESKey()
	if err != nil {
		return err
	}
	request.AESKey = key
	s.aesKey = key
	s.Request = request
	s.Header = header

	log.WithField("peer", peer).Debug("Responder handshake complete")
	return nil
}

// newOKE moves the ephemeral private key into a key exchange packet.
// The move happens exactly once per session.
func (s *Session) newOKE() (*packet.OKE, error) {
	if s.privateKey == nil {
		return nil, ErrKeyConsumed
	}
	priv := s.privateKey
	s.privateKey = nil
	return packet.NewOKE(priv, s.publicKey)
}

// Send writes one message: an opening status marker, the sealed
// payload, and the trailing status code.
func (s *Session) Send(data []byte, statusCode uint32) error {
	if s.Closed() {
		return ErrConnectionClosed
	}
	if s.aesKey == nil {
		return ErrNotEstablished
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if err := packet.NewOSC(0).ToStream(s.Sock); err != nil {
		return err
	}
	oed, err := packet.NewOED(s.aesKey).FromBytes(data)
	if err != nil {
		return err
	}
	if err := oed.ToStream(s.Sock); err != nil {
		return err
	}
	return packet.NewOSC(statusCode).ToStream(s.Sock)
}

// SendJSON marshals v and sends it.
func (s *Session) SendJSON(v any, statusCode uint32) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Send(data, statusCode)
}

// SendResponse sends a prepared response.
func (s *Session) SendResponse(r *BaseResponse) error {
	return s.Send(r.Bytes(), r.StatusCode())
}

// Recv reads one message off the channel. A leading TerminateFlag
// marker closes the session before the response is returned.
func (s *Session) Recv() (*Response, error) {
	if s.Closed() {
		return nil, ErrConnectionClosed
	}
	if s.aesKey == nil {
		return nil, ErrNotEstablished
	}

	s.recvMu.Lock()
	opening, err := packet.OSCFromStream(s.Sock)
	if err != nil {
		s.recvMu.Unlock()
		return nil, err
	}
	oed, err := packet.NewOED(s.aesKey).FromStream(s.Sock)
	if err != nil {
		s.recvMu.Unlock()
		return nil, err
	}
	trailing, err := packet.OSCFromStream(s.Sock)
	if err != nil {
		s.recvMu.Unlock()
		return nil, err
	}
	s.recvMu.Unlock()

	response := &Response{
		Header:  s.Header,
		Content: oed.Data(),
		Status:  trailing.StatusCode,
		Flag:    opening.StatusCode,
	}

	if opening.StatusCode == TerminateFlag {
		// Terminal message: tear the session down through the same
		// guarded path as an explicit close, so Closed() and the
		// socket state cannot diverge.
		if err := s.Close(); err != nil {
			return response, err
		}
	}
	return response, nil
}

// Close closes the session and its socket. Idempotent: the second and
// later calls are no-ops.
func (s *Session) Close() error {
	s.closedMu.Lock()
	defer s.closedMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.Sock.Close()
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	s.closedMu.RLock()
	defer s.closedMu.RUnlock()
	return s.closed
}

// HeaderLine returns the header line. Valid after initiator
// construction or a responder handshake.
func (s *Session) HeaderLine() string {
	return s.Header
}

// GetIP returns the peer host recorded by a responder handshake.
func (s *Session) GetIP() (string, error) {
	if s.Request == nil {
		return "", ErrNoRequest
	}
	return s.Request.GetIP(), nil
}
