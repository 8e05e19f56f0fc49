package server

import (
	"context"
	"net"
	"sync"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
	"golang.org/x/time/rate"

	"github.com/go-oblivion/go-oblivion/lib/config"
	"github.com/go-oblivion/go-oblivion/lib/parser"
	"github.com/go-oblivion/go-oblivion/lib/session"
	"github.com/go-oblivion/go-oblivion/lib/socket"
)

var log = logger.GetGoI2PLogger()

// Handler produces the response for one received request. content is
// the decrypted payload of the message that carried the request.
type Handler func(request *parser.OblivionRequest, content []byte) *session.BaseResponse

// Server accepts connections, performs the responder handshake and
// feeds decrypted messages to a Handler until the peer sends its
// terminal message or the connection drops.
type Server struct {
	cfg     *config.ServerConfig
	handler Handler
	limiter *rate.Limiter

	mu       sync.Mutex
	listener net.Listener
}

// New builds a server around cfg and handler.
func New(cfg *config.ServerConfig, handler Handler) *Server {
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		limiter: rate.NewLimiter(rate.Limit(cfg.HandshakeRate), cfg.HandshakeBurst),
	}
}

// ListenAndServe binds the configured address and serves until the
// context is cancelled or the listener fails.
func (srv *Server) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", srv.cfg.Addr())
	if err != nil {
		return oops.Errorf("failed to bind %s: %w", srv.cfg.Addr(), err)
	}
	return srv.Serve(ctx, listener)
}

// Serve accepts on an existing listener.
func (srv *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv.mu.Lock()
	srv.listener = listener
	srv.mu.Unlock()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.WithField("addr", listener.Addr().String()).Debug("Server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return oops.Errorf("accept failed: %w", err)
		}

		if err := srv.limiter.Wait(ctx); err != nil {
			conn.Close()
			return nil
		}
		go srv.handleConn(conn)
	}
}

// Addr returns the bound listener address, once serving.
func (srv *Server) Addr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

func (srv *Server) handleConn(conn net.Conn) {
	sess, err := session.NewSession(socket.New(conn))
	if err != nil {
		log.WithError(err).Error("Failed to create session")
		conn.Close()
		return
	}
	defer sess.Close()

	if err := sess.Handshake(session.FlagResponder); err != nil {
		log.WithError(err).WithField("peer", conn.RemoteAddr().String()).Error("Handshake failed")
		return
	}

	for {
		resp, err := sess.Recv()
		if err != nil {
			if !sess.Closed() {
				log.WithError(err).Debug("Receive failed, dropping connection")
			}
			return
		}

		if resp.Flag == session.TerminateFlag {
			// Recv already closed the session; nothing to answer.
			return
		}

		reply := srv.handler(sess.Request, resp.Content)
		if reply == nil {
			reply = session.NewTextResponse("", 200)
		}
		if err := sess.SendResponse(reply); err != nil {
			log.WithError(err).Debug("Reply failed, dropping connection")
			return
		}
	}
}
