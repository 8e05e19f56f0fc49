package session

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-oblivion/go-oblivion/lib/packet"
	"github.com/go-oblivion/go-oblivion/lib/socket"
)

// sessionPair builds initiator and responder sessions over an in-memory
// pipe without running the handshake.
func sessionPair(t *testing.T, header string) (*Session, *Session) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})

	initiator, err := NewSessionWithHeader(header, socket.New(a))
	require.NoError(t, err)
	responder, err := NewSession(socket.New(b))
	require.NoError(t, err)
	return initiator, responder
}

// establishedPair runs the handshake on both sides.
func establishedPair(t *testing.T) (*Session, *Session) {
	t.Helper()
	initiator, responder := sessionPair(t, "GET /resource")

	errs := make(chan error, 1)
	go func() {
		errs <- responder.Handshake(FlagResponder)
	}()
	require.NoError(t, initiator.Handshake(FlagInitiator))
	require.NoError(t, <-errs)
	return initiator, responder
}

func TestHandshake_BothSidesComplete(t *testing.T) {
	initiator, responder := establishedPair(t)

	assert.Equal(t, "GET /resource", initiator.HeaderLine())
	assert.Equal(t, "GET /resource", responder.HeaderLine())
	require.NotNil(t, initiator.aesKey)
	assert.Equal(t, initiator.aesKey, responder.aesKey)
}

func TestHandshake_ResponderLearnsRequestMetadata(t *testing.T) {
	initiator, responder := establishedPair(t)

	require.NotNil(t, responder.Request)
	assert.Equal(t, "GET", responder.Request.Method)
	assert.Equal(t, "/resource", responder.Request.Entrance)
	assert.Equal(t, responder.aesKey, responder.Request.AESKey)

	ip, err := responder.GetIP()
	require.NoError(t, err)
	assert.NotEmpty(t, ip)

	_, err = initiator.GetIP()
	assert.ErrorIs(t, err, ErrNoRequest)
}

func TestHandshake_UnknownFlagFailsWithoutIO(t *testing.T) {
	// No peer is reading the pipe, so any socket write would block
	// forever; the immediate return proves the socket was untouched.
	initiator, _ := sessionPair(t, "GET /resource")

	err := initiator.Handshake(42)
	assert.ErrorIs(t, err, ErrUnknownFlag)
}

func TestHandshake_SecondAttemptRejected(t *testing.T) {
	initiator, _ := establishedPair(t)

	err := initiator.Handshake(FlagInitiator)
	assert.ErrorIs(t, err, ErrKeyConsumed)
}

func TestHandshake_InitiatorRequiresHeader(t *testing.T) {
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})

	s, err := NewSession(socket.New(a))
	require.NoError(t, err)

	err = s.Handshake(FlagInitiator)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestHandshake_FreshKeysPerSession(t *testing.T) {
	first, firstPeer := establishedPair(t)
	second, secondPeer := establishedPair(t)

	assert.NotEqual(t, first.aesKey, second.aesKey)
	assert.Equal(t, first.aesKey, firstPeer.aesKey)
	assert.Equal(t, second.aesKey, secondPeer.aesKey)
}

func TestSendRecv_RoundTrip(t *testing.T) {
	initiator, responder := establishedPair(t)

	payload := []byte("ping")
	go func() {
		initiator.Send(payload, 200)
	}()

	resp, err := responder.Recv()
	require.NoError(t, err)
	assert.Equal(t, payload, resp.Content)
	assert.Equal(t, uint32(200), resp.Status)
	assert.Equal(t, uint32(0), resp.Flag)
	assert.True(t, resp.Ok())
}

func TestSendJSON_RoundTrip(t *testing.T) {
	initiator, responder := establishedPair(t)

	go func() {
		initiator.SendJSON(map[string]any{"x": 1}, 200)
	}()

	resp, err := responder.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"x":1}`), resp.Content)
	assert.Equal(t, uint32(200), resp.Status)

	decoded, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, float64(1), decoded["x"])
}

func TestSendResponse_RoundTrip(t *testing.T) {
	initiator, responder := establishedPair(t)

	base, err := NewJSONResponse(map[string]any{"ok": true}, 201)
	require.NoError(t, err)

	go func() {
		responder.SendResponse(base)
	}()

	resp, err := initiator.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"ok":true}`), resp.Content)
	assert.Equal(t, uint32(201), resp.Status)
}

func TestSend_BeforeHandshake(t *testing.T) {
	initiator, _ := sessionPair(t, "GET /resource")

	err := initiator.Send([]byte("early"), 200)
	assert.ErrorIs(t, err, ErrNotEstablished)

	_, err = initiator.Recv()
	assert.ErrorIs(t, err, ErrNotEstablished)
}

func TestClose_Idempotent(t *testing.T) {
	initiator, _ := establishedPair(t)

	assert.False(t, initiator.Closed())
	require.NoError(t, initiator.Close())
	assert.True(t, initiator.Closed())
	require.NoError(t, initiator.Close())
	assert.True(t, initiator.Closed())
}

func TestClose_RevokesIO(t *testing.T) {
	initiator, _ := establishedPair(t)
	require.NoError(t, initiator.Close())

	// The pipe has no reader, so any socket I/O would block; the
	// immediate errors prove Send and Recv never reached the socket.
	err := initiator.Send([]byte("late"), 200)
	assert.ErrorIs(t, err, ErrConnectionClosed)

	_, err = initiator.Recv()
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestRecv_TerminalFlagClosesSession(t *testing.T) {
	initiator, responder := establishedPair(t)

	go func() {
		// A leading marker of 1 tags the message as the sender's last.
		// Session.Send always opens with 0, so write the frames
		// directly.
		packet.NewOSC(TerminateFlag).ToStream(initiator.Sock)
		if oed, err := packet.NewOED(initiator.aesKey).FromBytes([]byte("bye")); err == nil {
			oed.ToStream(initiator.Sock)
		}
		packet.NewOSC(200).ToStream(initiator.Sock)
	}()

	resp, err := responder.Recv()
	require.NoError(t, err)
	assert.Equal(t, TerminateFlag, resp.Flag)
	assert.Equal(t, []byte("bye"), resp.Content)
	assert.Equal(t, uint32(200), resp.Status)

	// The closed flag and the socket travel through the same path.
	assert.True(t, responder.Closed())
	err = responder.Send([]byte("after"), 200)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestClose_ConcurrentWithSend(t *testing.T) {
	initiator, responder := establishedPair(t)

	// Drain the responder side so senders never block on the pipe.
	go func() {
		for {
			if _, err := responder.Recv(); err != nil {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			initiator.Send([]byte("racing"), 200)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		initiator.Close()
	}()
	wg.Wait()

	assert.True(t, initiator.Closed())
}
