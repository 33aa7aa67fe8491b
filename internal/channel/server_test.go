package channel

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/hspdebug/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inbox struct {
	mu   sync.Mutex
	msgs []string
}

func (i *inbox) add(m string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, m)
}

func (i *inbox) all() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.msgs...)
}

func startServer(t *testing.T, opts Options) (*Server, *inbox) {
	t.Helper()
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	s := NewServer(opts)
	in := &inbox{}
	require.NoError(t, s.Start(in.add))
	t.Cleanup(func() { _ = s.Stop() })
	return s, in
}

func dial(t *testing.T, s *Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/", header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, resp, err
}

func TestServerRoundTrip(t *testing.T) {
	s, in := startServer(t, Options{})
	assert.False(t, s.Connected())

	conn, _, err := dial(t, s, "")
	require.NoError(t, err)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"continue"}`)))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"stop","line":1}`)))
	require.Eventually(t, func() bool { return len(in.all()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{`{"type":"continue"}`, `{"type":"stop","line":1}`}, in.all(), "binary frames are dropped")

	s.Send(`{"type":"pause"}`)
	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.Equal(t, `{"type":"pause"}`, string(data))
}

func TestSendWithoutPeerIsNoop(t *testing.T) {
	s, _ := startServer(t, Options{})
	assert.NotPanics(t, func() { s.Send(`{"type":"pause"}`) })
}

func TestLastConnectionWins(t *testing.T) {
	s, _ := startServer(t, Options{})

	first, _, err := dial(t, s, "")
	require.NoError(t, err)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	second, _, err := dial(t, s, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.peer != nil && s.peer.RemoteAddr().String() == second.LocalAddr().String()
	}, 2*time.Second, 10*time.Millisecond)

	s.Send("ping")
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := second.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "ping", string(data))

	// The first connection stays open.
	require.NoError(t, first.WriteMessage(websocket.TextMessage, []byte("still here")))

	require.NoError(t, second.Close())
	require.Eventually(t, func() bool { return !s.Connected() }, 2*time.Second, 10*time.Millisecond)
}

func TestRejectedOriginDoesNotReplacePeer(t *testing.T) {
	s, _ := startServer(t, Options{Origin: AllowList([]string{"http://localhost"})})

	good, _, err := dial(t, s, "http://localhost")
	require.NoError(t, err)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	_, resp, err := dial(t, s, "http://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	assert.True(t, s.Connected())
	s.Send("hello")
	_ = good.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := good.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSubprotocol(t *testing.T) {
	s, _ := startServer(t, Options{Subprotocol: "hsp3debug"})

	dialer := websocket.Dialer{Subprotocols: []string{"hsp3debug"}}
	conn, _, err := dialer.Dial("ws://"+s.Addr()+"/", nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "hsp3debug", conn.Subprotocol())
}

func TestPlainHTTPIsNotFound(t *testing.T) {
	s, _ := startServer(t, Options{})
	resp, err := http.Get("http://" + s.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStopClosesPeersAndIsIdempotent(t *testing.T) {
	s, _ := startServer(t, Options{})
	conn, _, err := dial(t, s, "")
	require.NoError(t, err)
	require.Eventually(t, s.Connected, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
	assert.False(t, s.Connected())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestStartOnBusyPort(t *testing.T) {
	a, _ := startServer(t, Options{})
	b := NewServer(Options{Addr: a.Addr()})
	err := b.Start(func(string) {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeChannelListen))
}

func TestAllowList(t *testing.T) {
	policy := AllowList([]string{"http://Localhost"})
	assert.True(t, policy("http://localhost"))
	assert.False(t, policy(""))
	assert.True(t, AllowList(nil)("anything"))
}
