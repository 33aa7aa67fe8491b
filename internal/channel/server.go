// Package channel runs the websocket endpoint the HSP debuggee connects to.
package channel

import (
	stderrors "errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/hspdebug/errors"
	"github.com/sirupsen/logrus"
)

// DefaultAddr is the well-known endpoint the runtime dials.
const DefaultAddr = "127.0.0.1:8089"

// Options configures a Server. Zero values select defaults.
type Options struct {
	Addr        string
	Subprotocol string
	Origin      OriginPolicy
	Logger      *logrus.Entry
}

// Server accepts debuggee connections and exchanges text frames with the
// most recent one. A newly accepted connection becomes the peer without
// closing the previous one.
type Server struct {
	opts     Options
	upgrader websocket.Upgrader
	logger   *logrus.Entry

	mu        sync.Mutex
	listener  net.Listener
	http      *http.Server
	peer      *websocket.Conn
	conns     map[*websocket.Conn]struct{}
	onMessage func(string)
	stopped   bool

	writeMu sync.Mutex
}

// NewServer creates a Server. It does not listen until Start.
func NewServer(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Origin == nil {
		opts.Origin = AllowAll()
	}
	if opts.Logger == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		opts.Logger = logrus.NewEntry(discard)
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      s.checkOrigin,
	}
	if opts.Subprotocol != "" {
		s.upgrader.Subprotocols = []string{opts.Subprotocol}
	}
	return s
}

// Start begins listening and delivers every text frame from any attached
// connection to onMessage, in arrival order per connection.
func (s *Server) Start(onMessage func(string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.ChannelListen(s.opts.Addr, err)
	}

	s.listener = ln
	s.onMessage = onMessage
	s.http = &http.Server{
		Handler:           http.HandlerFunc(s.handle),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Warn("Debuggee endpoint stopped")
		}
	}(s.http)

	s.logger.WithField("addr", ln.Addr().String()).Info("Listening for debuggee")
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Connected reports whether a debuggee is attached.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer != nil
}

// Send writes text to the current peer as one text frame. Without a peer
// the message is dropped and logged.
func (s *Server) Send(text string) {
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()

	if peer == nil {
		s.logger.WithField("message", text).Warn("No debuggee attached, dropping message")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := peer.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		s.logger.WithError(err).Warn("Failed to send to debuggee")
		return
	}
	s.logger.WithField("message", text).Debug("Sent to debuggee")
}

// Stop closes the listener and every connection. It is safe to call more
// than once.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	srv := s.http
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.peer = nil
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Close()
	}
	for _, c := range conns {
		_ = c.Close()
	}
	s.logger.Debug("Debuggee endpoint closed")
	return err
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if s.opts.Origin(origin) {
		return true
	}
	s.logger.WithFields(logrus.Fields{
		"origin": origin,
		"code":   errors.ErrCodeChannelOrigin,
	}).Warn("Rejected debuggee connection from disallowed origin")
	return false
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.NotFound(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.WithError(err).Debug("Upgrade failed")
		return
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	s.peer = conn
	onMessage := s.onMessage
	s.mu.Unlock()

	s.logger.WithField("remote", conn.RemoteAddr().String()).Info("Debuggee connected")
	s.readLoop(conn, onMessage)
}

func (s *Server) readLoop(conn *websocket.Conn, onMessage func(string)) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		if s.peer == conn {
			s.peer = nil
		}
		s.mu.Unlock()
		_ = conn.Close()
		s.logger.WithField("remote", conn.RemoteAddr().String()).Info("Debuggee disconnected")
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.WithError(err).Debug("Debuggee read ended")
			}
			return
		}

		if msgType != websocket.TextMessage {
			s.logger.WithFields(logrus.Fields{
				"size": len(data),
				"code": errors.ErrCodeChannelFrame,
			}).Warn("Dropped binary frame from debuggee")
			continue
		}

		s.logger.WithField("message", string(data)).Debug("Received from debuggee")
		if onMessage != nil {
			onMessage(string(data))
		}
	}
}
