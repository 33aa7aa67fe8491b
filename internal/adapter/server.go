package adapter

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"sync"

	"github.com/grovetools/hspdebug/internal/session"
	"github.com/sirupsen/logrus"
)

// Server accepts editor connections on a TCP address and runs one session
// per connection.
type Server struct {
	addr       string
	newOptions func() session.Options
	logger     *logrus.Entry

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// NewServer creates a Server. newOptions is called once per connection.
func NewServer(addr string, newOptions func() session.Options, logger *logrus.Entry) *Server {
	if logger == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		logger = logrus.NewEntry(discard)
	}
	return &Server{
		addr:       addr,
		newOptions: newOptions,
		logger:     logger,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Listen binds the address.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.WithField("addr", ln.Addr().String()).Info("Debug adapter listening")
	return nil
}

// Addr returns the bound address once Listen succeeded.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Serve accepts connections until ctx is done, then closes every open
// connection and waits for their sessions to end.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		return s.Serve(ctx)
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	defer s.closeAll()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || stderrors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.serveConn(conn)
		}()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	logger := s.logger.WithField("remote", conn.RemoteAddr().String())
	logger.Info("Editor connected")

	c := NewConn(conn, conn, logger)
	if err := c.Serve(s.newOptions()); err != nil {
		logger.WithError(err).Warn("Editor connection failed")
		return
	}
	logger.Info("Editor session ended")
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
