// Package adapter speaks the Debug Adapter Protocol with an editor over a
// byte stream and hands every request to a session.
package adapter

import (
	"bufio"
	stderrors "errors"
	"io"
	"sync"

	"github.com/google/go-dap"
	"github.com/grovetools/hspdebug/internal/session"
	"github.com/sirupsen/logrus"
)

// Conn is one editor connection. Writes are serialized and numbered.
type Conn struct {
	reader *bufio.Reader
	writer io.Writer
	logger *logrus.Entry

	writeMu sync.Mutex
	seq     int
}

// NewConn wraps r and w. logger may be nil.
func NewConn(r io.Reader, w io.Writer, logger *logrus.Entry) *Conn {
	if logger == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		logger = logrus.NewEntry(discard)
	}
	return &Conn{
		reader: bufio.NewReader(r),
		writer: w,
		logger: logger,
	}
}

// Send assigns the next sequence number to msg and writes it.
func (c *Conn) Send(msg dap.Message) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.seq++
	switch m := msg.(type) {
	case dap.ResponseMessage:
		m.GetResponse().Seq = c.seq
	case dap.EventMessage:
		m.GetEvent().Seq = c.seq
	case dap.RequestMessage:
		m.GetRequest().Seq = c.seq
	}

	if err := dap.WriteProtocolMessage(c.writer, msg); err != nil {
		c.logger.WithError(err).Warn("Failed to write to the editor")
		return
	}
	if c.logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		c.logger.WithField("seq", c.seq).Debugf("Sent %T", msg)
	}
}

// Serve reads requests until the editor disconnects or the stream ends and
// dispatches them to a new session built from opts. The session is torn
// down before Serve returns.
func (c *Conn) Serve(opts session.Options) error {
	sess := session.New(c, opts)
	defer sess.Close()

	for {
		msg, err := dap.ReadProtocolMessage(c.reader)
		if err != nil {
			var fieldErr *dap.DecodeProtocolMessageFieldError
			if stderrors.As(err, &fieldErr) {
				c.reject(sess, fieldErr)
				continue
			}
			if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
				c.logger.Debug("Editor closed the connection")
				return nil
			}
			return err
		}

		c.logger.WithField("seq", msg.GetSeq()).Debugf("Received %T", msg)
		sess.Handle(msg)

		select {
		case <-sess.Done():
			return nil
		default:
		}
	}
}

// reject answers a request whose command the protocol library does not
// know. Other undecodable messages are logged and skipped.
func (c *Conn) reject(sess *session.Session, fieldErr *dap.DecodeProtocolMessageFieldError) {
	if fieldErr.FieldName == "command" {
		sess.Reject(fieldErr.Seq, fieldErr.FieldValue)
		return
	}
	c.logger.WithError(fieldErr).Warn("Skipping undecodable message")
}
