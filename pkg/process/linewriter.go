package process

import (
	"bytes"
	"strings"
	"sync"
)

// lineWriter splits a process stream into lines for Callbacks.OnOutput.
type lineWriter struct {
	stream Stream
	fn     func(Stream, string)

	mu  sync.Mutex
	buf bytes.Buffer
}

func newLineWriter(stream Stream, fn func(Stream, string)) *lineWriter {
	return &lineWriter{stream: stream, fn: fn}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	if w.fn == nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(w.buf.Next(i + 1))
		w.fn(w.stream, strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Flush emits a trailing line that has no newline.
func (w *lineWriter) Flush() {
	if w.fn == nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.fn(w.stream, strings.TrimRight(w.buf.String(), "\r"))
		w.buf.Reset()
	}
}
