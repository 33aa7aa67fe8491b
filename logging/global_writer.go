package logging

import (
	"io"
	"os"
	"sync/atomic"
)

// stderrSink holds the writer behind GetGlobalOutput. It starts as os.Stderr.
var stderrSink atomic.Pointer[io.Writer]

func init() {
	var w io.Writer = os.Stderr
	stderrSink.Store(&w)
}

// sinkWriter forwards to whatever stderrSink holds at write time, so loggers
// created before SetGlobalOutput follow the redirect.
type sinkWriter struct{}

func (sinkWriter) Write(p []byte) (int, error) {
	return (*stderrSink.Load()).Write(p)
}

// SetGlobalOutput redirects the stderr sink of all loggers.
// Stdout carries the DAP stream in stdio mode and must never be passed here.
func SetGlobalOutput(w io.Writer) {
	stderrSink.Store(&w)
}

// GetGlobalOutput returns the shared stderr sink.
func GetGlobalOutput() io.Writer {
	return sinkWriter{}
}
