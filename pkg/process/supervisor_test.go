package process

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/hspdebug/errors"
	"github.com/grovetools/hspdebug/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	exits  []int
	errs   []error
	lines  []string
	stderr []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnExit: func(code int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.exits = append(r.exits, code)
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
		OnOutput: func(stream Stream, line string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if stream == Stderr {
				r.stderr = append(r.stderr, line)
				return
			}
			r.lines = append(r.lines, line)
		},
	}
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("process did not finish")
	}
}

func TestSpawnExit(t *testing.T) {
	dir := t.TempDir()
	bin := testutil.WriteScript(t, dir, "hsp3.exe", `echo "start $1"; pwd; printf "tail"; echo "oops" >&2; exit 4`)

	s := NewSupervisor()
	rec := &recorder{}
	h := s.Spawn(bin, []string{"start.ax"}, dir, rec.callbacks())
	waitDone(t, h)

	assert.Equal(t, []int{4}, rec.exits)
	assert.Empty(t, rec.errs)
	assert.Equal(t, []string{"start start.ax", dir, "tail"}, rec.lines)
	assert.Equal(t, []string{"oops"}, rec.stderr)

	code, ok := h.ExitCode()
	assert.True(t, ok)
	assert.Equal(t, 4, code)
	assert.NotZero(t, h.Pid())
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, 0, s.Count())
}

func TestSpawnFailureIsAsynchronous(t *testing.T) {
	s := NewSupervisor()
	rec := &recorder{}

	h := s.Spawn(filepath.Join(t.TempDir(), "missing.exe"), nil, t.TempDir(), rec.callbacks())
	require.NotNil(t, h)
	waitDone(t, h)

	require.Len(t, rec.errs, 1)
	assert.True(t, errors.Is(rec.errs[0], errors.ErrCodeProcessSpawn))
	assert.Empty(t, rec.exits)
	assert.Zero(t, h.Pid())
	assert.Error(t, h.Err())
}

func TestKillIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	bin := testutil.WriteScript(t, dir, "hsp3.exe", `exec sleep 30`)

	s := NewSupervisor()
	rec := &recorder{}
	h := s.Spawn(bin, nil, dir, rec.callbacks())
	require.Eventually(t, func() bool { return h.Alive() }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.Kill(h))
	assert.Equal(t, 0, s.Count(), "kill forgets the handle")
	waitDone(t, h)

	require.NoError(t, s.Kill(h))
	require.NoError(t, s.Kill(nil))

	assert.Len(t, rec.exits, 1, "terminal callback fires exactly once")
	assert.False(t, h.Alive())
	assert.Empty(t, rec.errs)
}

func TestKillFailedHandle(t *testing.T) {
	s := NewSupervisor()
	h := s.Spawn(filepath.Join(t.TempDir(), "missing.exe"), nil, "", Callbacks{})
	waitDone(t, h)
	assert.NoError(t, s.Kill(h))
}

func TestShutdown(t *testing.T) {
	dir := t.TempDir()
	bin := testutil.WriteScript(t, dir, "hsp3.exe", `exec sleep 30`)

	s := NewSupervisor()
	a := s.Spawn(bin, nil, dir, Callbacks{})
	b := s.Spawn(bin, nil, dir, Callbacks{})
	require.Eventually(t, func() bool { return a.Pid() != 0 && b.Pid() != 0 }, 5*time.Second, 10*time.Millisecond)

	s.Shutdown()
	waitDone(t, a)
	waitDone(t, b)

	rec := &recorder{}
	late := s.Spawn(bin, nil, dir, rec.callbacks())
	waitDone(t, late)
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], ErrSupervisorShutdown)
}

func TestLineWriter(t *testing.T) {
	var got []string
	w := newLineWriter(Stdout, func(_ Stream, line string) { got = append(got, line) })

	_, _ = w.Write([]byte("a\r\nb"))
	_, _ = w.Write([]byte("c\n\nd"))
	w.Flush()

	assert.Equal(t, []string{"a", "bc", "", "d"}, got)
}
