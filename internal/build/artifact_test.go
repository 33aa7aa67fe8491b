package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactWaiterExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.ax")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	w := ArtifactWaiter{Attempts: 1, Interval: time.Millisecond}
	assert.True(t, w.Wait(context.Background(), path))
}

func TestArtifactWaiterLateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.ax")
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, nil, 0644)
	}()

	w := ArtifactWaiter{Attempts: 30, Interval: 100 * time.Millisecond}
	start := time.Now()
	assert.True(t, w.Wait(context.Background(), path))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestArtifactWaiterGivesUp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.ax")

	w := ArtifactWaiter{Attempts: 3, Interval: 20 * time.Millisecond}
	start := time.Now()
	assert.False(t, w.Wait(context.Background(), path))
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestArtifactWaiterMissingDirectoryPolls(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "later")
	path := filepath.Join(dir, "a.ax")
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.MkdirAll(dir, 0755)
		_ = os.WriteFile(path, nil, 0644)
	}()

	w := ArtifactWaiter{Attempts: 30, Interval: 20 * time.Millisecond}
	assert.True(t, w.Wait(context.Background(), path))
}

func TestArtifactWaiterContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := ArtifactWaiter{Attempts: 100, Interval: 100 * time.Millisecond}
	assert.False(t, w.Wait(ctx, filepath.Join(t.TempDir(), "a.ax")))
}
