package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestFileWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dns.conf")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o644))

	fw, err := New(path, 50*time.Millisecond)
	require.NoError(t, err)

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx, func() { fired.Add(1) })

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("HomeWifi = 1.1.1.1\n"), 0o644))
	}
	waitFor(t, func() bool { return fired.Load() >= 1 })

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestFileWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dns.conf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fw, err := New(path, 20*time.Millisecond)
	require.NoError(t, err)

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx, func() { fired.Add(1) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yml"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, fired.Load())
}

func TestFileWatcherSeesRenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dns.conf")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	fw, err := New(path, 20*time.Millisecond)
	require.NoError(t, err)

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fw.Run(ctx, func() { fired.Add(1) })

	tmp := filepath.Join(dir, ".dns.conf.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("Cafe = 8.8.8.8\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	waitFor(t, func() bool { return fired.Load() == 1 })
}
