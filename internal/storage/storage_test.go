package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppStorageAtCreatesDirs(t *testing.T) {
	base := filepath.Join(t.TempDir(), AppName)
	s, err := NewAppStorageAt(base)
	require.NoError(t, err)

	assert.DirExists(t, s.ConfigPath())
	assert.DirExists(t, s.LogsPath())
	assert.Equal(t, filepath.Join(base, "dns.conf"), s.Path("dns.conf"))
}

func TestCopyFileCreatesParent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.conf")
	require.NoError(t, os.WriteFile(src, []byte("Home = 1.1.1.1\n"), 0o644))

	dst := filepath.Join(dir, "nested", "dst.conf")
	require.NoError(t, CopyFile(src, dst))

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "Home = 1.1.1.1\n", string(b))
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dns.conf")
	require.NoError(t, WriteFileAtomic(path, []byte("a")))
	require.NoError(t, WriteFileAtomic(path, []byte("b")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/etc/hosts", ExpandHome("/etc/hosts"))
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config/hammerspoon/dns.conf"), ExpandHome(".config/hammerspoon/dns.conf"))
	assert.Equal(t, filepath.Join(home, ".config/hammerspoon/dns.conf"), ExpandHome("~/.config/hammerspoon/dns.conf"))
	assert.Equal(t, home, ExpandHome("~"))
}
