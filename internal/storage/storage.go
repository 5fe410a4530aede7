package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const AppName = "NetworkInfo"

type AppStorage struct {
	baseDir string
	logsDir string
}

// NewAppStorage roots the storage in the user's application support
// directory (os.UserConfigDir, which is ~/Library/Application Support on macOS).
func NewAppStorage(appName string) (*AppStorage, error) {
	baseDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return NewAppStorageAt(filepath.Join(baseDir, appName))
}

func NewAppStorageAt(baseDir string) (*AppStorage, error) {
	logsDir := filepath.Join(baseDir, "logs")

	dirs := []string{baseDir, logsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	return &AppStorage{
		baseDir: baseDir,
		logsDir: logsDir,
	}, nil
}

func (s *AppStorage) ConfigPath() string {
	return s.baseDir
}

func (s *AppStorage) LogsPath() string {
	return s.logsDir
}

func (s *AppStorage) Path(name string) string {
	return filepath.Join(s.baseDir, name)
}

func (s *AppStorage) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteFileAtomic writes through a temp file and renames it into place, so
// watchers never observe a half-written file.
func (s *AppStorage) WriteFileAtomic(path string, data []byte) error {
	return WriteFileAtomic(path, data)
}

func (s *AppStorage) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *AppStorage) FileExists(path string) bool {
	return FileExists(path)
}

func (s *AppStorage) CopyFile(src, dst string) error {
	return CopyFile(src, dst)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// ExpandHome resolves a path relative to the user's home directory. A
// leading "~/" is dropped, so "~/x" and "x" name the same file.
func ExpandHome(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return rel
	}
	if rel == "~" {
		return home
	}
	rel = strings.TrimPrefix(rel, "~/")
	return filepath.Join(home, rel)
}
