// Package startup registers the binary to start at login.
package startup

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"networkinfo/internal/executor"
	"networkinfo/internal/storage"
)

const DefaultLabel = "com.jamtur01.NetworkInfo"

type StartupManager interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
	IsEnabled() bool
	// Location is the file or registry key the manager writes.
	Location() string
}

// Entry describes what runs at login.
type Entry struct {
	Label   string
	Program string
	Args    []string
	// HomeDir overrides the user's home directory.
	HomeDir string
}

// CurrentExecutable returns an Entry that runs this binary with args.
func CurrentExecutable(label string, args ...string) (Entry, error) {
	exe, err := os.Executable()
	if err != nil {
		return Entry{}, err
	}
	return Entry{Label: label, Program: exe, Args: args}, nil
}

func (e Entry) home() string {
	if e.HomeDir != "" {
		return e.HomeDir
	}
	h, _ := os.UserHomeDir()
	return h
}

func NewStartupManager(entry Entry, r executor.Runner) StartupManager {
	switch runtime.GOOS {
	case "windows":
		return &WindowsStartupManager{entry: entry, runner: r}
	case "darwin":
		return &MacOSStartupManager{entry: entry, runner: r}
	default:
		return &LinuxStartupManager{entry: entry}
	}
}

const runKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

type WindowsStartupManager struct {
	entry  Entry
	runner executor.Runner
}

func (m *WindowsStartupManager) Enable(ctx context.Context) error {
	cmdline := `"` + m.entry.Program + `"`
	if len(m.entry.Args) > 0 {
		cmdline += " " + strings.Join(m.entry.Args, " ")
	}
	_, err := m.runner.Run(ctx, 0, "reg", "add", runKey, "/v", m.entry.Label, "/t", "REG_SZ", "/d", cmdline, "/f")
	return err
}

func (m *WindowsStartupManager) Disable(ctx context.Context) error {
	_, err := m.runner.Run(ctx, 0, "reg", "delete", runKey, "/v", m.entry.Label, "/f")
	return err
}

func (m *WindowsStartupManager) IsEnabled() bool {
	_, err := m.runner.Run(context.Background(), 0, "reg", "query", runKey, "/v", m.entry.Label)
	return err == nil
}

func (m *WindowsStartupManager) Location() string {
	return runKey + `\` + m.entry.Label
}

type LinuxStartupManager struct {
	entry Entry
}

func (m *LinuxStartupManager) Location() string {
	return filepath.Join(m.entry.home(), ".config/autostart", m.entry.Label+".desktop")
}

func (m *LinuxStartupManager) Enable(context.Context) error {
	exec := m.entry.Program
	if len(m.entry.Args) > 0 {
		exec += " " + strings.Join(m.entry.Args, " ")
	}

	content := `[Desktop Entry]
Type=Application
Version=1.0
Name=` + storage.AppName + `
Comment=` + storage.AppName + ` network monitor
Exec=` + exec + `
Terminal=false
Categories=Utility;
Hidden=false
NoDisplay=false
X-GNOME-Autostart-enabled=true
`
	return storage.WriteFileAtomic(m.Location(), []byte(content))
}

func (m *LinuxStartupManager) Disable(context.Context) error {
	err := os.Remove(m.Location())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (m *LinuxStartupManager) IsEnabled() bool {
	return storage.FileExists(m.Location())
}

// MacOSStartupManager installs a per-user LaunchAgent.
type MacOSStartupManager struct {
	entry  Entry
	runner executor.Runner
}

func (m *MacOSStartupManager) Location() string {
	return filepath.Join(m.entry.home(), "Library/LaunchAgents", m.entry.Label+".plist")
}

func (m *MacOSStartupManager) Enable(ctx context.Context) error {
	plist, err := LaunchAgentPlist(m.entry)
	if err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(m.Location(), plist); err != nil {
		return err
	}
	_, err = m.runner.Run(ctx, 0, "/bin/launchctl", "load", m.Location())
	return err
}

func (m *MacOSStartupManager) Disable(ctx context.Context) error {
	plistFile := m.Location()
	if !storage.FileExists(plistFile) {
		return nil
	}
	if _, err := m.runner.Run(ctx, 0, "/bin/launchctl", "unload", plistFile); err != nil {
		return err
	}
	return os.Remove(plistFile)
}

func (m *MacOSStartupManager) IsEnabled() bool {
	return storage.FileExists(m.Location())
}

// LaunchAgentPlist renders a RunAtLoad LaunchAgent for entry.
func LaunchAgentPlist(entry Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>`)
	if err := xml.EscapeText(&buf, []byte(entry.Label)); err != nil {
		return nil, err
	}
	buf.WriteString(`</string>
    <key>ProgramArguments</key>
    <array>
`)
	for _, arg := range append([]string{entry.Program}, entry.Args...) {
		buf.WriteString("        <string>")
		if err := xml.EscapeText(&buf, []byte(arg)); err != nil {
			return nil, err
		}
		buf.WriteString("</string>\n")
	}
	buf.WriteString(`    </array>
    <key>RunAtLoad</key>
    <true/>
</dict>
</plist>
`)
	return buf.Bytes(), nil
}
