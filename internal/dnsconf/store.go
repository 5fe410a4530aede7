package dnsconf

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"

	"networkinfo/internal/models"
	"networkinfo/internal/storage"

	"go.uber.org/zap"
)

const FileName = "dns.conf"

const ExampleConfig = `# NetworkInfo DNS Configuration
# 
# This file configures custom DNS servers for different Wi-Fi networks.
# Format: SSID = DNS_Server1 DNS_Server2 ...
#
# Examples:
# 
# Home = 1.1.1.1 8.8.8.8
# Work = 192.168.1.1 192.168.1.2
# 
# Use Cloudflare for home networks:
# HomeWifi = 1.1.1.1 1.0.0.1
# 
# Use Google DNS for coffee shops:
# CoffeeShopWifi = 8.8.8.8 8.8.4.4
# 
# For empty DNS configuration (use network defaults):
# GuestNetwork = 

`

var (
	ErrInvalidSSID   = errors.New("invalid ssid")
	ErrInvalidServer = errors.New("invalid dns server")
)

// Store is the SSID to DNS servers mapping file. Every read goes to disk so
// edits made outside the process apply on the next lookup.
type Store struct {
	path       string
	legacyPath string
	mu         sync.Mutex
}

func NewStore(path, legacyPath string) *Store {
	return &Store{path: path, legacyPath: legacyPath}
}

func (s *Store) Path() string {
	return s.path
}

// Ensure makes sure the file exists: it copies the legacy file when only
// that one is present, otherwise writes the commented example.
func (s *Store) Ensure() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if storage.FileExists(s.path) {
		return nil
	}

	if s.legacyPath != "" && storage.FileExists(s.legacyPath) {
		if err := storage.CopyFile(s.legacyPath, s.path); err != nil {
			return fmt.Errorf("migrate %s: %w", s.legacyPath, err)
		}
		zap.S().Infow("migrated DNS config from legacy location", "from", s.legacyPath, "to", s.path)
		return nil
	}

	if err := storage.WriteFileAtomic(s.path, []byte(ExampleConfig)); err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	zap.S().Infow("created example DNS config", "path", s.path)
	return nil
}

// Lookup returns the servers configured for ssid as written in the file.
// An SSID listed with nothing after "=" yields ("", true). A missing or
// unreadable file means nothing is configured.
func (s *Store) Lookup(ssid string) (string, bool) {
	f, err := os.Open(s.path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if key, servers, ok := parseLine(sc.Text()); ok && key == ssid {
			return servers, true
		}
	}
	return "", false
}

func (s *Store) Entries() ([]models.DNSConfigEntry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Set writes servers for ssid, replacing the first existing line for it or
// appending a new one. Comments and unrelated lines are preserved.
func (s *Store) Set(ssid string, servers []string) error {
	ssid = strings.TrimSpace(ssid)
	if ssid == "" || strings.Contains(ssid, "=") || strings.HasPrefix(ssid, "#") || strings.ContainsAny(ssid, "\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidSSID, ssid)
	}
	for _, srv := range servers {
		if net.ParseIP(srv) == nil {
			return fmt.Errorf("%w: %q", ErrInvalidServer, srv)
		}
	}
	line := ssid + " = " + strings.Join(servers, " ")

	return s.rewrite(func(lines []string) []string {
		for i, l := range lines {
			if key, _, ok := parseLine(l); ok && key == ssid {
				lines[i] = line
				return lines
			}
		}
		return append(lines, line)
	})
}

// Remove deletes every line for ssid and reports whether one existed.
func (s *Store) Remove(ssid string) (bool, error) {
	removed := false
	err := s.rewrite(func(lines []string) []string {
		kept := lines[:0]
		for _, l := range lines {
			if key, _, ok := parseLine(l); ok && key == ssid {
				removed = true
				continue
			}
			kept = append(kept, l)
		}
		return kept
	})
	return removed, err
}

func (s *Store) rewrite(edit func([]string) []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}
	lines = edit(lines)

	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return storage.WriteFileAtomic(s.path, buf.Bytes())
}

// Parse reads mapping lines. Blank lines, comments and lines without "=" are
// skipped; the first "=" splits SSID from servers.
func Parse(r io.Reader) ([]models.DNSConfigEntry, error) {
	var entries []models.DNSConfigEntry
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		ssid, servers, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		entries = append(entries, models.DNSConfigEntry{
			SSID:       ssid,
			Servers:    strings.Fields(servers),
			Configured: true,
		})
	}
	return entries, sc.Err()
}

func parseLine(line string) (ssid, servers string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	key, value, found := strings.Cut(trimmed, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}
