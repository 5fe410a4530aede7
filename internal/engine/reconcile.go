package engine

import (
	"context"
	"strings"
	"sync"

	"networkinfo/internal/executor"
	"networkinfo/internal/models"
	"networkinfo/internal/notify"

	"go.uber.org/zap"
)

const DNSChangedTitle = "Wi-Fi DNS Changed"

// ConfigLookup answers which DNS servers an SSID should use.
type ConfigLookup interface {
	Lookup(ssid string) (servers string, found bool)
}

// Reconciler decides whether the system DNS servers must be rewritten for
// the current SSID. It remembers the last pair it wrote so the same
// (ssid, servers) is applied once until the SSID goes away or its servers
// change.
//
//	Not connected / Privacy restricted -> forget last applied
//	no entry                           -> forget last applied
//	entry with no servers              -> leave system defaults alone
//	entry with servers                 -> apply unless already applied
type Reconciler struct {
	runner         executor.Runner
	notifier       notify.Notifier
	store          ConfigLookup
	networkService string
	apply          bool
	testMode       bool

	mu   sync.Mutex
	last *models.AppliedDNS
}

type ReconcilerConfig struct {
	NetworkService string
	// Apply false computes the DNS association without touching the system.
	Apply bool
	// TestMode logs the command instead of running it and treats it as
	// successful.
	TestMode bool
}

func NewReconciler(r executor.Runner, n notify.Notifier, store ConfigLookup, cfg ReconcilerConfig) *Reconciler {
	if cfg.NetworkService == "" {
		cfg.NetworkService = "Wi-Fi"
	}
	return &Reconciler{
		runner:         r,
		notifier:       n,
		store:          store,
		networkService: cfg.NetworkService,
		apply:          cfg.Apply,
		testMode:       cfg.TestMode,
	}
}

// Reconcile returns the DNS association for ssid, nil when not connected,
// and writes the configured servers to the system when they differ from the
// last applied pair.
func (r *Reconciler) Reconcile(ctx context.Context, ssid string) *models.DNSConfigEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := zap.S().With("ssid", ssid)

	switch {
	case ssid == "" || ssid == models.SSIDNotConnected:
		r.last = nil
		return nil
	case ssid == models.SSIDPrivacyRestricted:
		log.Debug("SSID hidden by the OS, skipping DNS config lookup")
		r.last = nil
		return &models.DNSConfigEntry{SSID: ssid}
	}

	servers, found := r.store.Lookup(ssid)
	if !found {
		log.Debug("no custom DNS config")
		r.last = nil
		return &models.DNSConfigEntry{SSID: ssid}
	}

	entry := &models.DNSConfigEntry{SSID: ssid, Servers: strings.Fields(servers), Configured: true}
	if len(entry.Servers) == 0 {
		log.Debug("DNS config uses network defaults")
		return entry
	}

	if r.last != nil && r.last.SSID == ssid && r.last.Servers == servers {
		log.Debug("DNS config already applied")
		return entry
	}
	if !r.apply {
		return entry
	}

	if err := r.setDNSServers(ctx, entry.Servers); err != nil {
		log.Errorw("failed to apply DNS config", "servers", servers, "error", err)
		return entry
	}

	log.Infow("applied DNS config", "servers", servers)
	r.last = &models.AppliedDNS{SSID: ssid, Servers: servers}
	if err := r.notifier.Notify(ctx, DNSChangedTitle, "Connected to "+ssid+" with DNS: "+servers); err != nil {
		log.Warnw("DNS change notification failed", "error", err)
	}
	return entry
}

func (r *Reconciler) setDNSServers(ctx context.Context, servers []string) error {
	args := append([]string{"-setdnsservers", r.networkService}, servers...)
	if r.testMode {
		zap.S().Infow("test mode, not running networksetup", "args", args)
		return nil
	}
	_, err := r.runner.Run(ctx, 0, "/usr/sbin/networksetup", args...)
	return err
}

// LastApplied returns a copy of the last written pair, or nil.
func (r *Reconciler) LastApplied() *models.AppliedDNS {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	c := *r.last
	return &c
}
