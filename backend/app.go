// Package backend assembles the long-running application: storage,
// preferences, the DNS config store and the refresh engine with all of its
// probes.
package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"networkinfo/internal/config"
	"networkinfo/internal/dnsconf"
	"networkinfo/internal/engine"
	"networkinfo/internal/executor"
	"networkinfo/internal/notify"
	"networkinfo/internal/pathmon"
	"networkinfo/internal/probe"
	"networkinfo/internal/services"
	"networkinfo/internal/storage"

	"go.uber.org/zap"
)

const preferencesSaveInterval = 2 * time.Minute

var ErrAlreadyStarted = errors.New("app already started")

type App struct {
	Config      *config.Config
	Preferences *Preferences

	Engine   *engine.Engine
	Store    *dnsconf.Store
	Runner   executor.Runner
	Notifier notify.Notifier

	storage       *storage.AppStorage
	appVersion    string
	isFirstLaunch bool

	prefsMu          sync.Mutex
	lastWrittenPrefs Preferences

	bgrndCtx context.Context
	cancel   context.CancelFunc
	started  bool
}

// Options override the pieces of the assembly tests and one-shot commands
// need to control.
type Options struct {
	Version string
	// StorageDir replaces <app-support>/NetworkInfo.
	StorageDir string
	// Runner replaces the process executor.
	Runner executor.Runner
	// Live enables the path monitor and the DNS config file watcher.
	Live bool
}

func StartupApp(cfg *config.Config, opts Options) (*App, error) {
	var (
		appStorage *storage.AppStorage
		err        error
	)
	if opts.StorageDir != "" {
		appStorage, err = storage.NewAppStorageAt(opts.StorageDir)
	} else {
		appStorage, err = storage.NewAppStorage(storage.AppName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Config:     cfg,
		storage:    appStorage,
		appVersion: opts.Version,
	}
	a.bgrndCtx, a.cancel = context.WithCancel(context.Background())
	a.readPreferences()

	zap.S().Infow("starting", "app", storage.AppName, "version", opts.Version)
	zap.S().Infow("using app support dir", "path", appStorage.ConfigPath())

	a.Store = dnsconf.NewStore(a.dnsConfigPath(), a.legacyDNSConfigPath())
	if err := a.Store.Ensure(); err != nil {
		zap.S().Errorw("could not prepare DNS config file", "path", a.Store.Path(), "error", err)
	}

	a.Runner = opts.Runner
	if a.Runner == nil {
		a.Runner = executor.New(cfg.Refresh.ExecTimeout)
	}

	if a.Preferences.Application.NotificationsEnabled {
		a.Notifier = notify.NewOSAScript(a.Runner)
	} else {
		a.Notifier = notify.Disabled{}
	}

	a.Engine = engine.New(a.engineOptions(opts.Live))
	return a, nil
}

func (a *App) TestMode() bool {
	return a.Config.TestMode || a.Preferences.Application.TestMode
}

func (a *App) engineOptions(live bool) engine.Options {
	cfg := a.Config
	testMode := a.TestMode()

	svcs := make([]services.Service, 0, len(cfg.Services))
	for _, s := range cfg.Services {
		svcs = append(svcs, services.Service{Name: s.Name, Label: s.Label, Port: s.Port, TestDomain: s.TestDomain})
	}

	opts := engine.Options{
		Runner:   a.Runner,
		GeoIP:    probe.NewGeoIPService(cfg.GeoIP.Timeout, probe.WithGeoIPTestMode(testMode)),
		SSID:     probe.NewSSIDDetector(a.Runner),
		VPN:      probe.NewVPNDetector(a.Runner),
		Services: services.NewMonitor(a.Runner, a.Notifier, svcs, services.WithDigTimeout(cfg.DNS.TestTimeout)),
		Reconciler: engine.NewReconciler(a.Runner, a.Notifier, a.Store, engine.ReconcilerConfig{
			NetworkService: cfg.DNS.NetworkService,
			Apply:          cfg.DNS.Apply,
			TestMode:       testMode,
		}),
		Intervals: engine.Intervals{
			Base:      cfg.Refresh.Base,
			Fast:      cfg.Refresh.Fast,
			Min:       cfg.Refresh.Min,
			Tolerance: cfg.Refresh.RescheduleTolerance,
		},
		ServiceInterval: cfg.Refresh.ServiceCheck,
		ExpectedDNS:     cfg.DNS.ExpectedServer,
		TestDomains:     cfg.DNS.TestDomains,
		DigTimeout:      cfg.DNS.TestTimeout,
		TestMode:        testMode,
	}
	if live {
		opts.Path = pathmon.New()
		opts.ConfigFile = a.Store.Path()
	}
	return opts
}

// Start launches the engine and the periodic preferences writer.
func (a *App) Start() error {
	if a.started {
		return ErrAlreadyStarted
	}
	a.started = true
	a.Engine.Start()
	a.startPreferencesWriter(a.bgrndCtx)
	return nil
}

func (a *App) IsFirstLaunch() bool {
	return a.isFirstLaunch
}

func (a *App) VersionTag() string {
	return a.appVersion
}

func (a *App) StoragePath() string {
	return a.storage.ConfigPath()
}

func (a *App) readPreferences() {
	path := a.PreferencesFilePath()
	a.isFirstLaunch = !a.storage.FileExists(path)

	prefs, err := ReadPreferencesFile(path)
	if err != nil {
		if !a.isFirstLaunch {
			backupPath := path + ".bak"
			zap.S().Warnw("preferences file may be malformed, backing up", "error", err, "backup", backupPath)
			_ = a.storage.CopyFile(path, backupPath)
		}
		prefs = DefaultPreferences()
	}
	prefs.Application.LastLaunchedVersion = a.appVersion
	a.Preferences = prefs
}

func (a *App) startPreferencesWriter(ctx context.Context) {
	tick := time.NewTicker(preferencesSaveInterval)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				if err := a.SavePreferences(); err != nil {
					zap.S().Warnw("could not save preferences", "error", err)
				}
			}
		}
	}()
}

// SavePreferences writes the preferences when they changed since the last
// write.
func (a *App) SavePreferences() error {
	a.prefsMu.Lock()
	defer a.prefsMu.Unlock()
	if a.lastWrittenPrefs == *a.Preferences && !a.isFirstLaunch {
		return nil
	}
	if err := a.Preferences.WritePreferencesFile(a.PreferencesFilePath()); err != nil {
		return err
	}
	a.lastWrittenPrefs = *a.Preferences
	a.isFirstLaunch = false
	return nil
}

func (a *App) Shutdown() {
	a.Engine.Stop()
	if err := a.SavePreferences(); err != nil {
		zap.S().Warnw("could not save preferences", "error", err)
	}
	a.cancel()
	zap.S().Info("shutdown complete")
}

func (a *App) PreferencesFilePath() string {
	return a.storage.Path(PreferencesFile)
}

func (a *App) dnsConfigPath() string {
	if a.Config.DNS.ConfigFile != "" {
		return storage.ExpandHome(a.Config.DNS.ConfigFile)
	}
	return a.storage.Path(dnsconf.FileName)
}

func (a *App) legacyDNSConfigPath() string {
	if a.Config.DNS.LegacyFile == "" {
		return ""
	}
	return filepath.Clean(storage.ExpandHome(a.Config.DNS.LegacyFile))
}
