// Package engine owns the network snapshot. It fans out every probe on each
// refresh, merges their results, reconciles system DNS with the SSID, and
// adapts the refresh interval to how stable the network path has been.
//
// Refresh triggers (timer, path change, config file write, manual request)
// all go through one queue: at most one cycle runs at a time and any number
// of requests made while it runs collapse into a single follow-up cycle.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"networkinfo/internal/executor"
	"networkinfo/internal/models"
	"networkinfo/internal/probe"
	"networkinfo/internal/watcher"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotStarted = errors.New("engine not started")

type GeoIPFetcher interface {
	Fetch(ctx context.Context) models.GeoIPData
}

type SSIDDetector interface {
	Detect(ctx context.Context) string
}

type VPNDetector interface {
	Detect(ctx context.Context) []models.VPNConnection
}

type ServiceChecker interface {
	CheckAll(ctx context.Context) map[string]models.ServiceState
	Run(ctx context.Context, interval time.Duration, onUpdate func(map[string]models.ServiceState))
}

type PathSource interface {
	Run(ctx context.Context, fn func(models.PathStatus))
}

type Options struct {
	Runner     executor.Runner
	GeoIP      GeoIPFetcher
	SSID       SSIDDetector
	VPN        VPNDetector
	Services   ServiceChecker
	Reconciler *Reconciler
	// Path and ConfigFile are optional; nil disables the path monitor and an
	// empty ConfigFile disables the file watcher.
	Path       PathSource
	ConfigFile string

	Intervals       Intervals
	ServiceInterval time.Duration
	ExpectedDNS     string
	TestDomains     []string
	DigTimeout      time.Duration
	TestMode        bool
}

type Engine struct {
	opts Options

	mu       sync.RWMutex
	snapshot *models.Snapshot

	stability Stability
	interval  time.Duration
	resched   chan time.Duration
	pathSeen  bool

	qmu            sync.Mutex
	running        bool
	pending        bool
	pendingTrigger models.Trigger
	cycleMu        sync.Mutex

	updates chan *models.Snapshot

	lifeMu sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Engine {
	if opts.Intervals == (Intervals{}) {
		opts.Intervals = DefaultIntervals()
	}
	if opts.ServiceInterval <= 0 {
		opts.ServiceInterval = 60 * time.Second
	}
	if opts.ExpectedDNS == "" {
		opts.ExpectedDNS = "127.0.0.1"
	}
	if opts.DigTimeout <= 0 {
		opts.DigTimeout = probe.DefaultDigTimeout
	}
	return &Engine{
		opts:     opts,
		snapshot: &models.Snapshot{},
		interval: opts.Intervals.Base,
		resched:  make(chan time.Duration, 1),
		updates:  make(chan *models.Snapshot, 1),
	}
}

// Start sets up the timers and watchers and fires the first refresh.
// Calling it on a running engine does nothing.
func (e *Engine) Start() {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.cancel != nil {
		return
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	ctx := e.ctx

	e.goRun(func() { e.scheduleLoop(ctx) })
	e.goRun(func() { e.serviceLoop(ctx) })

	if e.opts.Path != nil {
		e.goRun(func() {
			e.opts.Path.Run(ctx, func(st models.PathStatus) { e.onPath(ctx, st) })
		})
	}

	if e.opts.ConfigFile != "" {
		fw, err := watcher.New(e.opts.ConfigFile, watcher.DefaultDebounce)
		if err != nil {
			zap.S().Warnw("cannot watch DNS config", "path", e.opts.ConfigFile, "error", err)
		} else {
			e.goRun(func() { fw.Run(ctx, func() { e.request(ctx, models.TriggerConfig) }) })
		}
	}

	zap.S().Infow("engine started", "interval", e.Interval())
	e.request(ctx, models.TriggerStart)
}

// Stop cancels timers, watchers and in-flight probes and waits for them.
func (e *Engine) Stop() {
	e.lifeMu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.lifeMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	e.wg.Wait()
	zap.S().Info("engine stopped")
}

// RefreshNow queues a refresh cycle.
func (e *Engine) RefreshNow() error {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	if e.cancel == nil {
		return ErrNotStarted
	}
	e.request(e.ctx, models.TriggerManual)
	return nil
}

// RefreshOnce runs one cycle synchronously, outside the timers. It is what
// one-shot consumers use instead of Start.
func (e *Engine) RefreshOnce(ctx context.Context) *models.Snapshot {
	e.runCycle(ctx, models.TriggerManual)
	return e.Snapshot()
}

func (e *Engine) Snapshot() *models.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot.Clone()
}

// Updates delivers a copy of the snapshot after every completed cycle and
// every service check. Slow readers only see the latest one.
func (e *Engine) Updates() <-chan *models.Snapshot {
	return e.updates
}

func (e *Engine) ServiceStates() map[string]models.ServiceState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return models.CloneServiceStates(e.snapshot.Services)
}

func (e *Engine) LastApplied() *models.AppliedDNS {
	if e.opts.Reconciler == nil {
		return nil
	}
	return e.opts.Reconciler.LastApplied()
}

// Interval is the current periodic refresh interval.
func (e *Engine) Interval() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.interval
}

func (e *Engine) Stability() (float64, bool) {
	return e.stability.Score()
}

func (e *Engine) goRun(fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
}

// request starts a cycle on ctx or queues one behind the running cycle.
// Callers either hold lifeMu with the engine started or run inside a
// goroutine tracked by wg, so Stop never waits while a new goroutine is added.
func (e *Engine) request(ctx context.Context, trigger models.Trigger) {
	if ctx.Err() != nil {
		return
	}
	e.qmu.Lock()
	if e.running {
		e.pending = true
		e.pendingTrigger = trigger
		e.qmu.Unlock()
		zap.S().Debugw("refresh already running, queued", "trigger", trigger)
		return
	}
	e.running = true
	e.qmu.Unlock()

	e.goRun(func() {
		for {
			if ctx.Err() == nil {
				e.runCycle(ctx, trigger)
			}

			e.qmu.Lock()
			if !e.pending || ctx.Err() != nil {
				e.running = false
				e.pending = false
				e.qmu.Unlock()
				return
			}
			trigger = e.pendingTrigger
			e.pending = false
			e.qmu.Unlock()
		}
	})
}

func (e *Engine) scheduleLoop(ctx context.Context) {
	timer := time.NewTimer(e.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			e.request(ctx, models.TriggerTimer)
			timer.Reset(e.Interval())
		case d := <-e.resched:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d)
		}
	}
}

func (e *Engine) serviceLoop(ctx context.Context) {
	if e.opts.Services == nil {
		return
	}
	e.opts.Services.Run(ctx, e.opts.ServiceInterval, func(states map[string]models.ServiceState) {
		e.apply(func(s *models.Snapshot) { s.Services = states })
		e.publish()
	})
}

func (e *Engine) onPath(ctx context.Context, st models.PathStatus) {
	score := e.stability.Observe(st)
	target := e.opts.Intervals.For(score)

	e.mu.Lock()
	first := !e.pathSeen
	e.pathSeen = true
	current := e.interval
	reschedule := e.opts.Intervals.ShouldReschedule(current, target)
	if reschedule {
		e.interval = target
	}
	e.mu.Unlock()

	zap.S().Debugw("network path observed", "status", st.Status, "expensive", st.Expensive,
		"constrained", st.Constrained, "stability", score, "interval", target)

	if reschedule {
		zap.S().Infow("refresh interval changed", "from", current, "to", target, "stability", score)
		select {
		case <-e.resched:
		default:
		}
		e.resched <- target
	}
	if !first {
		e.request(ctx, models.TriggerPath)
	}
}

// runCycle resets the snapshot, runs every probe concurrently and waits for
// all of them before publishing.
func (e *Engine) runCycle(ctx context.Context, trigger models.Trigger) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	id := uuid.NewString()
	started := time.Now()
	log := zap.S().With("cycle", id, "trigger", trigger)
	log.Debug("refresh started")

	e.apply(func(s *models.Snapshot) { s.Reset(id, trigger, started) })

	var wg sync.WaitGroup
	probeFn := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := time.Now()
			fn()
			log.Debugw("probe finished", "probe", name, "elapsed", time.Since(t))
		}()
	}

	if e.opts.GeoIP != nil {
		probeFn("geoip", func() {
			geo := e.opts.GeoIP.Fetch(ctx)
			e.apply(func(s *models.Snapshot) { s.GeoIP = &geo })
		})
	}
	if e.opts.Runner != nil {
		probeFn("local_ip", func() {
			ip := probe.LocalIP(ctx, e.opts.Runner, e.opts.TestMode)
			e.apply(func(s *models.Snapshot) { s.LocalIP = ip })
		})
		probeFn("dns_servers", func() {
			servers := probe.ObservedDNS(ctx, e.opts.Runner)
			e.apply(func(s *models.Snapshot) { s.DNSServers = servers })
		})
		if len(e.opts.TestDomains) > 0 {
			probeFn("dns_test", func() {
				res := probe.TestDNS(ctx, e.opts.Runner, e.opts.DigTimeout, e.opts.ExpectedDNS, e.opts.TestDomains)
				e.apply(func(s *models.Snapshot) { s.DNSTest = &res })
			})
		}
	}
	if e.opts.SSID != nil {
		probeFn("ssid", func() {
			ssid := e.opts.SSID.Detect(ctx)
			var entry *models.DNSConfigEntry
			if e.opts.Reconciler != nil {
				entry = e.opts.Reconciler.Reconcile(ctx, ssid)
			}
			e.apply(func(s *models.Snapshot) {
				s.SSID = ssid
				s.DNSConfig = entry
			})
		})
	}
	if e.opts.VPN != nil {
		probeFn("vpn", func() {
			vpns := e.opts.VPN.Detect(ctx)
			e.apply(func(s *models.Snapshot) { s.VPNConnections = vpns })
		})
	}
	if e.opts.Services != nil {
		probeFn("services", func() {
			states := e.opts.Services.CheckAll(ctx)
			e.apply(func(s *models.Snapshot) { s.Services = states })
		})
	}

	wg.Wait()

	if ctx.Err() != nil {
		log.Debug("refresh cancelled")
		return
	}

	e.apply(func(s *models.Snapshot) { s.CompletedAt = time.Now() })
	log.Infow("refresh complete", "elapsed", time.Since(started))
	e.publish()
}

func (e *Engine) apply(fn func(*models.Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.snapshot)
}

func (e *Engine) publish() {
	snap := e.Snapshot()
	select {
	case e.updates <- snap:
		return
	default:
	}
	select {
	case <-e.updates:
	default:
	}
	select {
	case e.updates <- snap:
	default:
	}
}
