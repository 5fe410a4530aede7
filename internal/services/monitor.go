package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"networkinfo/internal/executor"
	"networkinfo/internal/models"
	"networkinfo/internal/notify"
	"networkinfo/internal/probe"

	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultInterval = 60 * time.Second

	NotificationTitle = "DNS Service Status Change"
)

var pidPattern = regexp.MustCompile(`pid = (\d+)`)

type Service struct {
	Name       string
	Label      string
	Port       int
	TestDomain string
}

// ProcessNamer resolves a pid to its command name.
type ProcessNamer func(ctx context.Context, pid int) (string, error)

type Monitor struct {
	runner     executor.Runner
	notifier   notify.Notifier
	services   []Service
	server     string
	digTimeout time.Duration
	procName   ProcessNamer

	checkMu sync.Mutex
	mu      sync.RWMutex
	states  map[string]models.ServiceState
}

type Option func(*Monitor)

func WithProcessNamer(fn ProcessNamer) Option {
	return func(m *Monitor) { m.procName = fn }
}

func WithDigTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.digTimeout = d }
}

func NewMonitor(r executor.Runner, n notify.Notifier, services []Service, opts ...Option) *Monitor {
	m := &Monitor{
		runner:     r,
		notifier:   n,
		services:   services,
		server:     "127.0.0.1",
		digTimeout: probe.DefaultDigTimeout,
		procName:   processName,
		states:     make(map[string]models.ServiceState, len(services)),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, s := range services {
		m.states[s.Name] = models.ServiceState{}
	}
	return m
}

// States returns a copy of the last derived states.
func (m *Monitor) States() map[string]models.ServiceState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return models.CloneServiceStates(m.states)
}

// CheckAll re-derives every service state and notifies once per change of
// the responding flag.
func (m *Monitor) CheckAll(ctx context.Context) map[string]models.ServiceState {
	m.checkMu.Lock()
	defer m.checkMu.Unlock()

	fresh := make([]models.ServiceState, len(m.services))
	var wg sync.WaitGroup
	for i, svc := range m.services {
		wg.Add(1)
		go func(i int, svc Service) {
			defer wg.Done()
			fresh[i] = m.check(ctx, svc)
		}(i, svc)
	}
	wg.Wait()

	type change struct {
		name  string
		state models.ServiceState
	}
	var changes []change

	m.mu.Lock()
	for i, svc := range m.services {
		prev := m.states[svc.Name]
		if prev.Responding != fresh[i].Responding {
			changes = append(changes, change{svc.Name, fresh[i]})
		}
		m.states[svc.Name] = fresh[i]
	}
	out := models.CloneServiceStates(m.states)
	m.mu.Unlock()

	for _, c := range changes {
		body := StatusLine(c.name, c.state)
		log.WithFields(log.Fields{"service": c.name, "responding": c.state.Responding}).Info("Service state changed")
		if err := m.notifier.Notify(ctx, NotificationTitle, body); err != nil {
			log.WithField("service", c.name).WithError(err).Warn("Failed to send service notification")
		}
	}
	return out
}

// Run checks on every tick until ctx is done. onUpdate may be nil.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, onUpdate func(map[string]models.ServiceState)) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			states := m.CheckAll(ctx)
			if onUpdate != nil && ctx.Err() == nil {
				onUpdate(states)
			}
		}
	}
}

func (m *Monitor) check(ctx context.Context, svc Service) models.ServiceState {
	logger := log.WithFields(log.Fields{"service": svc.Name, "label": svc.Label})

	out, err := m.runner.Run(ctx, 0, "/bin/launchctl", "print", "system/"+svc.Label)
	if err != nil {
		var ee *executor.ExecError
		if errors.As(err, &ee) && strings.Contains(strings.ToLower(ee.Stderr+out), "could not find service") {
			logger.Debug("Service not found")
		} else {
			logger.WithError(err).Debug("launchctl print failed")
		}
		return models.ServiceState{}
	}

	state := ParseLaunchctl(out)
	if !state.Running {
		logger.Debug("Service not running")
		return state
	}

	if state.PID != nil && m.procName != nil {
		if name, err := m.procName(ctx, *state.PID); err == nil {
			state.Command = name
		} else {
			logger.WithError(err).WithField("pid", *state.PID).Debug("Process lookup failed")
		}
	}

	state.Responding, _ = probe.Dig(ctx, m.runner, m.digTimeout, m.server, svc.Port, svc.TestDomain)
	logger.WithField("responding", state.Responding).Debug("Service checked")
	return state
}

// ParseLaunchctl derives running and pid from `launchctl print` output.
func ParseLaunchctl(out string) models.ServiceState {
	if strings.Contains(strings.ToLower(out), "could not find service") {
		return models.ServiceState{}
	}
	var state models.ServiceState
	state.Running = strings.Contains(out, "state = running")
	if !state.Running {
		return state
	}
	if m := pidPattern.FindStringSubmatch(out); m != nil {
		if pid, err := strconv.Atoi(m[1]); err == nil {
			state.PID = &pid
		}
	}
	return state
}

// StatusLine is the notification body for a service state.
func StatusLine(name string, s models.ServiceState) string {
	pid := models.NotAvailable
	if s.PID != nil {
		pid = strconv.Itoa(*s.PID)
	}
	responding := "Not Responding"
	if s.Responding {
		responding = "Responding"
	}
	if !s.Running {
		return fmt.Sprintf("%s: Stopped - %s", name, responding)
	}
	return fmt.Sprintf("%s: Running (PID: %s) - %s", name, pid, responding)
}

func processName(ctx context.Context, pid int) (string, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return "", err
	}
	return p.NameWithContext(ctx)
}
