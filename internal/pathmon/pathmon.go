package pathmon

import (
	"context"
	"errors"
	"net"
	"slices"
	"strings"
	"time"

	"networkinfo/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultDebounce     = 500 * time.Millisecond
)

var errUnsupported = errors.New("route socket not supported on this platform")

// Interface is the part of an interface the path descriptor depends on.
type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []net.IP
}

type Monitor struct {
	list         func() ([]Interface, error)
	wake         func(ctx context.Context) (<-chan struct{}, error)
	pollInterval time.Duration
	debounce     time.Duration
	now          func() time.Time
}

type Option func(*Monitor)

func WithInterfaceSource(fn func() ([]Interface, error)) Option {
	return func(m *Monitor) { m.list = fn }
}

// WithWakeSource replaces the platform change notifier. A nil channel
// selects polling.
func WithWakeSource(fn func(ctx context.Context) (<-chan struct{}, error)) Option {
	return func(m *Monitor) { m.wake = fn }
}

func WithPollInterval(d time.Duration) Option {
	return func(m *Monitor) { m.pollInterval = d }
}

func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) { m.debounce = d }
}

func New(opts ...Option) *Monitor {
	m := &Monitor{
		list:         systemInterfaces,
		wake:         routeChanges,
		pollInterval: DefaultPollInterval,
		debounce:     DefaultDebounce,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current describes the network path as it is right now.
func (m *Monitor) Current() models.PathStatus {
	st, _ := m.observe()
	return st
}

func (m *Monitor) observe() (models.PathStatus, string) {
	ifaces, err := m.list()
	if err != nil {
		zap.S().Warnw("listing interfaces failed", "error", err)
	}
	st, digest := Describe(ifaces)
	st.ObservedAt = m.now()
	return st, digest
}

// Run calls fn with the initial path and again whenever it changes, until
// ctx is done. Route-socket wakeups are debounced; platforms without one are
// polled.
func (m *Monitor) Run(ctx context.Context, fn func(models.PathStatus)) {
	wake, err := m.wake(ctx)
	if err != nil {
		zap.S().Infow("network path falls back to polling", "interval", m.pollInterval, "reason", err)
		wake = nil
	}

	st, last := m.observe()
	fn(st)

	var poll <-chan time.Time
	if wake == nil {
		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	var settle *time.Timer
	var settleC <-chan time.Time
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	check := func() {
		st, digest := m.observe()
		if digest == last {
			return
		}
		last = digest
		zap.S().Debugw("network path changed", "status", st.Status, "interfaces", st.Interfaces)
		fn(st)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-wake:
			if !ok {
				wake = nil
				ticker := time.NewTicker(m.pollInterval)
				defer ticker.Stop()
				poll = ticker.C
				continue
			}
			if settle == nil {
				settle = time.NewTimer(m.debounce)
			} else {
				settle.Reset(m.debounce)
			}
			settleC = settle.C
		case <-settleC:
			settleC = nil
			check()
		case <-poll:
			check()
		}
	}
}

// Describe turns an interface table into a path status and a digest that
// changes whenever any usable interface or address changes.
func Describe(ifaces []Interface) (models.PathStatus, string) {
	var usable []string
	var parts []string
	for _, i := range ifaces {
		if !i.Up || i.Loopback {
			continue
		}
		var addrs []string
		for _, ip := range i.Addrs {
			if ip.IsGlobalUnicast() {
				addrs = append(addrs, ip.String())
			}
		}
		if len(addrs) == 0 {
			continue
		}
		slices.Sort(addrs)
		usable = append(usable, i.Name)
		parts = append(parts, i.Name+"="+strings.Join(addrs, ","))
	}
	slices.Sort(usable)
	slices.Sort(parts)

	st := models.PathStatus{
		Status:     models.PathUnsatisfied,
		Interfaces: usable,
	}
	if len(usable) > 0 {
		st.Status = models.PathSatisfied
		st.Expensive = allExpensive(usable)
	}

	digest := st.Status + "|" + boolString(st.Expensive) + "|" + boolString(st.Constrained) + "|" + strings.Join(parts, ";")
	return st, digest
}

// Cellular (pdp_ip) and Apple hotspot (ap) interfaces are metered.
func allExpensive(names []string) bool {
	for _, n := range names {
		if !strings.HasPrefix(n, "pdp_ip") && !strings.HasPrefix(n, "ap") {
			return false
		}
	}
	return true
}

func systemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, i := range ifaces {
		item := Interface{
			Name:     i.Name,
			Up:       i.Flags&net.FlagUp != 0,
			Loopback: i.Flags&net.FlagLoopback != 0,
		}
		addrs, err := i.Addrs()
		if err == nil {
			for _, a := range addrs {
				if ipn, ok := a.(*net.IPNet); ok {
					item.Addrs = append(item.Addrs, ipn.IP)
				}
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
