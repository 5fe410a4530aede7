package probe

import (
	"context"
	"net"
	"regexp"
	"strings"
	"sync"

	"networkinfo/internal/executor"
	"networkinfo/internal/models"

	gnet "github.com/shirou/gopsutil/net"
	log "github.com/sirupsen/logrus"
)

const (
	vpnStatusConnected = "Connected"
	vpnStatusInactive  = "Inactive"

	serviceInterfaceName = "Service"
	serviceVPNType       = "System VPN"
)

var vpnInterfacePattern = regexp.MustCompile(`^(utun|tun|tap|ppp|ipsec)[0-9]*$`)

// Order matters: "utun" must be tried before "tun".
var vpnTypes = []struct {
	prefix string
	label  string
}{
	{"utun", "IPSec/IKEv2"},
	{"tun", "OpenVPN/Tunnel"},
	{"tap", "TAP Bridge"},
	{"ppp", "PPP/L2TP"},
	{"ipsec", "IPSec"},
}

func VPNTypeFor(name string) string {
	for _, t := range vpnTypes {
		if strings.HasPrefix(name, t.prefix) {
			return t.label
		}
	}
	return "Unknown"
}

// NetInterface is the subset of interface data the VPN scan needs.
type NetInterface struct {
	Name        string
	MTU         int
	Addrs       []string
	Up, Running bool
	Destination string
	RxBytes     *uint64
	TxBytes     *uint64
}

// InterfaceSource enumerates network interfaces.
type InterfaceSource func(ctx context.Context) ([]NetInterface, error)

type VPNDetector struct {
	runner     executor.Runner
	interfaces InterfaceSource
}

func NewVPNDetector(r executor.Runner) *VPNDetector {
	return &VPNDetector{runner: r, interfaces: SystemInterfaces}
}

func NewVPNDetectorWithSource(r executor.Runner, src InterfaceSource) *VPNDetector {
	return &VPNDetector{runner: r, interfaces: src}
}

// Detect runs the interface scan and the system VPN service query
// concurrently and merges them.
func (d *VPNDetector) Detect(ctx context.Context) []models.VPNConnection {
	var (
		wg       sync.WaitGroup
		ifaces   []models.VPNConnection
		services []models.VPNConnection
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ifaces = d.scanInterfaces(ctx)
	}()
	go func() {
		defer wg.Done()
		services = d.systemServices(ctx)
	}()
	wg.Wait()

	merged := MergeVPNConnections(ifaces, services)
	log.WithFields(log.Fields{"probe": "vpn", "count": len(merged)}).Debug("VPN detection finished")
	return merged
}

func (d *VPNDetector) scanInterfaces(ctx context.Context) []models.VPNConnection {
	list, err := d.interfaces(ctx)
	if err != nil {
		log.WithField("probe", "vpn").WithError(err).Warn("Interface scan failed")
		return nil
	}
	return VPNConnectionsFromInterfaces(list)
}

func (d *VPNDetector) systemServices(ctx context.Context) []models.VPNConnection {
	out, err := d.runner.Run(ctx, 0, "/usr/sbin/scutil", "--nc", "list")
	if err != nil {
		log.WithField("probe", "vpn").WithError(err).Debug("scutil --nc list failed")
		return nil
	}
	return ParseVPNServices(out)
}

// VPNConnectionsFromInterfaces keeps tunnel-like interfaces that carry a
// non-loopback IPv4 address, in input order.
func VPNConnectionsFromInterfaces(list []NetInterface) []models.VPNConnection {
	var out []models.VPNConnection
	for _, iface := range list {
		if !vpnInterfacePattern.MatchString(iface.Name) {
			continue
		}
		ip := firstIPv4(iface.Addrs)
		if ip == "" {
			continue
		}
		status := vpnStatusInactive
		if iface.Up && iface.Running {
			status = vpnStatusConnected
		}
		out = append(out, models.VPNConnection{
			InterfaceName: iface.Name,
			IP:            ip,
			VPNType:       VPNTypeFor(iface.Name),
			Status:        status,
			BytesReceived: iface.RxBytes,
			BytesSent:     iface.TxBytes,
			RemoteAddress: iface.Destination,
			MTU:           iface.MTU,
		})
	}
	return out
}

// ParseVPNServices reads `scutil --nc list` output. Only connected or
// connecting services are reported; the name is the first quoted string.
func ParseVPNServices(out string) []models.VPNConnection {
	var services []models.VPNConnection
	for _, line := range strings.Split(out, "\n") {
		var status string
		switch {
		case strings.Contains(line, "Connected"):
			status = vpnStatusConnected
		case strings.Contains(line, "Connecting"):
			status = "Connecting"
		default:
			continue
		}
		name := firstQuoted(line)
		if name == "" {
			continue
		}
		services = append(services, models.VPNConnection{
			InterfaceName: serviceInterfaceName,
			IP:            models.NotAvailable,
			VPNType:       serviceVPNType,
			Status:        status,
			ServerName:    name,
		})
	}
	return services
}

// MergeVPNConnections folds service entries into interface entries with the
// same server name and appends the rest, preserving scan order.
func MergeVPNConnections(ifaces, services []models.VPNConnection) []models.VPNConnection {
	merged := make([]models.VPNConnection, 0, len(ifaces)+len(services))
	merged = append(merged, ifaces...)
	for _, svc := range services {
		matched := false
		for i := range merged {
			if merged[i].ServerName != "" && merged[i].ServerName == svc.ServerName {
				merged[i].Status = svc.Status
				matched = true
				break
			}
		}
		if !matched {
			merged = append(merged, svc)
		}
	}
	return merged
}

// SystemInterfaces lists interfaces through gopsutil, with flags from the
// standard library (gopsutil does not report RUNNING).
func SystemInterfaces(ctx context.Context) ([]NetInterface, error) {
	stats, err := gnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	counters := map[string]gnet.IOCountersStat{}
	if io, err := gnet.IOCountersWithContext(ctx, true); err == nil {
		for _, c := range io {
			counters[c.Name] = c
		}
	}

	out := make([]NetInterface, 0, len(stats))
	for _, s := range stats {
		ni := NetInterface{Name: s.Name, MTU: s.MTU}
		for _, a := range s.Addrs {
			ni.Addrs = append(ni.Addrs, a.Addr)
		}
		if std, err := net.InterfaceByName(s.Name); err == nil {
			ni.Up = std.Flags&net.FlagUp != 0
			ni.Running = std.Flags&net.FlagRunning != 0
		}
		if c, ok := counters[s.Name]; ok {
			rx, tx := c.BytesRecv, c.BytesSent
			ni.RxBytes, ni.TxBytes = &rx, &tx
		}
		out = append(out, ni)
	}
	return out, nil
}

func firstIPv4(addrs []string) string {
	for _, a := range addrs {
		host := a
		if i := strings.IndexByte(a, '/'); i >= 0 {
			host = a[:i]
		}
		ip := net.ParseIP(host)
		if ip == nil || ip.To4() == nil || ip.IsLoopback() {
			continue
		}
		return ip.String()
	}
	return ""
}

func firstQuoted(line string) string {
	start := strings.IndexByte(line, '"')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(line[start+1:], '"')
	if end < 0 {
		return ""
	}
	return line[start+1 : start+1+end]
}
