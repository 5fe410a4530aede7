package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"networkinfo/internal/models"
)

type LineKind int

const (
	KindPlain LineKind = iota
	KindHeader
	KindOK
	KindWarn
	KindSeparator
)

// Line is one row of the network summary.
type Line struct {
	Kind LineKind
	Text string
}

// Lines lays out a snapshot the way the menu bar dropdown shows it.
// expectedDNS is the resolver considered correct when the SSID has no
// configured servers.
func Lines(s *models.Snapshot, expectedDNS string) []Line {
	var out []Line
	add := func(kind LineKind, format string, args ...any) {
		out = append(out, Line{Kind: kind, Text: fmt.Sprintf(format, args...)})
	}
	sep := func() { out = append(out, Line{Kind: KindSeparator}) }

	publicIP := models.NotAvailable
	if s.GeoIP != nil {
		publicIP = s.GeoIP.Query
	}
	add(KindPlain, "🌍 Public IP: %s", publicIP)
	add(KindPlain, "💻 Local IP: %s", orNA(s.LocalIP))

	ssid := s.SSID
	if ssid == "" {
		ssid = models.SSIDNotConnected
	}
	add(KindPlain, "📶 SSID: %s", ssid)
	if c := s.DNSConfig; c != nil {
		if c.Configured && len(c.Servers) > 0 {
			add(KindOK, "  ✅ DNS Config: %s", c.ServersString())
		} else {
			add(KindWarn, "  ⚠️ No Custom DNS Config")
		}
	}

	if len(s.DNSServers) > 0 {
		expected := []string{expectedDNS}
		if c := s.DNSConfig; c != nil && c.Configured && len(c.Servers) > 0 {
			expected = c.Servers
		}
		sep()
		add(KindHeader, "🔒 Current DNS Servers:")
		for _, dns := range s.DNSServers {
			if slices.Contains(expected, dns) {
				add(KindOK, "  ✅ %s", dns)
			} else {
				add(KindWarn, "  ⚠️ %s", dns)
			}
		}
	}

	if len(s.VPNConnections) > 0 {
		sep()
		add(KindHeader, "🔐 VPN Connections:")
		for _, v := range s.VPNConnections {
			add(KindPlain, "  • %s: %s", v.Name(), v.IP)
		}
	}

	sep()
	add(KindHeader, "🔄 Service Status:")
	for _, name := range s.ServiceNames() {
		add(KindPlain, "  • %s", ServiceLine(name, s.Services[name]))
	}
	if s.DNSTest != nil {
		add(KindPlain, "  • DNS Resolution: %.1f%% Success Rate", s.DNSTest.SuccessRate)
	}

	if g := s.GeoIP; g != nil {
		isp := g.ISP
		if isp == models.NotAvailable {
			isp = "Unknown"
		}
		sep()
		add(KindPlain, "📇 ISP: %s", isp)
		add(KindPlain, "📍 Location: %s (%s)", g.Country, g.CountryCode)
	}
	return out
}

// ServiceLine is the menu entry for one local resolver.
func ServiceLine(name string, st models.ServiceState) string {
	status := "Stopped"
	if st.Running {
		status = "Running"
	}
	pid := models.NotAvailable
	if st.PID != nil {
		pid = strconv.Itoa(*st.PID)
	}
	responding := ""
	if st.Running {
		responding = " - Not Responding"
		if st.Responding {
			responding = " - Responding"
		}
	}
	return fmt.Sprintf("%s: %s (PID: %s)%s", capitalize(name), status, pid, responding)
}

// Text renders lines without styling.
func Text(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		if l.Kind == KindSeparator {
			b.WriteString("\n")
			continue
		}
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
