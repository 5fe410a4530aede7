package models

import (
	"strings"
	"time"
)

const (
	SSIDNotConnected      = "Not connected"
	SSIDPrivacyRestricted = "Privacy restricted"

	NotAvailable = "N/A"
)

// IsRealSSID reports whether ssid names an actual network rather than one of
// the detector's sentinel values.
func IsRealSSID(ssid string) bool {
	return ssid != "" && ssid != SSIDNotConnected && ssid != SSIDPrivacyRestricted
}

type GeoIPData struct {
	Query       string `json:"query" yaml:"query" toml:"query"`
	ISP         string `json:"isp" yaml:"isp" toml:"isp"`
	Country     string `json:"country" yaml:"country" toml:"country"`
	CountryCode string `json:"country_code" yaml:"country_code" toml:"country_code"`
}

var (
	GeoIPUnavailable = GeoIPData{
		Query:       "Check connection",
		ISP:         "Network issue",
		Country:     "Unavailable",
		CountryCode: NotAvailable,
	}

	GeoIPTestData = GeoIPData{
		Query:       "192.168.1.100",
		ISP:         "Test ISP",
		Country:     "Test Country",
		CountryCode: "TC",
	}
)

func (g GeoIPData) IsPlaceholder() bool {
	return g == GeoIPUnavailable
}

type DNSDomainResult struct {
	Domain   string `json:"domain" yaml:"domain" toml:"domain"`
	Success  bool   `json:"success" yaml:"success" toml:"success"`
	Response string `json:"response" yaml:"response" toml:"response"`
}

type DNSTestResult struct {
	Working     bool              `json:"working" yaml:"working" toml:"working"`
	SuccessRate float64           `json:"success_rate" yaml:"success_rate" toml:"success_rate"`
	Results     []DNSDomainResult `json:"results" yaml:"results" toml:"results"`
}

type VPNConnection struct {
	InterfaceName string  `json:"interface_name" yaml:"interface_name" toml:"interface_name"`
	IP            string  `json:"ip" yaml:"ip" toml:"ip"`
	VPNType       string  `json:"vpn_type" yaml:"vpn_type" toml:"vpn_type"`
	Status        string  `json:"status" yaml:"status" toml:"status"`
	ServerName    string  `json:"server_name,omitempty" yaml:"server_name,omitempty" toml:"server_name,omitempty"`
	BytesReceived *uint64 `json:"bytes_received,omitempty" yaml:"bytes_received,omitempty" toml:"bytes_received,omitempty"`
	BytesSent     *uint64 `json:"bytes_sent,omitempty" yaml:"bytes_sent,omitempty" toml:"bytes_sent,omitempty"`
	RemoteAddress string  `json:"remote_address,omitempty" yaml:"remote_address,omitempty" toml:"remote_address,omitempty"`
	MTU           int     `json:"mtu,omitempty" yaml:"mtu,omitempty" toml:"mtu,omitempty"`
}

// Name is the label shown to users: the service name when known, the
// interface otherwise.
func (v VPNConnection) Name() string {
	if v.ServerName != "" {
		return v.ServerName
	}
	return v.InterfaceName
}

type DNSConfigEntry struct {
	SSID       string   `json:"ssid" yaml:"ssid" toml:"ssid"`
	Servers    []string `json:"servers" yaml:"servers" toml:"servers"`
	Configured bool     `json:"configured" yaml:"configured" toml:"configured"`
}

func (e DNSConfigEntry) ServersString() string {
	return strings.Join(e.Servers, " ")
}

// AppliedDNS records what was last written to the system resolver settings.
type AppliedDNS struct {
	SSID    string `json:"ssid" yaml:"ssid" toml:"ssid"`
	Servers string `json:"servers" yaml:"servers" toml:"servers"`
}

type ServiceState struct {
	PID        *int   `json:"pid,omitempty" yaml:"pid,omitempty" toml:"pid,omitempty"`
	Running    bool   `json:"running" yaml:"running" toml:"running"`
	Responding bool   `json:"responding" yaml:"responding" toml:"responding"`
	Command    string `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
}

const (
	PathSatisfied   = "satisfied"
	PathUnsatisfied = "unsatisfied"
)

type PathStatus struct {
	Status      string    `json:"status"`
	Expensive   bool      `json:"expensive"`
	Constrained bool      `json:"constrained"`
	Interfaces  []string  `json:"interfaces"`
	ObservedAt  time.Time `json:"observed_at"`
}

// SameShape compares the fields that feed the stability score.
func (p PathStatus) SameShape(o PathStatus) bool {
	return p.Status == o.Status && p.Expensive == o.Expensive && p.Constrained == o.Constrained
}
