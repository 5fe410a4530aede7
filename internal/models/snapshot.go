package models

import (
	"slices"
	"time"
)

type Trigger string

const (
	TriggerStart  Trigger = "start"
	TriggerTimer  Trigger = "timer"
	TriggerPath   Trigger = "path"
	TriggerConfig Trigger = "config"
	TriggerManual Trigger = "manual"
)

// Snapshot is the aggregate of the latest probe results. The engine owns the
// live value; everything handed out is a Clone.
type Snapshot struct {
	CycleID     string    `json:"cycle_id" yaml:"cycle_id" toml:"cycle_id"`
	Trigger     Trigger   `json:"trigger" yaml:"trigger" toml:"trigger"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at" toml:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty" toml:"completed_at,omitempty"`

	GeoIP          *GeoIPData              `json:"geoip,omitempty" yaml:"geoip,omitempty" toml:"geoip,omitempty"`
	LocalIP        string                  `json:"local_ip,omitempty" yaml:"local_ip,omitempty" toml:"local_ip,omitempty"`
	SSID           string                  `json:"ssid,omitempty" yaml:"ssid,omitempty" toml:"ssid,omitempty"`
	DNSServers     []string                `json:"dns_servers,omitempty" yaml:"dns_servers,omitempty" toml:"dns_servers,omitempty"`
	DNSTest        *DNSTestResult          `json:"dns_test,omitempty" yaml:"dns_test,omitempty" toml:"dns_test,omitempty"`
	VPNConnections []VPNConnection         `json:"vpn_connections,omitempty" yaml:"vpn_connections,omitempty" toml:"vpn_connections,omitempty"`
	DNSConfig      *DNSConfigEntry         `json:"dns_config,omitempty" yaml:"dns_config,omitempty" toml:"dns_config,omitempty"`
	Services       map[string]ServiceState `json:"services,omitempty" yaml:"services,omitempty" toml:"services,omitempty"`
}

// Reset starts a new cycle. Only the DNS config association survives.
func (s *Snapshot) Reset(cycleID string, trigger Trigger, now time.Time) {
	keep := s.DNSConfig
	*s = Snapshot{
		CycleID:   cycleID,
		Trigger:   trigger,
		StartedAt: now,
		DNSConfig: keep,
	}
}

func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	if s.GeoIP != nil {
		g := *s.GeoIP
		c.GeoIP = &g
	}
	c.DNSServers = slices.Clone(s.DNSServers)
	if s.DNSTest != nil {
		t := *s.DNSTest
		t.Results = slices.Clone(s.DNSTest.Results)
		c.DNSTest = &t
	}
	if s.VPNConnections != nil {
		c.VPNConnections = make([]VPNConnection, len(s.VPNConnections))
		for i, v := range s.VPNConnections {
			c.VPNConnections[i] = v.clone()
		}
	}
	if s.DNSConfig != nil {
		d := *s.DNSConfig
		d.Servers = slices.Clone(s.DNSConfig.Servers)
		c.DNSConfig = &d
	}
	if s.Services != nil {
		c.Services = make(map[string]ServiceState, len(s.Services))
		for k, v := range s.Services {
			c.Services[k] = v.Clone()
		}
	}
	return &c
}

func (v VPNConnection) clone() VPNConnection {
	c := v
	if v.BytesReceived != nil {
		n := *v.BytesReceived
		c.BytesReceived = &n
	}
	if v.BytesSent != nil {
		n := *v.BytesSent
		c.BytesSent = &n
	}
	return c
}

func (s ServiceState) Clone() ServiceState {
	c := s
	if s.PID != nil {
		p := *s.PID
		c.PID = &p
	}
	return c
}

func CloneServiceStates(in map[string]ServiceState) map[string]ServiceState {
	out := make(map[string]ServiceState, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}

// ServiceNames returns the service names in a stable order.
func (s *Snapshot) ServiceNames() []string {
	var names []string
	for k := range s.Services {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
