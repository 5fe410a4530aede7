package tui

import (
	"strings"
	"testing"
	"time"

	"networkinfo/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *models.Snapshot {
	pid := 321
	return &models.Snapshot{
		CycleID:     "c1",
		Trigger:     models.TriggerTimer,
		CompletedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		GeoIP:       &models.GeoIPData{Query: "203.0.113.7", ISP: "Example ISP", Country: "Australia", CountryCode: "AU"},
		LocalIP:     "192.168.1.20",
		SSID:        "HomeWifi",
		DNSServers:  []string{"1.1.1.1", "192.168.1.1"},
		DNSTest:     &models.DNSTestResult{Working: true, SuccessRate: 66.66666},
		VPNConnections: []models.VPNConnection{
			{InterfaceName: "utun4", IP: "100.64.0.3"},
			{InterfaceName: "ipsec0", IP: "10.0.0.9", ServerName: "Office"},
		},
		DNSConfig: &models.DNSConfigEntry{SSID: "HomeWifi", Servers: []string{"1.1.1.1", "8.8.8.8"}, Configured: true},
		Services: map[string]models.ServiceState{
			"unbound": {},
			"kresd":   {PID: &pid, Running: true, Responding: true},
		},
	}
}

func TestLinesFullSnapshot(t *testing.T) {
	out := Text(Lines(sampleSnapshot(), "127.0.0.1"))

	want := `🌍 Public IP: 203.0.113.7
💻 Local IP: 192.168.1.20
📶 SSID: HomeWifi
  ✅ DNS Config: 1.1.1.1 8.8.8.8

🔒 Current DNS Servers:
  ✅ 1.1.1.1
  ⚠️ 192.168.1.1

🔐 VPN Connections:
  • utun4: 100.64.0.3
  • Office: 10.0.0.9

🔄 Service Status:
  • Kresd: Running (PID: 321) - Responding
  • Unbound: Stopped (PID: N/A)
  • DNS Resolution: 66.7% Success Rate

📇 ISP: Example ISP
📍 Location: Australia (AU)
`
	assert.Equal(t, want, out)
}

func TestLinesUnconfiguredSSIDExpectsLocalResolver(t *testing.T) {
	s := &models.Snapshot{
		SSID:       "Cafe",
		DNSServers: []string{"127.0.0.1", "8.8.8.8"},
		DNSConfig:  &models.DNSConfigEntry{SSID: "Cafe"},
		GeoIP:      &models.GeoIPData{Query: models.NotAvailable, ISP: models.NotAvailable},
	}
	out := Text(Lines(s, "127.0.0.1"))

	assert.Contains(t, out, "💻 Local IP: N/A")
	assert.Contains(t, out, "  ⚠️ No Custom DNS Config")
	assert.Contains(t, out, "  ✅ 127.0.0.1")
	assert.Contains(t, out, "  ⚠️ 8.8.8.8")
	assert.Contains(t, out, "📇 ISP: Unknown")
	assert.NotContains(t, out, "VPN Connections")
}

func TestLinesEmptySnapshot(t *testing.T) {
	out := Text(Lines(&models.Snapshot{}, "127.0.0.1"))
	assert.True(t, strings.HasPrefix(out, "🌍 Public IP: N/A\n💻 Local IP: N/A\n📶 SSID: Not connected\n"))
	assert.Contains(t, out, "🔄 Service Status:")
	assert.NotContains(t, out, "ISP")
}

type fakeSource struct {
	snap      *models.Snapshot
	updates   chan *models.Snapshot
	refreshes int
}

func (f *fakeSource) Snapshot() *models.Snapshot { return f.snap }
func (f *fakeSource) Updates() <-chan *models.Snapshot { return f.updates }
func (f *fakeSource) RefreshNow() error { f.refreshes++; return nil }
func (f *fakeSource) Interval() time.Duration { return 2 * time.Minute }
func (f *fakeSource) Stability() (float64, bool) { return 0.9, true }

func TestWatchModel(t *testing.T) {
	src := &fakeSource{snap: &models.Snapshot{}, updates: make(chan *models.Snapshot, 1)}
	m := newWatchModel(src, "127.0.0.1")
	assert.Contains(t, m.View(), "Waiting for the first refresh")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(watchModel)
	assert.True(t, m.refreshing)
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, src.refreshes)

	next, cmd = m.Update(snapshotMsg{sampleSnapshot()})
	m = next.(watchModel)
	assert.False(t, m.refreshing)
	assert.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "SSID: HomeWifi")
	assert.Contains(t, view, "every 2m0s")
	assert.Contains(t, view, "stability 0.90")

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
