package probe

import (
	"context"
	"testing"

	"networkinfo/internal/models"
	"networkinfo/pkg/testhelper"

	"github.com/stretchr/testify/assert"
)

const hardwarePorts = `
Hardware Port: Ethernet
Device: en0
Ethernet Address: aa:bb:cc:dd:ee:ff

Hardware Port: Wi-Fi
Device: en1
Ethernet Address: 11:22:33:44:55:66
`

const profilerOutput = `Wi-Fi:

      Software Versions:
          CoreWLAN: 16.0 (1657)
      Interfaces:
        en0:
          Card Type: Wi-Fi  (0x14E4, 0x4387)
          Status: Connected
          Current Network Information:
            HomeWifi:
              PHY Mode: 802.11ax
              Channel: 36 (5GHz, 80MHz)
`

func TestSSIDChainOrder(t *testing.T) {
	var called []string
	mk := func(name, result string) SSIDStrategy {
		return SSIDStrategy{Name: name, Detect: func(context.Context) string {
			called = append(called, name)
			return result
		}}
	}

	d := NewSSIDDetectorWithStrategies(mk("a", ""), mk("b", "  Office  "), mk("c", "never"))
	assert.Equal(t, "Office", d.Detect(context.Background()))
	assert.Equal(t, []string{"a", "b"}, called)
}

func TestSSIDNotConnectedWhenAllEmpty(t *testing.T) {
	d := NewSSIDDetector(testhelper.NewFakeRunner())
	assert.Equal(t, models.SSIDNotConnected, d.Detect(context.Background()))
}

func TestSSIDFromSystemProfiler(t *testing.T) {
	r := testhelper.NewFakeRunner().On("/usr/sbin/system_profiler SPAirPortDataType", profilerOutput)
	d := NewSSIDDetector(r)

	assert.Equal(t, "HomeWifi", d.Detect(context.Background()))
	assert.Equal(t, 0, r.CallCount("/usr/sbin/networksetup"))
}

func TestSSIDFromNetworkSetup(t *testing.T) {
	r := testhelper.NewFakeRunner().
		On("/usr/sbin/networksetup -listallhardwareports", hardwarePorts).
		On("/usr/sbin/networksetup -getairportnetwork en1", "Current Wi-Fi Network: Coffee Shop")
	d := NewSSIDDetector(r)

	assert.Equal(t, "Coffee Shop", d.Detect(context.Background()))
}

func TestSSIDNetworkSetupNotAssociatedFallsThrough(t *testing.T) {
	r := testhelper.NewFakeRunner().
		On("/usr/sbin/networksetup -listallhardwareports", hardwarePorts).
		On("/usr/sbin/networksetup -getairportnetwork en1", "You are not associated with an AirPort network.").
		On(airportPath+" -I", "     agrCtlRSSI: -55\n           SSID: Airport Net\n        BSSID: 0:1:2:3:4:5")
	d := NewSSIDDetector(r)

	assert.Equal(t, "Airport Net", d.Detect(context.Background()))
}

func TestSSIDRedactedSummaryIsPrivacyRestricted(t *testing.T) {
	r := testhelper.NewFakeRunner().On("/bin/zsh -c "+summaryScript, "<redacted>\n")
	d := NewSSIDDetector(r)

	assert.Equal(t, models.SSIDPrivacyRestricted, d.Detect(context.Background()))
}

func TestSSIDSummaryReturnsFirstLine(t *testing.T) {
	r := testhelper.NewFakeRunner().On("/bin/zsh -c "+summaryScript, "\nLibrary\nOther")
	assert.Equal(t, "Library", NewSSIDDetector(r).Detect(context.Background()))
}

func TestParseSystemProfilerRedacted(t *testing.T) {
	out := "Current Network Information:\n  <redacted>:\n    PHY Mode: 802.11ax"
	assert.Equal(t, "", parseSystemProfilerSSID(out))
	assert.Equal(t, "", parseSystemProfilerSSID("Status: Off"))
}

func TestParseWiFiDevice(t *testing.T) {
	assert.Equal(t, "en1", parseWiFiDevice(hardwarePorts))
	assert.Equal(t, "", parseWiFiDevice("Hardware Port: Wi-Fi\n\nHardware Port: Thunderbolt\nDevice: en5"))
}

func TestParseAirportNetwork(t *testing.T) {
	assert.Equal(t, "Net = Name", parseAirportNetwork("Current Wi-Fi Network: Net = Name"))
	assert.Equal(t, "", parseAirportNetwork("Error obtaining wireless information."))
}
