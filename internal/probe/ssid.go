package probe

import (
	"bufio"
	"context"
	"strings"

	"networkinfo/internal/executor"
	"networkinfo/internal/models"

	log "github.com/sirupsen/logrus"
)

const (
	airportPath = "/System/Library/PrivateFrameworks/Apple80211.framework/Versions/Current/Resources/airport"

	summaryScript = `for i in ${(o)$(ifconfig -lX "en[0-9]")};do ipconfig getsummary ${i} | awk '/ SSID/ {print $NF}';done 2> /dev/null`

	redactedSSID = "<redacted>"
)

// SSIDStrategy yields an SSID or "" when it has nothing to say.
type SSIDStrategy struct {
	Name   string
	Detect func(ctx context.Context) string
}

type SSIDDetector struct {
	runner     executor.Runner
	strategies []SSIDStrategy
}

func NewSSIDDetector(r executor.Runner) *SSIDDetector {
	d := &SSIDDetector{runner: r}
	d.strategies = []SSIDStrategy{
		{Name: "system_profiler", Detect: d.fromSystemProfiler},
		{Name: "networksetup", Detect: d.fromNetworkSetup},
		{Name: "airport", Detect: d.fromAirport},
		{Name: "ipconfig", Detect: d.fromIPConfigSummary},
	}
	return d
}

// NewSSIDDetectorWithStrategies builds a detector from an explicit chain.
func NewSSIDDetectorWithStrategies(strategies ...SSIDStrategy) *SSIDDetector {
	return &SSIDDetector{strategies: strategies}
}

// Detect walks the strategy chain and returns the first answer, or
// models.SSIDNotConnected.
func (d *SSIDDetector) Detect(ctx context.Context) string {
	for _, s := range d.strategies {
		if ctx.Err() != nil {
			break
		}
		if ssid := strings.TrimSpace(s.Detect(ctx)); ssid != "" {
			log.WithFields(log.Fields{"probe": "ssid", "strategy": s.Name, "ssid": ssid}).Debug("SSID detected")
			return ssid
		}
	}
	return models.SSIDNotConnected
}

func (d *SSIDDetector) fromSystemProfiler(ctx context.Context) string {
	out, err := d.runner.Run(ctx, 0, "/usr/sbin/system_profiler", "SPAirPortDataType")
	if err != nil {
		log.WithField("probe", "ssid").WithError(err).Debug("system_profiler failed")
		return ""
	}
	return parseSystemProfilerSSID(out)
}

func (d *SSIDDetector) fromNetworkSetup(ctx context.Context) string {
	ports, err := d.runner.Run(ctx, 0, "/usr/sbin/networksetup", "-listallhardwareports")
	if err != nil {
		log.WithField("probe", "ssid").WithError(err).Debug("networksetup -listallhardwareports failed")
		return ""
	}
	device := parseWiFiDevice(ports)
	if device == "" {
		return ""
	}
	out, err := d.runner.Run(ctx, 0, "/usr/sbin/networksetup", "-getairportnetwork", device)
	if err != nil {
		return ""
	}
	return parseAirportNetwork(out)
}

func (d *SSIDDetector) fromAirport(ctx context.Context) string {
	out, err := d.runner.Run(ctx, 0, airportPath, "-I")
	if err != nil {
		return ""
	}
	return parseAirportInfo(out)
}

func (d *SSIDDetector) fromIPConfigSummary(ctx context.Context) string {
	out, err := d.runner.Run(ctx, 0, "/bin/zsh", "-c", summaryScript)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == redactedSSID {
			return models.SSIDPrivacyRestricted
		}
		return line
	}
	return ""
}

// parseSystemProfilerSSID reads the first network name under
// "Current Network Information:".
func parseSystemProfilerSSID(out string) string {
	sc := bufio.NewScanner(strings.NewReader(out))
	inCurrent := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Current Network Information:") {
			inCurrent = true
			continue
		}
		if inCurrent {
			if !strings.HasSuffix(line, ":") {
				return ""
			}
			name := strings.TrimSuffix(line, ":")
			if name == redactedSSID {
				return ""
			}
			return name
		}
	}
	return ""
}

// parseWiFiDevice finds the device line following "Hardware Port: Wi-Fi".
func parseWiFiDevice(out string) string {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "Hardware Port: Wi-Fi" {
			continue
		}
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if strings.HasPrefix(next, "Device: ") {
				return strings.TrimSpace(strings.TrimPrefix(next, "Device: "))
			}
			if strings.HasPrefix(next, "Hardware Port:") {
				return ""
			}
		}
	}
	return ""
}

func parseAirportNetwork(out string) string {
	if strings.Contains(out, "You are not associated") || strings.Contains(out, "Error") {
		return ""
	}
	const prefix = "Current Wi-Fi Network: "
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix))
		}
	}
	return ""
}

func parseAirportInfo(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "SSID: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "SSID: "))
		}
	}
	return ""
}
