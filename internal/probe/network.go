package probe

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"networkinfo/internal/executor"
	"networkinfo/internal/models"

	log "github.com/sirupsen/logrus"
)

const (
	LocalIPTestValue = "192.168.1.100"

	DefaultDigTimeout = 3 * time.Second
)

var (
	ipv4Pattern       = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)
	nameserverPattern = regexp.MustCompile(`nameserver\[[0-9]*\]\s*:\s*(\S+)`)
)

// LocalIP returns the IPv4 address of en0, or "N/A".
func LocalIP(ctx context.Context, r executor.Runner, testMode bool) string {
	if testMode {
		return LocalIPTestValue
	}
	out, err := r.Run(ctx, 0, "/usr/sbin/ipconfig", "getifaddr", "en0")
	if err != nil || out == "" {
		if err != nil {
			log.WithField("probe", "local_ip").WithError(err).Debug("ipconfig getifaddr failed")
		}
		return models.NotAvailable
	}
	return out
}

// ObservedDNS lists the resolvers the system currently uses, in the order
// scutil reports them, without duplicates.
func ObservedDNS(ctx context.Context, r executor.Runner) []string {
	out, err := r.Run(ctx, 0, "/usr/sbin/scutil", "--dns")
	if err != nil {
		log.WithField("probe", "dns_servers").WithError(err).Debug("scutil --dns failed")
		return nil
	}
	return ParseNameservers(out)
}

func ParseNameservers(out string) []string {
	seen := map[string]bool{}
	var servers []string
	for _, m := range nameserverPattern.FindAllStringSubmatch(out, -1) {
		s := m[1]
		if seen[s] {
			continue
		}
		seen[s] = true
		servers = append(servers, s)
	}
	return servers
}

// Dig queries server for domain with dig and reports whether the answer
// contains an IPv4 address. port 0 means the default port.
func Dig(ctx context.Context, r executor.Runner, timeout time.Duration, server string, port int, domain string) (bool, string) {
	if timeout <= 0 {
		timeout = DefaultDigTimeout
	}
	args := []string{"@" + server}
	if port > 0 {
		args = append(args, "-p", strconv.Itoa(port))
	}
	args = append(args, domain, "+short", "+time=2")

	out, err := r.Run(ctx, timeout, "/usr/bin/dig", args...)
	if err != nil {
		return false, "Error: " + err.Error()
	}
	return ipv4Pattern.MatchString(out), out
}

// TestDNS resolves every domain against server concurrently. Results keep
// the order of domains.
func TestDNS(ctx context.Context, r executor.Runner, timeout time.Duration, server string, domains []string) models.DNSTestResult {
	results := make([]models.DNSDomainResult, len(domains))

	var wg sync.WaitGroup
	for i, d := range domains {
		wg.Add(1)
		go func(i int, domain string) {
			defer wg.Done()
			ok, resp := Dig(ctx, r, timeout, server, 0, domain)
			results[i] = models.DNSDomainResult{Domain: domain, Success: ok, Response: strings.TrimSpace(resp)}
		}(i, d)
	}
	wg.Wait()

	successes := 0
	for _, res := range results {
		if res.Success {
			successes++
		}
	}

	rate := 0.0
	if len(domains) > 0 {
		rate = float64(successes) / float64(len(domains)) * 100
	}

	log.WithFields(log.Fields{"probe": "dns_test", "server": server, "rate": rate}).Debug("DNS test finished")
	return models.DNSTestResult{
		Working:     successes > 0,
		SuccessRate: rate,
		Results:     results,
	}
}
