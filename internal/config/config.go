package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"networkinfo/pkg/logger"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Logger   logger.Config   `yaml:"logger"`
	Refresh  RefreshConfig   `yaml:"refresh"`
	DNS      DNSConfig       `yaml:"dns"`
	GeoIP    GeoIPConfig     `yaml:"geoip"`
	Services []ServiceConfig `yaml:"services"`
	TestMode bool            `yaml:"test_mode" env:"NETWORKINFO_TEST_MODE" env-default:"false" env-description:"Return fixed GeoIP and local IP data without touching the network"`
}

type RefreshConfig struct {
	Base                time.Duration `yaml:"base" env:"NETWORKINFO_REFRESH_BASE" env-default:"120s" env-description:"Refresh interval on a stable network"`
	Fast                time.Duration `yaml:"fast" env:"NETWORKINFO_REFRESH_FAST" env-default:"30s" env-description:"Refresh interval on a moderately stable network"`
	Min                 time.Duration `yaml:"min" env:"NETWORKINFO_REFRESH_MIN" env-default:"15s" env-description:"Refresh interval on an unstable network"`
	ServiceCheck        time.Duration `yaml:"service_check" env:"NETWORKINFO_SERVICE_CHECK" env-default:"60s" env-description:"Local DNS service check interval"`
	RescheduleTolerance time.Duration `yaml:"reschedule_tolerance" env:"NETWORKINFO_RESCHEDULE_TOLERANCE" env-default:"5s" env-description:"Minimum interval change before the refresh timer is reprogrammed"`
	ExecTimeout         time.Duration `yaml:"exec_timeout" env:"NETWORKINFO_EXEC_TIMEOUT" env-default:"10s" env-description:"Default timeout for external commands"`
}

type DNSConfig struct {
	ConfigFile     string        `yaml:"config_file" env:"NETWORKINFO_DNS_CONFIG" env-description:"SSID to DNS servers mapping file, defaults to <app-support>/NetworkInfo/dns.conf"`
	LegacyFile     string        `yaml:"legacy_file" env:"NETWORKINFO_DNS_LEGACY_CONFIG" env-default:".config/hammerspoon/dns.conf" env-description:"Legacy mapping file migrated on first run, relative to home"`
	ExpectedServer string        `yaml:"expected_server" env:"NETWORKINFO_DNS_EXPECTED" env-default:"127.0.0.1" env-description:"Resolver used for DNS resolution tests"`
	TestDomains    []string      `yaml:"test_domains" env:"NETWORKINFO_DNS_TEST_DOMAINS" env-default:"example.com,google.com,cloudflare.com" env-description:"Domains resolved by the DNS test"`
	TestTimeout    time.Duration `yaml:"test_timeout" env:"NETWORKINFO_DNS_TEST_TIMEOUT" env-default:"3s" env-description:"Timeout of one dig invocation"`
	NetworkService string        `yaml:"network_service" env:"NETWORKINFO_DNS_NETWORK_SERVICE" env-default:"Wi-Fi" env-description:"networksetup service whose DNS servers are managed"`
	Apply          bool          `yaml:"apply" env:"NETWORKINFO_DNS_APPLY" env-default:"true" env-description:"Write configured DNS servers to the system"`
}

type GeoIPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"NETWORKINFO_GEOIP_TIMEOUT" env-default:"5s" env-description:"Per endpoint timeout"`
}

type ServiceConfig struct {
	Name       string `yaml:"name"`
	Label      string `yaml:"label"`
	Port       int    `yaml:"port"`
	TestDomain string `yaml:"test_domain"`
}

var (
	ErrInvalidInterval = errors.New("invalid refresh interval")
	ErrInvalidService  = errors.New("invalid service definition")
	ErrNoTestDomains   = errors.New("no dns test domains")
)

func DefaultServices() []ServiceConfig {
	return []ServiceConfig{
		{Name: "unbound", Label: "org.cronokirby.unbound", Port: 53, TestDomain: "example.com"},
		{Name: "kresd", Label: "org.knot-resolver.kresd", Port: 8053, TestDomain: "example.com"},
	}
}

// New reads configPath (YAML) over env defaults. A missing file is not an
// error; skipConfig reads the environment only.
func New(configPath string, skipConfig bool) (*Config, error) {
	cfg := &Config{}

	var err error
	if skipConfig || configPath == "" {
		err = cleanenv.ReadEnv(cfg)
	} else if _, statErr := os.Stat(configPath); errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = cleanenv.ReadConfig(configPath, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration with every value at its default.
func Default() *Config {
	cfg := &Config{}
	_ = cleanenv.ReadEnv(cfg)
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if len(c.Services) == 0 {
		c.Services = DefaultServices()
	}
	for i := range c.Services {
		if c.Services[i].TestDomain == "" {
			c.Services[i].TestDomain = "example.com"
		}
	}
}

func (c *Config) Validate() error {
	r := c.Refresh
	for name, d := range map[string]time.Duration{
		"base": r.Base, "fast": r.Fast, "min": r.Min, "service_check": r.ServiceCheck,
	} {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidInterval, name)
		}
	}
	if r.Fast > r.Base {
		return fmt.Errorf("%w: fast (%s) exceeds base (%s)", ErrInvalidInterval, r.Fast, r.Base)
	}
	if r.Min > r.Fast {
		return fmt.Errorf("%w: min (%s) exceeds fast (%s)", ErrInvalidInterval, r.Min, r.Fast)
	}
	if len(c.DNS.TestDomains) == 0 {
		return ErrNoTestDomains
	}
	for _, s := range c.Services {
		if s.Name == "" || s.Label == "" || s.Port <= 0 || s.Port > 65535 {
			return fmt.Errorf("%w: %+v", ErrInvalidService, s)
		}
	}
	return nil
}
