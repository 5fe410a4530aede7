package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"networkinfo/internal/models"
	"networkinfo/pkg/jsonhelper"

	log "github.com/sirupsen/logrus"
)

const DefaultGeoIPTimeout = 5 * time.Second

// GeoIPProvider maps one endpoint's JSON schema onto GeoIPData.
type GeoIPProvider struct {
	Name  string
	URL   string
	Parse func(fields map[string]any) models.GeoIPData
}

func DefaultGeoIPProviders() []GeoIPProvider {
	return []GeoIPProvider{
		{
			Name: "ipapi.co",
			URL:  "https://ipapi.co/json",
			Parse: func(f map[string]any) models.GeoIPData {
				return geoFromFields(f, "ip", "org", "country_name", "country_code")
			},
		},
		{
			Name: "ip-api.com",
			URL:  "http://ip-api.com/json/",
			Parse: func(f map[string]any) models.GeoIPData {
				return geoFromFields(f, "query", "isp", "country", "countryCode")
			},
		},
		{
			Name: "ipinfo.io",
			URL:  "https://ipinfo.io/json",
			Parse: func(f map[string]any) models.GeoIPData {
				return geoFromFields(f, "ip", "org", "country", "country")
			},
		},
	}
}

func geoFromFields(f map[string]any, queryKey, ispKey, countryKey, codeKey string) models.GeoIPData {
	return models.GeoIPData{
		Query:       orNA(jsonhelper.PickString(f, queryKey)),
		ISP:         orNA(jsonhelper.PickString(f, ispKey)),
		Country:     orNA(jsonhelper.PickString(f, countryKey)),
		CountryCode: orNA(jsonhelper.PickString(f, codeKey)),
	}
}

type GeoIPService struct {
	client    *http.Client
	providers []GeoIPProvider
	timeout   time.Duration
	testMode  bool
}

type GeoIPOption func(*GeoIPService)

func WithGeoIPProviders(p []GeoIPProvider) GeoIPOption {
	return func(s *GeoIPService) { s.providers = p }
}

func WithGeoIPClient(c *http.Client) GeoIPOption {
	return func(s *GeoIPService) { s.client = c }
}

func WithGeoIPTestMode(on bool) GeoIPOption {
	return func(s *GeoIPService) { s.testMode = on }
}

func NewGeoIPService(timeout time.Duration, opts ...GeoIPOption) *GeoIPService {
	if timeout <= 0 {
		timeout = DefaultGeoIPTimeout
	}
	s := &GeoIPService{
		client:    &http.Client{},
		providers: DefaultGeoIPProviders(),
		timeout:   timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch tries each provider in order and returns the first record with a
// real IP. It never returns an empty record: when every provider fails the
// result is models.GeoIPUnavailable.
func (s *GeoIPService) Fetch(ctx context.Context) models.GeoIPData {
	if s.testMode {
		return models.GeoIPTestData
	}

	for _, p := range s.providers {
		logger := log.WithFields(log.Fields{"probe": "geoip", "provider": p.Name})

		data, err := s.fetchOne(ctx, p)
		if err != nil {
			logger.WithError(err).Debug("GeoIP provider failed")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		logger.WithField("ip", data.Query).Debug("GeoIP provider answered")
		return data
	}

	log.WithField("probe", "geoip").Warn("All GeoIP providers failed")
	return models.GeoIPUnavailable
}

func (s *GeoIPService) fetchOne(ctx context.Context, p GeoIPProvider) (models.GeoIPData, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return models.GeoIPData{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "NetworkInfo")

	resp, err := s.client.Do(req)
	if err != nil {
		return models.GeoIPData{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.GeoIPData{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return models.GeoIPData{}, err
	}
	fields, err := jsonhelper.Fields(body)
	if err != nil {
		return models.GeoIPData{}, fmt.Errorf("decode response: %w", err)
	}

	data := p.Parse(fields)
	if data.Query == models.NotAvailable {
		return models.GeoIPData{}, fmt.Errorf("response has no ip")
	}
	return data, nil
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
