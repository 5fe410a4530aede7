package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"networkinfo/internal/models"

	"github.com/stretchr/testify/assert"
)

func providersFor(urls ...string) []GeoIPProvider {
	defaults := DefaultGeoIPProviders()
	out := make([]GeoIPProvider, len(urls))
	for i, u := range urls {
		out[i] = defaults[i]
		out[i].URL = u
	}
	return out
}

func TestGeoIPFirstProviderWins(t *testing.T) {
	var secondHits atomic.Int32
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ip":"203.0.113.7","org":"Example ISP","country_name":"Norway","country_code":"NO"}`))
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		secondHits.Add(1)
	}))
	defer second.Close()

	s := NewGeoIPService(time.Second, WithGeoIPProviders(providersFor(first.URL, second.URL)))
	got := s.Fetch(context.Background())

	assert.Equal(t, models.GeoIPData{Query: "203.0.113.7", ISP: "Example ISP", Country: "Norway", CountryCode: "NO"}, got)
	assert.Zero(t, secondHits.Load())
}

func TestGeoIPFallsThroughProviders(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer broken.Close()
	noIP := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"fail"}`))
	}))
	defer noIP.Close()
	ipinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ip":"198.51.100.1","org":"AS64500 Example","country":"DE"}`))
	}))
	defer ipinfo.Close()

	s := NewGeoIPService(time.Second, WithGeoIPProviders(providersFor(broken.URL, noIP.URL, ipinfo.URL)))
	got := s.Fetch(context.Background())

	assert.Equal(t, "198.51.100.1", got.Query)
	assert.Equal(t, "AS64500 Example", got.ISP)
	assert.Equal(t, "DE", got.Country)
	assert.Equal(t, "DE", got.CountryCode)
}

func TestGeoIPIPAPIMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"query":"192.0.2.9","isp":"Telco","country":"Japan"}`))
	}))
	defer srv.Close()

	p := DefaultGeoIPProviders()[1]
	p.URL = srv.URL
	got := NewGeoIPService(time.Second, WithGeoIPProviders([]GeoIPProvider{p})).Fetch(context.Background())

	assert.Equal(t, models.GeoIPData{Query: "192.0.2.9", ISP: "Telco", Country: "Japan", CountryCode: "N/A"}, got)
}

func TestGeoIPAllTimeOutReturnsPlaceholder(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	s := NewGeoIPService(50*time.Millisecond, WithGeoIPProviders(providersFor(slow.URL, slow.URL, slow.URL)))
	got := s.Fetch(context.Background())

	assert.Equal(t, models.GeoIPUnavailable, got)
	assert.Equal(t, "Check connection", got.Query)
	assert.True(t, got.IsPlaceholder())
}

func TestGeoIPTestModeSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := NewGeoIPService(time.Second, WithGeoIPProviders(providersFor(srv.URL)), WithGeoIPTestMode(true))
	assert.Equal(t, models.GeoIPTestData, s.Fetch(context.Background()))
	assert.Zero(t, hits.Load())
}
