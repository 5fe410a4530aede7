package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"networkinfo/internal/config"
	"networkinfo/internal/dnsconf"
	"networkinfo/internal/models"
	"networkinfo/internal/notify"
	"networkinfo/pkg/testhelper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DNS.LegacyFile = ""
	cfg.TestMode = true
	return cfg
}

func testRunner() *testhelper.FakeRunner {
	r := testhelper.NewFakeRunner()
	r.Default = &testhelper.Response{Err: testhelper.ExitError("unscripted", 1)}
	return r
}

func TestStartupAppCreatesFiles(t *testing.T) {
	dir := t.TempDir()
	a, err := StartupApp(testConfig(t), Options{Version: "1.2.3", StorageDir: dir, Runner: testRunner()})
	require.NoError(t, err)

	assert.True(t, a.IsFirstLaunch())
	assert.Equal(t, filepath.Join(dir, dnsconf.FileName), a.Store.Path())
	b, err := os.ReadFile(a.Store.Path())
	require.NoError(t, err)
	assert.Equal(t, dnsconf.ExampleConfig, string(b))

	assert.IsType(t, &notify.OSAScript{}, a.Notifier)
	assert.Equal(t, "1.2.3", a.Preferences.Application.LastLaunchedVersion)

	a.Shutdown()
	prefs, err := ReadPreferencesFile(filepath.Join(dir, PreferencesFile))
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", prefs.Application.LastLaunchedVersion)
	assert.True(t, prefs.Application.NotificationsEnabled)
}

func TestStartupAppKeepsCustomDNSConfigPath(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.DNS.ConfigFile = filepath.Join(dir, "custom", "dns.conf")

	a, err := StartupApp(cfg, Options{StorageDir: dir, Runner: testRunner()})
	require.NoError(t, err)
	assert.Equal(t, cfg.DNS.ConfigFile, a.Store.Path())
	assert.FileExists(t, cfg.DNS.ConfigFile)
}

func TestStartupAppMalformedPreferences(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, PreferencesFile)
	require.NoError(t, os.WriteFile(path, []byte("[Application\nbroken"), 0o644))

	a, err := StartupApp(testConfig(t), Options{StorageDir: dir, Runner: testRunner()})
	require.NoError(t, err)

	assert.False(t, a.IsFirstLaunch())
	assert.True(t, a.Preferences.Application.NotificationsEnabled)
	assert.FileExists(t, path+".bak")
}

func TestStartupAppNotificationsDisabled(t *testing.T) {
	dir := t.TempDir()
	prefs := DefaultPreferences()
	prefs.Application.NotificationsEnabled = false
	require.NoError(t, prefs.WritePreferencesFile(filepath.Join(dir, PreferencesFile)))

	a, err := StartupApp(testConfig(t), Options{StorageDir: dir, Runner: testRunner()})
	require.NoError(t, err)
	assert.Equal(t, notify.Disabled{}, a.Notifier)
}

func TestRefreshOnceInTestMode(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Services = nil
	cfg.DNS.Apply = false

	a, err := StartupApp(cfg, Options{StorageDir: dir, Runner: testRunner()})
	require.NoError(t, err)

	snap := a.Engine.RefreshOnce(context.Background())
	require.NotNil(t, snap.GeoIP)
	assert.Equal(t, models.GeoIPTestData, *snap.GeoIP)
	assert.Equal(t, "192.168.1.100", snap.LocalIP)
	assert.Equal(t, models.SSIDNotConnected, snap.SSID)
	assert.Nil(t, snap.DNSConfig)
	require.NotNil(t, snap.DNSTest)
	assert.False(t, snap.DNSTest.Working)
}

func TestSavePreferencesSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	a, err := StartupApp(testConfig(t), Options{StorageDir: dir, Runner: testRunner()})
	require.NoError(t, err)

	require.NoError(t, a.SavePreferences())
	path := filepath.Join(dir, PreferencesFile)
	require.NoError(t, os.Remove(path))

	require.NoError(t, a.SavePreferences())
	assert.NoFileExists(t, path)

	a.Preferences.Application.StartAtLogin = true
	require.NoError(t, a.SavePreferences())
	assert.FileExists(t, path)
}
