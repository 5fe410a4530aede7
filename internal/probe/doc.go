// Package probe gathers the individual pieces of network state: public IP
// and geolocation, local IP, Wi-Fi SSID, VPN tunnels, the resolvers the
// system is using and whether the local resolver answers.
//
// Probes never fail loudly. Every external failure degrades to a
// placeholder value ("N/A", an empty list, the GeoIP fallback record) and is
// logged; callers always get something to display.
//
// All external programs are run through an executor.Runner so tests can
// script their output.
package probe
