// Package discovery locates the printer on the local network and announces
// the sensor itself.
//
// # Printer Discovery
//
// A Discoverer returns the printer's address. Three implementations exist:
//
//   - SettingsDiscoverer reports the configured elegoo_ip after a short,
//     cancellable delay that models network discovery latency.
//   - MDNSBrowser browses DNS-SD for the printer service type
//     (default _elegoo._tcp) and returns the first entry with an IPv4
//     address.
//   - FallbackDiscoverer tries a primary discoverer and falls back to a
//     secondary one when the first fails.
//
// # Self Advertising (_ofs._tcp)
//
// MDNSAdvertiser registers the sensor's HTTP service so clients can find
// it without knowing its address. TXT records include: fw (firmware
// version), chip (chip family) and optionally path (API base path).
package discovery
