package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// browseFunc runs a DNS-SD browse until ctx is done.
type browseFunc func(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error

// registerFunc registers a DNS-SD service.
type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (*zeroconf.Server, error)

func zeroconfBrowse(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error {
	return zeroconf.Browse(ctx, service, domain, entries, removed, opts...)
}

func zeroconfRegister(instance, service, domain string, port int, text []string, ifaces []net.Interface, opts ...zeroconf.ServerOption) (*zeroconf.Server, error) {
	return zeroconf.Register(instance, service, domain, port, text, ifaces, opts...)
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Service is the DNS-SD service type to browse.
	// Default: _elegoo._tcp.
	Service string

	// BrowseTimeout bounds a single Discover call.
	// Default: 5 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Service:       ServiceTypePrinter,
		BrowseTimeout: BrowseTimeout,
	}
}

// MDNSBrowser finds printers using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
	browse browseFunc

	mu      sync.Mutex
	stopped bool
	cancels map[int]context.CancelFunc
	nextID  int
}

// NewMDNSBrowser creates a new mDNS browser. Zero config fields take their
// defaults.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	def := DefaultBrowserConfig()
	if config.Service == "" {
		config.Service = def.Service
	}
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = def.BrowseTimeout
	}
	return &MDNSBrowser{
		config:  config,
		browse:  zeroconfBrowse,
		cancels: make(map[int]context.CancelFunc),
	}
}

// NewMDNSDiscoverer creates a Discoverer browsing for printers.
func NewMDNSDiscoverer(config BrowserConfig) Discoverer {
	return NewMDNSBrowser(config)
}

// Browse streams printers as they are found. Entries for the same instance
// seen on several interfaces are aggregated and reported once. The channel
// is closed when ctx is done or the browser is stopped.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan Printer, error) {
	ctx, cancel := context.WithCancel(ctx)
	id, err := b.track(cancel)
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan Printer)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		defer b.untrack(id)
		defer cancel()

		seen := make(map[string][]string)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				addrs := entryAddresses(entry)
				existing, found := seen[entry.Instance]
				seen[entry.Instance] = mergeAddresses(existing, addrs)
				if found {
					continue
				}
				p, ok := entryToPrinter(entry)
				if !ok {
					// No IPv4 address yet; report on a later entry.
					delete(seen, entry.Instance)
					continue
				}
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := seen[entry.Instance]; found {
					remaining := removeAddresses(existing, entry)
					if len(remaining) == 0 {
						delete(seen, entry.Instance)
					} else {
						seen[entry.Instance] = remaining
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = b.browse(ctx, b.config.Service, Domain, entries, removed, b.browserOptions()...)
	}()

	return out, nil
}

// Discover returns the first printer found, or ErrNotFound when none
// answers within the browse timeout.
func (b *MDNSBrowser) Discover(ctx context.Context) (Printer, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.BrowseTimeout)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return Printer{}, err
	}

	select {
	case p, ok := <-results:
		if ok {
			return p, nil
		}
	case <-ctx.Done():
	}

	if ctx.Err() == context.Canceled {
		return Printer{}, ctx.Err()
	}
	return Printer{}, fmt.Errorf("%w: no %s service answered within %s", ErrNotFound, b.config.Service, b.config.BrowseTimeout)
}

// Stop cancels all running browse operations. Later calls to Browse fail.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	for id, cancel := range b.cancels {
		cancel()
		delete(b.cancels, id)
	}
}

func (b *MDNSBrowser) track(cancel context.CancelFunc) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return 0, fmt.Errorf("browser stopped")
	}
	b.nextID++
	b.cancels[b.nextID] = cancel
	return b.nextID, nil
}

func (b *MDNSBrowser) untrack(id int) {
	b.mu.Lock()
	delete(b.cancels, id)
	b.mu.Unlock()
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	// Select specific interface if configured
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// entryToPrinter converts a zeroconf entry with an IPv4 address.
func entryToPrinter(entry *zeroconf.ServiceEntry) (Printer, bool) {
	if len(entry.AddrIPv4) == 0 {
		return Printer{}, false
	}
	return Printer{
		IP:   entry.AddrIPv4[0].String(),
		Port: entry.Port,
		Name: entry.Instance,
	}, true
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes addresses from a zeroconf entry from the list.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, addr := range entryAddresses(entry) {
		toRemove[addr] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		TTL: 120 * time.Second,
	}
}

// MDNSAdvertiser announces the sensor service using zeroconf.
type MDNSAdvertiser struct {
	config   AdvertiserConfig
	register registerFunc

	mu     sync.Mutex
	server *zeroconf.Server
	info   *ServiceInfo
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{
		config:   config,
		register: zeroconfRegister,
	}
}

// Advertise starts announcing the sensor, replacing any previous
// announcement.
func (a *MDNSAdvertiser) Advertise(info *ServiceInfo) error {
	if err := ValidateInstanceName(info.InstanceName); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.shutdownLocked()

	port := info.Port
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := a.register(
		info.InstanceName,
		ServiceTypeSensor,
		Domain,
		port,
		TXTRecordsToStrings(EncodeServiceTXT(info)),
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register sensor service: %w", err)
	}

	a.server = server
	copied := *info
	copied.Port = port
	a.info = &copied
	return nil
}

// Advertising returns the announced service, or nil.
func (a *MDNSAdvertiser) Advertising() *ServiceInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.info == nil {
		return nil
	}
	copied := *a.info
	return &copied
}

// Stop withdraws the announcement. Stopping an idle advertiser is a no-op.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shutdownLocked()
}

func (a *MDNSAdvertiser) shutdownLocked() {
	if a.server != nil {
		a.server.Shutdown()
	}
	a.server = nil
	a.info = nil
}

// interfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

var _ Discoverer = (*MDNSBrowser)(nil)
