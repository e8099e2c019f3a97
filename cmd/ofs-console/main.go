// Command ofs-console is an interactive client for a filament sensor.
//
// It polls and streams sensor status, edits settings and shows the
// service's version, logs and health.
//
// Usage:
//
//	ofs-console [flags]
//
// Flags:
//
//	-addr string       Sensor address, host[:port] or URL (default "localhost:8080")
//	-browse            Locate the sensor over mDNS instead of -addr
//	-iface string      Network interface for -browse
//	-timeout duration  Request timeout (default 10s)
//	-version           Show version information
//
// Examples:
//
//	# Connect to a local ofs-web
//	ofs-console
//
//	# Connect to a sensor on the LAN
//	ofs-console -addr 192.168.1.42
//
//	# Find the sensor by its mDNS advertisement
//	ofs-console -browse
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/akrauze/OpenFilamentSensor/cmd/ofs-console/interactive"
	"github.com/akrauze/OpenFilamentSensor/pkg/client"
	"github.com/akrauze/OpenFilamentSensor/pkg/discovery"
)

// Version information - set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "dev"
	GitCommit = "unknown"
)

var (
	addr        = flag.String("addr", "localhost:8080", "Sensor address, host[:port] or URL")
	browse      = flag.Bool("browse", false, "Locate the sensor over mDNS instead of -addr")
	iface       = flag.String("iface", "", "Network interface for -browse")
	timeout     = flag.Duration("timeout", client.DefaultTimeout, "Request timeout")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("ofs-console %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	log.SetFlags(log.Ltime)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	target := *addr
	if *browse {
		found, err := browseSensor(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		target = found
	}

	c := client.New(target, client.WithHTTPClient(&http.Client{Timeout: *timeout}))

	con, err := interactive.New(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	log.SetOutput(con.Stdout())

	con.Run(ctx, cancel)
	return 0
}

// browseSensor finds an advertised sensor and returns its host:port.
func browseSensor(ctx context.Context) (string, error) {
	cfg := discovery.DefaultBrowserConfig()
	cfg.Service = discovery.ServiceTypeSensor
	cfg.Interface = *iface

	log.Printf("Browsing for %s...", cfg.Service)
	browser := discovery.NewMDNSBrowser(cfg)
	defer browser.Stop()

	found, err := browser.Discover(ctx)
	if err != nil {
		return "", fmt.Errorf("sensor not found: %w", err)
	}

	port := found.Port
	if port == 0 {
		port = discovery.DefaultPort
	}
	log.Printf("Found %s at %s:%d", found.Name, found.IP, port)
	return net.JoinHostPort(found.IP, strconv.Itoa(port)), nil
}
