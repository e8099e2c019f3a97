// Package interactive provides the interactive command-line interface
// for ofs-console.
package interactive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/akrauze/OpenFilamentSensor/pkg/client"
	"github.com/akrauze/OpenFilamentSensor/pkg/status"
)

// maskedValue replaces secrets when printing settings.
const maskedValue = "********"

// maxWatchAttempts bounds reconnects without a snapshot in between.
const maxWatchAttempts = 10

// secretKeys are settings keys printed masked.
var secretKeys = map[string]bool{"wifi_password": true}

// Console handles interactive mode for ofs-console.
type Console struct {
	client *client.Client
	rl     *readline.Instance
	out    io.Writer

	backoff client.BackoffConfig

	mu          sync.Mutex
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// New creates a console bound to a readline prompt.
func New(c *client.Client) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ofs> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	con := newConsole(c, rl.Stdout())
	con.rl = rl
	return con, nil
}

// newConsole creates a console that writes to out without a prompt.
func newConsole(c *client.Client, out io.Writer) *Console {
	return &Console{client: c, out: out}
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("status"),
		readline.PcItem("watch"),
		readline.PcItem("unwatch"),
		readline.PcItem("settings"),
		readline.PcItem("set"),
		readline.PcItem("discover"),
		readline.PcItem("version"),
		readline.PcItem("logs"),
		readline.PcItem("health"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Stdout returns a writer that coordinates with the readline input.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()
	defer c.stopWatch()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Execute(ctx, line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the console
// should exit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "status", "s":
		c.cmdStatus(ctx)

	case "watch", "w":
		c.cmdWatch(ctx)

	case "unwatch", "uw":
		if !c.stopWatch() {
			fmt.Fprintln(c.out, "Not watching")
		}

	case "settings":
		c.cmdSettings(ctx)

	case "set":
		c.cmdSet(ctx, args)

	case "discover", "d":
		c.cmdDiscover(ctx)

	case "version", "v":
		c.cmdVersion(ctx)

	case "logs", "l":
		c.cmdLogs(ctx)

	case "health":
		c.cmdHealth(ctx)

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintf(c.out, `
Filament Sensor Console (%s)
  Status:
    status             - Show the current sensor status
    watch              - Print each snapshot of the status stream
    unwatch            - Stop watching

  Settings:
    settings           - Show stored settings
    set k=v [k=v ...]  - Update settings (values parsed as JSON, else text)

  Device:
    discover           - Locate the printer
    version            - Show firmware version information
    logs               - Show recent service log lines
    health             - Show service health

  Other:
    help               - Show this help
    exit               - Quit
`, c.client.BaseURL())
}

func (c *Console) cmdStatus(ctx context.Context) {
	snap, err := c.client.SensorStatus(ctx)
	if err != nil {
		c.printError(err)
		return
	}
	formatStatus(c.out, snap)
}

// formatStatus writes a multi-line view of snap to w.
func formatStatus(w io.Writer, snap status.Snapshot) {
	d := snap.Device
	fmt.Fprintf(w, "Stopped:       %v\n", snap.Stopped)
	fmt.Fprintf(w, "Runout:        %v\n", snap.FilamentRunout)
	fmt.Fprintf(w, "Connected:     %v\n", d.IsConnected)
	fmt.Fprintf(w, "Print state:   %s\n", d.PrintState)
	fmt.Fprintf(w, "Filament:      expected %.1f mm, actual %.1f mm, deficit %.1f mm\n",
		d.ExpectedFilamentMm, d.ActualFilamentMm, d.DeficitMm)
	fmt.Fprintf(w, "Pulses:        %d\n", d.MovementPulses)
	fmt.Fprintf(w, "Jam:           hard %.1f%%, soft %.1f%%\n", d.HardJamPercent, d.SoftJamPercent)
	fmt.Fprintf(w, "Pass ratio:    %.2f (threshold %.2f)\n", d.PassRatio, d.RatioThreshold)
	fmt.Fprintf(w, "Runout pause:  pending %v, remaining %.1f mm, commanded %v\n",
		d.Runout.PausePending, d.Runout.RemainingMm, d.Runout.Commanded)
	fmt.Fprintf(w, "Refresh:       %d ms\n", d.RefreshIntervalMs)
	if snap.MAC != "" || snap.IP != "" {
		fmt.Fprintf(w, "Network:       mac %s, ip %s\n", snap.MAC, snap.IP)
	}
}

// statusLine is the single-line form printed while watching.
func statusLine(snap status.Snapshot) string {
	d := snap.Device
	line := fmt.Sprintf("[%s] expected=%.1f actual=%.1f deficit=%.1f ratio=%.2f hard=%.0f%% soft=%.0f%%",
		d.PrintState, d.ExpectedFilamentMm, d.ActualFilamentMm, d.DeficitMm,
		d.PassRatio, d.HardJamPercent, d.SoftJamPercent)
	if snap.FilamentRunout {
		line += " RUNOUT"
	}
	if snap.Stopped {
		line += " STOPPED"
	}
	return line
}

func (c *Console) cmdWatch(ctx context.Context) {
	c.mu.Lock()
	if c.watchCancel != nil {
		c.mu.Unlock()
		fmt.Fprintln(c.out, "Already watching (use 'unwatch' to stop)")
		return
	}
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.watchCancel = cancel
	c.watchDone = done
	c.mu.Unlock()

	fmt.Fprintln(c.out, "Watching status stream...")
	go func() {
		defer close(done)
		err := c.client.Watch(watchCtx, func(snap status.Snapshot) error {
			fmt.Fprintln(c.out, statusLine(snap))
			return nil
		}, client.WatchOptions{
			Backoff:     c.backoff,
			MaxAttempts: maxWatchAttempts,
			OnDisconnect: func(err error, retryIn time.Duration) {
				if err == nil {
					err = client.ErrStreamEnded
				}
				fmt.Fprintf(c.out, "Stream lost (%v), reconnecting in %s\n", err, retryIn.Round(time.Millisecond))
			},
		})
		if err != nil {
			fmt.Fprintf(c.out, "Watch ended: %v\n", err)
		}

		c.mu.Lock()
		if c.watchDone == done {
			c.watchCancel = nil
			c.watchDone = nil
		}
		c.mu.Unlock()
	}()
}

// stopWatch ends an active watch and waits for it. It reports whether a
// watch was running.
func (c *Console) stopWatch() bool {
	c.mu.Lock()
	cancel, done := c.watchCancel, c.watchDone
	c.watchCancel = nil
	c.watchDone = nil
	c.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	<-done
	fmt.Fprintln(c.out, "Stopped watching")
	return true
}

func (c *Console) cmdSettings(ctx context.Context) {
	s, err := c.client.Settings(ctx)
	if err != nil {
		c.printError(err)
		return
	}

	data, err := json.Marshal(s)
	if err != nil {
		c.printError(err)
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		c.printError(err)
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if secretKeys[k] && v != "" {
			v = maskedValue
		}
		fmt.Fprintf(c.out, "  %-20s %v\n", k+":", v)
	}
}

// parseAssignments converts "key=value" arguments into a partial update.
// Values that parse as JSON keep their JSON type; anything else is text.
func parseAssignments(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, errors.New("usage: set key=value [key=value ...]")
	}
	partial := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", arg)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		partial[key] = v
	}
	return partial, nil
}

func (c *Console) cmdSet(ctx context.Context, args []string) {
	partial, err := parseAssignments(args)
	if err != nil {
		c.printError(err)
		return
	}
	if err := c.client.UpdateSettings(ctx, partial); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "Updated %d setting(s)\n", len(partial))
}

func (c *Console) cmdDiscover(ctx context.Context) {
	fmt.Fprintln(c.out, "Discovering printer...")
	ip, err := c.client.DiscoverPrinter(ctx)
	if err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "Printer: %s\n", ip)
}

func (c *Console) cmdVersion(ctx context.Context) {
	v, err := c.client.Version(ctx)
	if err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "Firmware:   %s\n", v.FirmwareVersion)
	fmt.Fprintf(c.out, "Build:      %s\n", v.BuildVersion)
	fmt.Fprintf(c.out, "Chip:       %s\n", v.ChipFamily)
	fmt.Fprintf(c.out, "Thumbprint: %s\n", v.Thumbprint)
}

func (c *Console) cmdLogs(ctx context.Context) {
	lines, err := c.client.Logs(ctx)
	if err != nil {
		c.printError(err)
		return
	}
	if len(lines) == 0 {
		fmt.Fprintln(c.out, "(no log lines)")
		return
	}
	for _, line := range lines {
		fmt.Fprintln(c.out, line)
	}
}

func (c *Console) cmdHealth(ctx context.Context) {
	h, err := c.client.Health(ctx)
	if err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "Status:  %s\n", h.Status)
	fmt.Fprintf(c.out, "Version: %s\n", h.Version)
	fmt.Fprintf(c.out, "Streams: %d\n", h.Streams)
	fmt.Fprintf(c.out, "Uptime:  %s\n", h.Uptime)
}

func (c *Console) printError(err error) {
	fmt.Fprintf(c.out, "Error: %v\n", err)
}
