package watch

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"cardvault/internal/logging"
	"cardvault/internal/runctx"
)

// DefaultSettle is how long the monitor waits after the last matching event
// before triggering, long enough for the desktop automounter to finish.
const DefaultSettle = 3 * time.Second

// Handler runs an import for the devices that arrived.
type Handler func(ctx context.Context, devices []string) error

// Monitor debounces card arrival events into import triggers.
type Monitor struct {
	handler Handler
	settle  time.Duration
	logger  *slog.Logger
}

// New returns a Monitor. A non-positive settle selects DefaultSettle.
func New(handler Handler, settle time.Duration, logger *slog.Logger) *Monitor {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Monitor{
		handler: handler,
		settle:  settle,
		logger:  logging.NewComponentLogger(logger, "watch"),
	}
}

// Run connects to the udev netlink socket and blocks until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return runctx.Wrap(runctx.ErrPrecondition, "watch", "connect netlink", "udev events unavailable", err)
	}
	defer conn.Close()

	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	quit := conn.Monitor(queue, errs, Matcher())
	defer close(quit)

	m.logger.Info("watching for cards",
		logging.String(logging.FieldEventType, "watch_started"),
		logging.Duration("settle", m.settle),
	)
	return m.loop(ctx, queue, errs)
}

// Matcher selects block devices that carry a mountable filesystem as they
// are added.
func Matcher() netlink.Matcher {
	action := string(netlink.ADD)
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":   "^block$",
			"ID_FS_USAGE": "^filesystem$",
		},
	})
	return rules
}

// DeviceName returns the device node for a uevent, or "".
func DeviceName(ev netlink.UEvent) string {
	if devname := ev.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			return "/dev/" + devname
		}
		return devname
	}
	devpath := ev.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(devpath, "/"), "/")
	return "/dev/" + parts[len(parts)-1]
}

// loop collects devices until no event has arrived for the settle period,
// then runs the handler. Events that arrive while the handler runs are
// batched into the next trigger.
func (m *Monitor) loop(ctx context.Context, events <-chan netlink.UEvent, errs <-chan error) error {
	var (
		pending []string
		timer   *time.Timer
		fire    <-chan time.Time
		done    chan error
		busy    bool
	)
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	defer stopTimer()

	arm := func() {
		stopTimer()
		timer = time.NewTimer(m.settle)
		fire = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			if busy {
				<-done
			}
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			device := DeviceName(ev)
			if device == "" {
				continue
			}
			m.logger.Debug("card event", logging.String("device", device), logging.String("action", string(ev.Action)))
			if !slices.Contains(pending, device) {
				pending = append(pending, device)
			}
			if !busy {
				arm()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "card detection may miss events"),
			)
		case <-fire:
			fire = nil
			if len(pending) == 0 || m.handler == nil {
				pending = nil
				continue
			}
			devices := pending
			pending = nil
			busy = true
			done = make(chan error, 1)
			m.logger.Info("cards arrived",
				logging.String(logging.FieldEventType, "cards_arrived"),
				logging.String("devices", strings.Join(devices, ",")),
			)
			go func(ch chan<- error) {
				ch <- m.handler(ctx, devices)
			}(done)
		case err := <-done:
			busy = false
			done = nil
			if err != nil {
				logging.WarnWithContext(m.logger, "import after card arrival failed", "watch_import_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "run cardvault import manually to see details"),
				)
			}
			if len(pending) > 0 {
				arm()
			}
		}
	}
}
