package wetlib

import (
	"context"
	"net/http"
	"time"

	"github.com/adaav/wetmap/pkg/logger"
)

// Probe reports whether the network currently looks usable. It must be
// cheap; it runs on every poll tick.
type Probe func(ctx context.Context) bool

// HTTPProbe returns a Probe that issues a HEAD request against endpoint.
// Any completed response, whatever the status, counts as connectivity.
func HTTPProbe(hc *http.Client, endpoint string) Probe {
	if hc == nil {
		hc = http.DefaultClient
	}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
		if err != nil {
			return false
		}
		resp, err := hc.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}
}

// Monitor tracks connectivity and publishes transitions. A transition from
// disconnected to connected is re-checked after a short settle delay before
// subscribers are notified, so downstream auto-sync does not fire on a
// flapping link.
type Monitor struct {
	probe    Probe
	interval time.Duration
	debounce time.Duration
	log      logger.Logger
	subject  *Subject[bool]
}

// MonitorOpts configures a Monitor. Zero values pick the defaults the
// original client shipped with (5s poll, 1s settle).
type MonitorOpts struct {
	Probe    Probe
	Interval time.Duration
	Debounce time.Duration
	Logger   logger.Logger

	// InitialOnline seeds the state before the first probe completes.
	InitialOnline bool
}

// NewMonitor creates a Monitor. Call Start to begin polling, or drive the
// state manually with SetOnline.
func NewMonitor(opts MonitorOpts) *Monitor {
	if opts.Probe == nil {
		opts.Probe = func(context.Context) bool { return opts.InitialOnline }
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Debounce <= 0 {
		opts.Debounce = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Monitor{
		probe:    opts.Probe,
		interval: opts.Interval,
		debounce: opts.Debounce,
		log:      opts.Logger,
		subject:  NewSubject(opts.InitialOnline),
	}
}

// Online returns the current connectivity state.
func (m *Monitor) Online() bool {
	return m.subject.Value()
}

// Subscribe registers fn on the connectivity stream. fn immediately
// receives the current state, then every transition.
func (m *Monitor) Subscribe(fn func(connected bool)) (cancel func()) {
	return m.subject.Subscribe(fn)
}

// SetOnline forces the state, notifying subscribers on change. Used by the
// CLI's explicit offline mode and by tests.
func (m *Monitor) SetOnline(connected bool) {
	if m.subject.Value() == connected {
		return
	}
	m.log.Info("connectivity: %s", stateWord(connected))
	m.subject.Publish(connected)
}

// Start polls the probe until ctx is done. The first probe runs
// immediately so callers see a settled state right after Start returns.
func (m *Monitor) Start(ctx context.Context) {
	m.check(ctx)
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.check(ctx)
			}
		}
	}()
}

// check runs one probe and applies the transition rules. Reconnects are
// confirmed with a second probe after the settle delay.
func (m *Monitor) check(ctx context.Context) {
	connected := m.probe(ctx)
	was := m.subject.Value()
	if connected == was {
		return
	}
	if connected {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.debounce):
		}
		if !m.probe(ctx) {
			return
		}
	}
	m.log.Info("connectivity: %s", stateWord(connected))
	m.subject.Publish(connected)
}

func stateWord(connected bool) string {
	if connected {
		return "online"
	}
	return "offline"
}
