package discovery

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rgowan/tunerbridge/internal/lineup"
	"github.com/rgowan/tunerbridge/internal/logging"
)

const (
	// DefaultInterval is the default spacing between discovery rounds.
	DefaultInterval = 5 * time.Minute

	// DefaultLostAfterMisses is how many consecutive rounds a device may
	// miss before a Lost event is emitted.
	DefaultLostAfterMisses = 3

	// eventBuffer absorbs bursts when many devices answer one round.
	eventBuffer = 64
)

// Monitor is the concrete discovery transport. It runs periodic discovery
// rounds (mDNS browse, UDP broadcast, and a subnet sweep), verifies every
// responder over HTTP, and reports verified devices as Found events. A
// device that misses enough consecutive rounds is reported Lost.
type Monitor struct {
	// Interval is the spacing between automatic rounds.
	Interval time.Duration

	// ScanTimeout is the mDNS browse window per round.
	ScanTimeout time.Duration

	// BroadcastWait is the reply-collection window per broadcast probe.
	BroadcastWait time.Duration

	// LostAfterMisses is the consecutive-miss threshold before a Lost
	// event. Zero disables Lost reporting entirely.
	LostAfterMisses int

	client *lineup.Client
	events chan Event
	probes chan struct{}

	// gather collects candidate addresses for one round. Replaceable in
	// tests; defaults to mDNS browse, broadcast probe, and subnet sweep.
	gather func(ctx context.Context) []string

	// misses tracks consecutive rounds each known device went unanswered.
	// Only the Run goroutine touches it.
	misses map[string]int
	// addresses remembers the last verified address per device ID, for
	// logging on loss. Only the Run goroutine touches it.
	addresses map[string]string
}

// NewMonitor creates a Monitor that verifies candidates with the given
// lineup client.
func NewMonitor(client *lineup.Client) *Monitor {
	m := &Monitor{
		Interval:        DefaultInterval,
		ScanTimeout:     DefaultScanTimeout,
		BroadcastWait:   DefaultBroadcastWait,
		LostAfterMisses: DefaultLostAfterMisses,
		client:          client,
		events:          make(chan Event, eventBuffer),
		probes:          make(chan struct{}, 1),
		misses:          make(map[string]int),
		addresses:       make(map[string]string),
	}
	m.gather = m.gatherCandidates
	return m
}

// Events implements Transport.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Probe implements Transport. It nudges the run loop into an immediate
// round; a probe requested while one is already pending coalesces.
func (m *Monitor) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.probes <- struct{}{}:
	default:
		// A round is already pending; this request is covered by it.
	}
	return nil
}

// Run drives discovery rounds until ctx is cancelled, then closes the
// event stream. The first round starts immediately.
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.events)

	m.round(ctx)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.round(ctx)
		case <-m.probes:
			m.round(ctx)
		}
	}
}

// round performs one discovery pass: gather candidates, verify each over
// HTTP, emit Found events, and age out devices that stopped answering.
func (m *Monitor) round(ctx context.Context) {
	candidates := m.gather(ctx)

	answered := make(map[string]struct{})
	for _, addr := range candidates {
		if ctx.Err() != nil {
			return
		}

		info, err := m.client.DeviceInfo(ctx, addr)
		if err != nil {
			logging.Debug("Discovery candidate did not verify",
				zap.String("address", addr),
				zap.Error(err),
			)
			continue
		}
		if !info.IsTuner() {
			continue
		}

		answered[info.DeviceID] = struct{}{}
		m.misses[info.DeviceID] = 0
		m.addresses[info.DeviceID] = addr

		m.emit(ctx, Event{
			Type:         EventFound,
			DeviceID:     info.DeviceID,
			Address:      addr,
			FriendlyName: info.Name(addr),
		})
	}

	if m.LostAfterMisses <= 0 {
		return
	}

	for id := range m.misses {
		if _, ok := answered[id]; ok {
			continue
		}
		m.misses[id]++
		if m.misses[id] < m.LostAfterMisses {
			continue
		}

		logging.LogDeviceEvent(id, m.addresses[id], "lost")
		delete(m.misses, id)
		delete(m.addresses, id)
		m.emit(ctx, Event{Type: EventLost, DeviceID: id})
	}
}

func (m *Monitor) emit(ctx context.Context, e Event) {
	select {
	case m.events <- e:
	case <-ctx.Done():
	}
}

// gatherCandidates merges one mDNS browse, one broadcast probe, and one
// subnet sweep. Transport errors are logged and ignored; discovery
// continues with whatever the other methods produced.
func (m *Monitor) gatherCandidates(ctx context.Context) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)

	add := func(addrs []string) {
		for _, a := range addrs {
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}

	mdns, err := browseMDNS(ctx, m.ScanTimeout)
	if err != nil {
		logging.Warn("mDNS browse failed", zap.Error(err))
	}
	add(mdns)

	bcast, err := broadcastProbe(ctx, m.BroadcastWait)
	if err != nil {
		logging.Warn("Broadcast probe failed", zap.Error(err))
	}
	add(bcast)

	add(subnetScan(ctx))

	sort.Strings(out)
	return out
}
