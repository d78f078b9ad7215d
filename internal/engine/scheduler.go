package engine

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rgowan/tunerbridge/internal/devices"
	"github.com/rgowan/tunerbridge/internal/lineup"
	"github.com/rgowan/tunerbridge/internal/logging"
)

// DeviceClient is the per-device HTTP surface the scheduler fetches with.
// *lineup.Client satisfies it.
type DeviceClient interface {
	Fetch(ctx context.Context, address string) ([]lineup.Channel, error)
	DeviceInfo(ctx context.Context, address string) (*lineup.DeviceInfo, error)
}

// Prober triggers an active discovery round. discovery.Monitor satisfies it.
type Prober interface {
	Probe(ctx context.Context) error
}

// requestBuffer bounds queued manual refresh requests. Requests beyond the
// buffer coalesce into already-queued work.
const requestBuffer = 16

// provisionalIDPrefix keys statically seeded devices whose real ID is not
// known yet because the device was unreachable at seed time.
const provisionalIDPrefix = "static:"

// refreshRequest asks for a reconciliation pass. An empty deviceID means a
// full pass over every known device. done is closed when the covering pass
// completes.
type refreshRequest struct {
	deviceID string
	done     chan struct{}
}

// Scheduler drives reconciliation: a periodic full pass on a fixed
// interval, interleaved with manually triggered passes. All passes run on
// the single Run goroutine, so at most one pass is ever in flight and the
// registry is never mutated by two passes concurrently.
type Scheduler struct {
	store      *devices.Store
	client     DeviceClient
	reconciler *Reconciler
	prober     Prober

	// Interval between periodic full passes.
	Interval time.Duration

	// RadioOnly drops channels that do not look like radio stations
	// before reconciling.
	RadioOnly bool

	requests chan *refreshRequest
}

// NewScheduler wires a scheduler. prober may be nil when no discovery
// transport is attached (DiscoverNow then reports not triggered).
func NewScheduler(store *devices.Store, client DeviceClient, rec *Reconciler, prober Prober, interval time.Duration) *Scheduler {
	return &Scheduler{
		store:      store,
		client:     client,
		reconciler: rec,
		prober:     prober,
		Interval:   interval,
		requests:   make(chan *refreshRequest, requestBuffer),
	}
}

// Run drives the periodic cycle until ctx is cancelled. Manual refresh
// requests arriving while a pass runs are queued and coalesced into exactly
// one follow-up pass.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			s.runPass(ctx, nil)

		case req := <-s.requests:
			reqs := s.coalesce(req)
			s.runPass(ctx, passScope(reqs))
			for _, r := range reqs {
				close(r.done)
			}
		}
	}
}

// coalesce drains every queued request so one pass covers them all.
func (s *Scheduler) coalesce(first *refreshRequest) []*refreshRequest {
	reqs := []*refreshRequest{first}
	for {
		select {
		case r := <-s.requests:
			reqs = append(reqs, r)
		default:
			return reqs
		}
	}
}

// passScope returns the set of device IDs a pass should cover, or nil for
// a full pass (any request without a device ID widens the pass to full).
func passScope(reqs []*refreshRequest) map[string]bool {
	scope := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		if r.deviceID == "" {
			return nil
		}
		scope[r.deviceID] = true
	}
	return scope
}

// runPass reconciles every device in scope (nil = all), isolating failures
// per device. Shutdown is cooperative: the pass finishes the device in
// flight and stops before starting the next one.
func (s *Scheduler) runPass(ctx context.Context, scope map[string]bool) {
	started := time.Now()
	synced := 0

	for _, dev := range s.store.List() {
		if ctx.Err() != nil {
			return
		}
		if scope != nil && !scope[dev.ID] {
			continue
		}
		if s.syncDevice(ctx, dev) {
			synced++
		}
	}

	logging.Debug("Reconciliation pass complete",
		zap.Int("devices_synced", synced),
		zap.Duration("elapsed", time.Since(started)),
	)
}

// syncDevice fetches one device's lineup and reconciles it. A fetch
// failure skips only this device; its previously registered sources are
// left untouched for the next cycle.
func (s *Scheduler) syncDevice(ctx context.Context, dev devices.Device) bool {
	// A provisionally seeded device must resolve its real ID before any
	// sources are registered, or the same channels would later reappear
	// under the discovered identity.
	if strings.HasPrefix(dev.ID, provisionalIDPrefix) {
		resolved, ok := s.reidentify(ctx, dev)
		if !ok {
			return false
		}
		dev = resolved
	}

	channels, err := s.client.Fetch(ctx, dev.Address)
	if err != nil {
		fields := []zap.Field{
			zap.String("device_id", dev.ID),
			zap.String("address", dev.Address),
			zap.Error(err),
		}
		if fe := lineup.AsFetchError(err); fe != nil {
			fields = append(fields, zap.String("kind", fe.Kind.String()))
		}
		logging.Warn("Lineup fetch failed, skipping device this cycle", fields...)
		return false
	}

	if s.RadioOnly {
		channels = lineup.FilterRadio(channels)
	}

	s.reconciler.Reconcile(dev, channels)
	return true
}

// reidentify resolves a provisional device record to the ID the device
// itself reports. If discovery has already recorded the real ID, the
// provisional record is merged into it. Returns false while the device
// stays unreachable; the next pass retries.
func (s *Scheduler) reidentify(ctx context.Context, dev devices.Device) (devices.Device, bool) {
	info, err := s.client.DeviceInfo(ctx, dev.Address)
	if err != nil || !info.IsTuner() {
		logging.Debug("Static device still unidentified",
			zap.String("device_id", dev.ID),
			zap.String("address", dev.Address),
			zap.Error(err),
		)
		return dev, false
	}

	friendly := dev.FriendlyName
	if friendly == "" {
		friendly = info.Name(dev.Address)
	}

	s.reconciler.Migrate(dev.ID, info.DeviceID)
	s.store.Reidentify(dev.ID, info.DeviceID)
	resolved := s.store.Upsert(info.DeviceID, dev.Address, friendly)

	logging.Info("Static device identified",
		zap.String("provisional_id", dev.ID),
		zap.String("device_id", info.DeviceID),
		zap.String("address", dev.Address),
	)
	return resolved, true
}

// RefreshNow triggers a full reconciliation pass and waits for the pass
// that covers the request to complete. Requests issued while a pass is
// already running coalesce into a single follow-up pass. Returns whether a
// pass was triggered; per-device outcomes are observable via listDevices
// timestamps, not here.
func (s *Scheduler) RefreshNow(ctx context.Context) bool {
	req := &refreshRequest{done: make(chan struct{})}

	select {
	case s.requests <- req:
	case <-ctx.Done():
		return false
	default:
		// Queue full: enough passes are already pending to cover this.
		return true
	}

	select {
	case <-req.done:
	case <-ctx.Done():
	}
	return true
}

// RequestDeviceRefresh enqueues a reconciliation for a single device
// without waiting for completion. Used when discovery reports a new device
// so it appears without waiting for the periodic cycle.
func (s *Scheduler) RequestDeviceRefresh(deviceID string) {
	req := &refreshRequest{deviceID: deviceID, done: make(chan struct{})}
	select {
	case s.requests <- req:
	default:
		// Queue full; the pending full pass will cover this device.
	}
}

// DiscoverNow asks the discovery transport for one active probe and
// returns immediately. Resulting found events arrive asynchronously
// through the listener.
func (s *Scheduler) DiscoverNow(ctx context.Context) bool {
	if s.prober == nil {
		return false
	}
	if err := s.prober.Probe(ctx); err != nil {
		logging.Warn("Discovery probe failed", zap.Error(err))
		return false
	}
	return true
}

// SeedStatic inserts a statically configured device into the store without
// waiting for discovery. The device is contacted once for its stable ID;
// if unreachable, a provisional address-derived ID is used until the first
// pass that reaches the device re-identifies the record.
func (s *Scheduler) SeedStatic(ctx context.Context, address, name string) {
	id := provisionalIDPrefix + address
	friendly := name

	if info, err := s.client.DeviceInfo(ctx, address); err == nil && info.IsTuner() {
		id = info.DeviceID
		if friendly == "" {
			friendly = info.Name(address)
		}
	} else if err != nil {
		logging.Warn("Static device not reachable at startup, seeding provisionally",
			zap.String("address", address),
			zap.Error(err),
		)
	}

	s.store.Upsert(id, address, friendly)
	s.RequestDeviceRefresh(id)
}
