package engine

import (
	"context"

	"github.com/rgowan/tunerbridge/internal/devices"
	"github.com/rgowan/tunerbridge/internal/discovery"
	"github.com/rgowan/tunerbridge/internal/logging"
)

// Listener consumes the discovery transport's event stream and keeps the
// device store current. It never fetches lineups or touches the registry
// itself; on arrival it only requests a reconciliation from the scheduler,
// keeping discovery and synchronization independently testable.
type Listener struct {
	store     *devices.Store
	scheduler *Scheduler
	events    <-chan discovery.Event
}

// NewListener wires a listener to a device store, a scheduler, and a
// discovery event stream.
func NewListener(store *devices.Store, scheduler *Scheduler, events <-chan discovery.Event) *Listener {
	return &Listener{
		store:     store,
		scheduler: scheduler,
		events:    events,
	}
}

// Run consumes events until ctx is cancelled or the stream closes. Device
// store updates happen on this goroutine only and are never blocked behind
// a reconciliation pass.
func (l *Listener) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-l.events:
			if !ok {
				return
			}
			l.handle(e)
		}
	}
}

func (l *Listener) handle(e discovery.Event) {
	switch e.Type {
	case discovery.EventFound:
		before, known := l.store.Get(e.DeviceID)
		l.store.Upsert(e.DeviceID, e.Address, e.FriendlyName)

		// A device that is new, returning, or re-addressed gets an
		// immediate sync; steady-state re-observations only refresh
		// last-seen.
		if !known || !before.Present || before.Address != e.Address {
			logging.LogDeviceEvent(e.DeviceID, e.Address, "found")
			l.scheduler.RequestDeviceRefresh(e.DeviceID)
		}

	case discovery.EventLost:
		// Sources derived from the device stay registered; a flapping
		// network should not churn the registry.
		l.store.MarkLost(e.DeviceID)
	}
}
