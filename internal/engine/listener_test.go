package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rgowan/tunerbridge/internal/devices"
	"github.com/rgowan/tunerbridge/internal/discovery"
	"github.com/rgowan/tunerbridge/internal/lineup"
)

// pendingRequests drains and returns the scheduler's queued refresh
// requests. Only valid while the scheduler's Run loop is not running.
func pendingRequests(s *Scheduler) []*refreshRequest {
	var reqs []*refreshRequest
	for {
		select {
		case r := <-s.requests:
			reqs = append(reqs, r)
		default:
			return reqs
		}
	}
}

func newTestListener() (*Listener, *devices.Store, *Scheduler, chan discovery.Event) {
	client := newStubClient()
	sched, store, _ := newTestScheduler(client)
	events := make(chan discovery.Event, 8)
	return NewListener(store, sched, events), store, sched, events
}

func found(id, addr, name string) discovery.Event {
	return discovery.Event{Type: discovery.EventFound, DeviceID: id, Address: addr, FriendlyName: name}
}

func TestListenerFoundUpsertsAndRequestsRefresh(t *testing.T) {
	l, store, sched, _ := newTestListener()

	l.handle(found("1052D6A8", "10.0.0.5", "Attic"))

	dev, ok := store.Get("1052D6A8")
	if !ok || dev.Address != "10.0.0.5" || !dev.Present {
		t.Fatalf("device after found = %+v, ok = %v", dev, ok)
	}

	reqs := pendingRequests(sched)
	if len(reqs) != 1 || reqs[0].deviceID != "1052D6A8" {
		t.Errorf("queued requests = %d, want one scoped to the new device", len(reqs))
	}
}

func TestListenerSteadyStateFoundDoesNotRequestRefresh(t *testing.T) {
	l, _, sched, _ := newTestListener()

	l.handle(found("1052D6A8", "10.0.0.5", "Attic"))
	pendingRequests(sched) // drain the initial request

	// Same device, same address: just a heartbeat.
	l.handle(found("1052D6A8", "10.0.0.5", "Attic"))

	if reqs := pendingRequests(sched); len(reqs) != 0 {
		t.Errorf("steady-state re-observation queued %d requests, want 0", len(reqs))
	}
}

func TestListenerAddressChangeRequestsRefresh(t *testing.T) {
	l, store, sched, _ := newTestListener()

	l.handle(found("1052D6A8", "10.0.0.5", "Attic"))
	pendingRequests(sched)

	l.handle(found("1052D6A8", "10.0.0.99", "Attic"))

	dev, _ := store.Get("1052D6A8")
	if dev.Address != "10.0.0.99" {
		t.Errorf("Address = %s, want updated", dev.Address)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, re-discovery must not duplicate records", store.Len())
	}
	if reqs := pendingRequests(sched); len(reqs) != 1 {
		t.Errorf("address change queued %d requests, want 1", len(reqs))
	}
}

func TestListenerLostMarksDeviceKeepsSources(t *testing.T) {
	client := newStubClient()
	store := devices.NewStore()
	reg := newStubRegistry()
	rec := NewReconciler(reg, store)
	sched := NewScheduler(store, client, rec, nil, time.Hour)
	events := make(chan discovery.Event, 8)
	l := NewListener(store, sched, events)

	l.handle(found("1052D6A8", "10.0.0.5", "Attic"))
	dev, _ := store.Get("1052D6A8")
	rec.Reconcile(dev, []lineup.Channel{ch("2.1", "News", "http://d/1")})

	l.handle(discovery.Event{Type: discovery.EventLost, DeviceID: "1052D6A8"})

	dev, ok := store.Get("1052D6A8")
	if !ok {
		t.Fatal("lost device should keep its record")
	}
	if dev.Present {
		t.Error("lost device should not be present")
	}
	if len(reg.sources) != 1 {
		t.Errorf("registry holds %d sources after loss, want 1 (sources are kept)", len(reg.sources))
	}
	if rec.Tracked("1052D6A8") != 1 {
		t.Error("reconciler tracking should survive device loss")
	}
}

func TestListenerRunConsumesStream(t *testing.T) {
	l, store, _, events := newTestListener()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	events <- found("AAA", "10.0.0.5", "One")
	events <- found("BBB", "10.0.0.6", "Two")
	events <- discovery.Event{Type: discovery.EventLost, DeviceID: "AAA"}

	deadline := time.After(2 * time.Second)
	for {
		a, aok := store.Get("AAA")
		_, bok := store.Get("BBB")
		if aok && bok && !a.Present {
			break
		}
		select {
		case <-deadline:
			t.Fatal("listener did not process events in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Closing the stream ends the listener.
	close(events)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop when the stream closed")
	}
	cancel()
}
