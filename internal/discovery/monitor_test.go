package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rgowan/tunerbridge/internal/lineup"
)

// fakeDevice serves discover.json for a single simulated tuner.
type fakeDevice struct {
	srv      *httptest.Server
	id       string
	answerMu sync.Mutex
	answer   bool
}

func newFakeDevice(t *testing.T, id, name string) *fakeDevice {
	t.Helper()
	d := &fakeDevice{id: id, answer: true}
	d.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"DeviceID":%q,"FriendlyName":%q,"ModelNumber":"HDHR5-2US"}`, id, name)
	}))
	t.Cleanup(d.srv.Close)
	return d
}

func (d *fakeDevice) addr() string {
	return strings.TrimPrefix(d.srv.URL, "http://")
}

func (d *fakeDevice) answering() bool {
	d.answerMu.Lock()
	defer d.answerMu.Unlock()
	return d.answer
}

func (d *fakeDevice) setAnswering(v bool) {
	d.answerMu.Lock()
	defer d.answerMu.Unlock()
	d.answer = v
}

// testMonitor builds a Monitor whose candidate gatherer returns the
// addresses of the fake devices currently answering.
func testMonitor(devices ...*fakeDevice) *Monitor {
	m := NewMonitor(lineup.NewClient(time.Second))
	m.LostAfterMisses = 2
	m.gather = func(ctx context.Context) []string {
		var addrs []string
		for _, d := range devices {
			if d.answering() {
				addrs = append(addrs, d.addr())
			}
		}
		return addrs
	}
	return m
}

func collect(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	events := make([]Event, 0, n)
	timeout := time.After(3 * time.Second)
	for len(events) < n {
		select {
		case e, ok := <-ch:
			if !ok {
				t.Fatalf("event stream closed after %d of %d events", len(events), n)
			}
			events = append(events, e)
		case <-timeout:
			t.Fatalf("timed out waiting for %d events, got %d", n, len(events))
		}
	}
	return events
}

func TestMonitorRoundEmitsVerifiedDevices(t *testing.T) {
	dev := newFakeDevice(t, "1052D6A8", "Living Room")
	m := testMonitor(dev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.round(ctx)

	select {
	case e := <-m.Events():
		if e.Type != EventFound {
			t.Errorf("Type = %v, want found", e.Type)
		}
		if e.DeviceID != "1052D6A8" || e.FriendlyName != "Living Room" {
			t.Errorf("event = %+v", e)
		}
		if e.Address != dev.addr() {
			t.Errorf("Address = %s, want %s", e.Address, dev.addr())
		}
	default:
		t.Fatal("round should have emitted a found event")
	}
}

func TestMonitorSkipsNonTuners(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A web server that answers on the candidate port but is no tuner.
		_, _ = w.Write([]byte(`{"hello":"world"}`))
	}))
	defer srv.Close()

	m := NewMonitor(lineup.NewClient(time.Second))
	m.gather = func(ctx context.Context) []string {
		return []string{strings.TrimPrefix(srv.URL, "http://")}
	}

	m.round(context.Background())

	select {
	case e := <-m.Events():
		t.Fatalf("unexpected event %+v for a non-tuner", e)
	default:
	}
}

func TestMonitorLostAfterConsecutiveMisses(t *testing.T) {
	dev := newFakeDevice(t, "1052D6A8", "Attic")
	m := testMonitor(dev) // LostAfterMisses = 2
	ctx := context.Background()

	m.round(ctx) // found
	dev.setAnswering(false)
	m.round(ctx) // miss 1: no event
	m.round(ctx) // miss 2: lost

	events := collect(t, m.Events(), 2)
	if events[0].Type != EventFound {
		t.Errorf("events[0].Type = %v, want found", events[0].Type)
	}
	if events[1].Type != EventLost || events[1].DeviceID != "1052D6A8" {
		t.Errorf("events[1] = %+v, want lost 1052D6A8", events[1])
	}

	// Once reported lost, further silent rounds emit nothing.
	m.round(ctx)
	select {
	case e := <-m.Events():
		t.Fatalf("unexpected event %+v after device already lost", e)
	default:
	}
}

func TestMonitorMissCounterResetsOnReappearance(t *testing.T) {
	dev := newFakeDevice(t, "1052D6A8", "Attic")
	m := testMonitor(dev)
	ctx := context.Background()

	m.round(ctx) // found
	dev.setAnswering(false)
	m.round(ctx) // miss 1
	dev.setAnswering(true)
	m.round(ctx) // found again, counter resets
	dev.setAnswering(false)
	m.round(ctx) // miss 1 again: still no lost event

	events := collect(t, m.Events(), 2)
	for i, e := range events {
		if e.Type != EventFound {
			t.Errorf("events[%d].Type = %v, want found", i, e.Type)
		}
	}
	select {
	case e := <-m.Events():
		if e.Type == EventLost {
			t.Error("device should not be lost; miss counter must reset on reappearance")
		}
	default:
	}
}

func TestMonitorRunProbeAndShutdown(t *testing.T) {
	dev := newFakeDevice(t, "1052D6A8", "Attic")
	m := testMonitor(dev)
	m.Interval = time.Hour // only the initial round and explicit probes

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	// Initial round.
	collect(t, m.Events(), 1)

	// Probe triggers another round without waiting for the ticker.
	if err := m.Probe(ctx); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	collect(t, m.Events(), 1)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop on context cancellation")
	}

	// Stream closes on shutdown.
	if _, ok := <-m.Events(); ok {
		// Drain any buffered event, then expect closure.
		for range m.Events() {
		}
	}
}

func TestMonitorProbeCoalesces(t *testing.T) {
	m := NewMonitor(lineup.NewClient(time.Second))

	// Without a running loop, the second probe finds the buffer full and
	// must still succeed (coalesced into the pending round).
	if err := m.Probe(context.Background()); err != nil {
		t.Fatalf("first Probe() error = %v", err)
	}
	if err := m.Probe(context.Background()); err != nil {
		t.Fatalf("coalesced Probe() error = %v", err)
	}
}
