package discovery

import "context"

// EventType distinguishes device arrival from device loss.
type EventType int

const (
	// EventFound reports a device that answered a discovery round.
	EventFound EventType = iota
	// EventLost reports a device that has missed enough consecutive
	// discovery rounds to be considered gone.
	EventLost
)

// String returns a human-readable name for the event type
func (t EventType) String() string {
	switch t {
	case EventFound:
		return "found"
	case EventLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Event is one observation from the discovery transport. Found events carry
// the verified device identity; Lost events carry only the device ID.
type Event struct {
	Type         EventType
	DeviceID     string
	Address      string
	FriendlyName string
}

// Transport is the discovery event source the sync engine consumes. The
// event stream is unbounded and not restartable; it closes only when the
// transport shuts down.
type Transport interface {
	// Events returns the stream of found/lost events.
	Events() <-chan Event

	// Probe requests one immediate active discovery round. It returns as
	// soon as the request is accepted; resulting events arrive
	// asynchronously on the event stream.
	Probe(ctx context.Context) error
}
