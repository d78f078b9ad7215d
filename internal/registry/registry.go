package registry

import "fmt"

// OriginID is the composite identity of a registered source: which device
// and which channel it derives from. At most one source may exist per
// OriginID at any time.
type OriginID struct {
	DeviceID   string `json:"device_id"`
	ChannelKey string `json:"channel_key"`
}

// String returns the tag form of the identity, usable as a map key or in logs.
func (o OriginID) String() string {
	return fmt.Sprintf("%s/%s", o.DeviceID, o.ChannelKey)
}

// Source is an addressable audio source derived from a tuner channel.
type Source struct {
	Origin      OriginID `json:"origin"`
	DisplayName string   `json:"display_name"`
	StreamURL   string   `json:"stream_url"`
}

// Registry is the external source registry the engine reconciles against.
// Implementations are owned by the host application; the engine only issues
// create/update/delete intents and never assumes reverse lookup.
type Registry interface {
	// CreateSource registers a new source for an origin identity.
	CreateSource(origin OriginID, displayName, streamURL string) error

	// UpdateSource replaces the display name and stream URL of an
	// existing source.
	UpdateSource(origin OriginID, displayName, streamURL string) error

	// DeleteSource removes the source for an origin identity.
	DeleteSource(origin OriginID) error
}
