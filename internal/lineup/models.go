package lineup

import (
	"encoding/json"
	"fmt"
)

// Channel is one entry of a tuner's channel lineup, normalized from the
// device's lineup.json. Key is unique within one device's lineup.
type Channel struct {
	// Key is the guide number (e.g., "2.1" or "101.3"), stable per channel.
	Key string `json:"GuideNumber"`

	// Name is the guide name shown to users (e.g., "KQED FM").
	Name string `json:"GuideName"`

	// StreamURL is the HTTP stream address for the channel.
	StreamURL string `json:"URL"`
}

// DeviceInfo is the device identity document returned by GET /discover.json.
// DeviceID and ModelNumber are the fields that identify a responder as a
// real tuner; anything missing them is treated as a non-device.
type DeviceInfo struct {
	DeviceID     string `json:"DeviceID"`
	FriendlyName string `json:"FriendlyName"`
	ModelNumber  string `json:"ModelNumber"`
	FirmwareName string `json:"FirmwareName,omitempty"`
	TunerCount   int    `json:"TunerCount,omitempty"`
	BaseURL      string `json:"BaseURL,omitempty"`
	LineupURL    string `json:"LineupURL,omitempty"`
}

// IsTuner reports whether the discover document describes a usable tuner.
func (d *DeviceInfo) IsTuner() bool {
	return d.DeviceID != "" && d.ModelNumber != ""
}

// Name returns the friendly name, or a fallback derived from the address
// when the device did not report one.
func (d *DeviceInfo) Name(address string) string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return fmt.Sprintf("HDHomeRun at %s", address)
}

// parseLineup decodes a lineup.json body into normalized channels.
//
// Entries without a stream URL are dropped. Duplicate keys within one
// response resolve last-write-wins so the result is deterministic.
func parseLineup(data []byte) ([]Channel, error) {
	var raw []Channel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid lineup body: %w", err)
	}

	index := make(map[string]int, len(raw))
	channels := make([]Channel, 0, len(raw))
	for _, ch := range raw {
		if ch.StreamURL == "" || ch.Key == "" {
			continue
		}
		if i, seen := index[ch.Key]; seen {
			channels[i] = ch
			continue
		}
		index[ch.Key] = len(channels)
		channels = append(channels, ch)
	}

	return channels, nil
}
