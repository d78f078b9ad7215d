// Package devices holds the in-memory table of known tuner devices.
//
// Records are keyed by the stable device ID the tuner reports about itself,
// so a device that changes IP address keeps a single record. The table is
// rebuilt from scratch on every daemon start; there is no persistence.
//
// A device reported lost by discovery is only marked absent. Its record and
// the sources derived from it survive until a future lineup overwrites
// them, which keeps short network flaps from churning the source registry.
package devices
