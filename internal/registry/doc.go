// Package registry defines the source registry boundary the sync engine
// reconciles against.
//
// The engine never queries the registry for what it previously created; it
// only issues create/update/delete intents keyed by origin identity (device
// ID + channel key) and tracks its own bookkeeping. That keeps the engine
// usable against registries with no reverse-lookup support.
//
// Memory is the registry implementation served by the tunerbridge daemon
// itself: sources live for the process lifetime and are exposed over the
// control API and its WebSocket event stream.
package registry
