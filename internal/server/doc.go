// Package server exposes the daemon's HTTP control surface.
//
// The server publishes the current device table and source registry as
// JSON, accepts manual refresh and discovery triggers, and streams
// source intents to WebSocket subscribers on /api/events.
//
// # Endpoints
//
//   - GET  /api/devices   current device table
//   - GET  /api/sources   current source registry
//   - POST /api/refresh   request a full refresh pass
//   - POST /api/discover  request an immediate discovery round
//   - GET  /api/events    WebSocket stream of source intents
//
// Refresh and discover requests are handed to the scheduler; the
// response reports whether the request was queued behind an already
// pending one.
//
// # Event Stream
//
// Every create, update, and delete applied to the source registry is
// broadcast to all connected subscribers. Slow subscribers are dropped
// rather than allowed to stall the broadcast.
package server
