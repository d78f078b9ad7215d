// Package client is the HTTP and WebSocket client for the daemon's
// control API, used by the CLI commands and the watch view.
package client
