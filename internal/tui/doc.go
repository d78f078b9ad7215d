// Package tui implements the interactive watch view: a live dashboard of
// the daemon's device table, source registry, and recent registry
// intents, built on Bubble Tea.
//
// The view polls the control API for snapshots and subscribes to the
// /api/events stream for intent activity. The r and d keys request a
// refresh pass and a discovery round.
package tui
