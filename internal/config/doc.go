// Package config loads the tunerbridge daemon configuration.
//
// Configuration lives in a YAML file at the OS-appropriate location
// (e.g. ~/.config/tunerbridge/config.yaml on Linux). A missing file is
// not an error; defaults are used instead.
//
// # Example
//
//	listen_addr: 127.0.0.1:7780
//	refresh_interval: 3600
//	discover_interval: 300
//	radio_only: true
//	static_devices:
//	  - address: 10.0.0.5
//	    name: Attic HDHomeRun
//
// Static devices are seeded into the device table at startup so lineups
// can be synchronized without waiting for mDNS discovery.
package config
