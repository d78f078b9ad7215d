// Package discovery locates HDHomeRun tuners on the local network and
// reports their comings and goings as an event stream.
//
// # Discovery Process
//
// A discovery round combines three methods:
//  1. mDNS browse for "_hdhomerun._tcp" service advertisements
//  2. UDP broadcast of the wildcard discover datagram to port 65001
//  3. a bounded TCP sweep of the local /24 for hosts answering on the
//     device HTTP port, for networks that filter multicast and broadcast
//
// Every candidate address from any method is verified with an HTTP GET
// of its discover.json before being reported; responders that are not real
// tuners (no DeviceID or model) are dropped silently.
//
// # Event Stream
//
// The Monitor runs rounds periodically and on demand (Probe). A verified
// device yields a Found event on every round it answers, so consumers see
// address changes as ordinary re-discovery. A device that misses enough
// consecutive rounds yields a single Lost event.
//
// # Network Requirements
//
// mDNS needs multicast on the local segment (UDP port 5353); the broadcast
// probe and subnet sweep reach only the local subnet. Devices on routed
// segments can be configured statically instead.
package discovery
