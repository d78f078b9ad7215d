// Package protocol implements the HDHomeRun discovery datagram format.
//
// Tuners listen on UDP port 65001 for discover requests and answer with
// discover replies. A datagram is a 16-bit packet type, a 16-bit payload
// length, and a payload of tag-length-value fields, all big-endian:
//
//	00 02  00 0c              discover request, 12-byte payload
//	01 04  ff ff ff ff        device type (wildcard)
//	02 04  ff ff ff ff        device id (wildcard)
//
// The broadcast probe in the discovery package sends the wildcard request
// and parses replies to extract the responder's device ID; device details
// are then confirmed over HTTP via discover.json.
package protocol
