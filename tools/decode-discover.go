//go:build ignore

// Decode-discover pretty-prints HDHomeRun discover packets from hex.
//
// Usage:
//
//	go run tools/decode-discover.go 0002000c0104ffffffff0204ffffffff
//
// Handy when capturing broadcast traffic with tcpdump to check what a
// device or another client actually put on the wire.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/rgowan/tunerbridge/internal/protocol"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: decode-discover <hex-packet>")
		fmt.Println("Example: decode-discover 0002000c0104ffffffff0204ffffffff")
		os.Exit(1)
	}

	raw := strings.NewReplacer(" ", "", ":", "").Replace(strings.Join(os.Args[1:], ""))
	data, err := hex.DecodeString(raw)
	if err != nil {
		fmt.Printf("Invalid hex input: %v\n", err)
		os.Exit(1)
	}

	pkt, err := protocol.ParsePacket(data)
	if err != nil {
		fmt.Printf("Parse failed: %v\n", err)
		os.Exit(1)
	}

	switch pkt.Type {
	case protocol.TypeDiscoverRequest:
		fmt.Println("Type: discover request (0x0002)")
	case protocol.TypeDiscoverReply:
		fmt.Println("Type: discover reply (0x0003)")
	default:
		fmt.Printf("Type: unknown (0x%04x)\n", pkt.Type)
	}

	for _, field := range pkt.Fields {
		fmt.Printf("  tag 0x%02x  len %-3d  %s\n", field.Tag, len(field.Value), hex.EncodeToString(field.Value))
	}

	if id := pkt.DeviceID(); id != "" {
		fmt.Printf("Device ID: %s\n", id)
	}
}
