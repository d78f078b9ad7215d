package discovery

import (
	"context"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rgowan/tunerbridge/internal/logging"
	"github.com/rgowan/tunerbridge/internal/protocol"
)

// DefaultBroadcastWait is how long a broadcast round listens for replies.
const DefaultBroadcastWait = 3 * time.Second

// broadcastProbe sends the wildcard discover request to the local broadcast
// address and collects the addresses of devices that reply within the wait
// window. Replies are only candidates; verification happens over HTTP.
func broadcastProbe(ctx context.Context, wait time.Duration) ([]string, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	dst := &net.UDPAddr{IP: net.IPv4bcast, Port: protocol.DiscoverPort}
	if _, err := conn.WriteTo(protocol.EncodeDiscoverRequest(), dst); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(wait)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	addresses := make([]string, 0)
	seen := make(map[string]struct{})
	buf := make([]byte, 1024)

	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			// Deadline expiry ends the round; it is not a failure.
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				break
			}
			return addresses, err
		}

		pkt, err := protocol.ParsePacket(buf[:n])
		if err != nil || pkt.Type != protocol.TypeDiscoverReply {
			continue
		}

		host, _, err := net.SplitHostPort(from.String())
		if err != nil {
			continue
		}
		addr := host + ":" + strconv.Itoa(DefaultPort)
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)

		logging.Debug("Broadcast discovery reply",
			zap.String("address", addr),
			zap.String("device_id", pkt.DeviceID()),
		)
	}

	return addresses, nil
}
