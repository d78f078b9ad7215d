package discovery

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rgowan/tunerbridge/internal/logging"
)

const (
	// subnetDialTimeout bounds the TCP probe per host.
	subnetDialTimeout = 500 * time.Millisecond

	// subnetWorkers bounds concurrent probes across a swept block.
	subnetWorkers = 32
)

// subnetScan sweeps the /24 around every local IPv4 address and returns
// hosts accepting TCP connections on the device HTTP port. It is the
// fallback for networks that filter multicast and broadcast traffic; hits
// are candidates only, verified over HTTP like every other method.
func subnetScan(ctx context.Context) []string {
	hosts := localSubnetHosts()
	if len(hosts) == 0 {
		return nil
	}
	candidates := probeHosts(ctx, hosts, DefaultPort)
	if len(candidates) > 0 {
		logging.Debug("Subnet sweep found candidates",
			zap.Int("hosts_probed", len(hosts)),
			zap.Int("candidates", len(candidates)),
		)
	}
	return candidates
}

// probeHosts dials host:port across a bounded worker pool and returns the
// addresses that accepted the connection.
func probeHosts(ctx context.Context, hosts []string, port int) []string {
	var (
		mu  sync.Mutex
		out []string
		wg  sync.WaitGroup
	)
	sem := make(chan struct{}, subnetWorkers)
	dialer := &net.Dialer{Timeout: subnetDialTimeout}

	for _, host := range hosts {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(host string) {
			defer wg.Done()
			defer func() { <-sem }()

			addr := net.JoinHostPort(host, strconv.Itoa(port))
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return
			}
			_ = conn.Close()

			mu.Lock()
			out = append(out, addr)
			mu.Unlock()
		}(host)
	}
	wg.Wait()

	return out
}

// localSubnetHosts lists every host address of the /24 blocks containing
// the machine's own IPv4 addresses, excluding the machine itself.
func localSubnetHosts() []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	hosts := make([]string, 0)

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipnet.IP.To4()
			if ip == nil {
				continue
			}

			base := ip.Mask(net.CIDRMask(24, 32))
			if _, dup := seen[base.String()]; dup {
				continue
			}
			seen[base.String()] = struct{}{}

			for i := 1; i < 255; i++ {
				host := net.IPv4(base[0], base[1], base[2], byte(i))
				if host.Equal(ip) {
					continue
				}
				hosts = append(hosts, host.String())
			}
		}
	}

	return hosts
}
