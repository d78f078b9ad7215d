package discovery

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/rgowan/tunerbridge/internal/logging"
)

const (
	// ServiceType is the mDNS service type HDHomeRun tuners advertise.
	ServiceType = "_hdhomerun._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default browse window per discovery round
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the HTTP port tuners serve their API on
	DefaultPort = 80
)

// browseMDNS browses for tuner advertisements for the duration of the
// timeout and returns candidate addresses (host:port). Candidates are not
// yet verified; the monitor confirms each one over HTTP before reporting it.
func browseMDNS(ctx context.Context, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	addresses := make([]string, 0)
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		for entry := range entries {
			if addr := entryAddress(entry); addr != "" {
				addresses = append(addresses, addr)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Browse closes the entries channel once the context expires.
	<-ctx.Done()
	<-collected

	logging.Debug("mDNS browse finished")
	return addresses, nil
}

// entryAddress extracts a host:port candidate from a service entry,
// preferring IPv4. Returns "" when the entry carries no usable address.
func entryAddress(entry *zeroconf.ServiceEntry) string {
	var host string
	for _, addr := range entry.AddrIPv4 {
		host = addr.String()
		break
	}
	if host == "" && len(entry.AddrIPv6) > 0 {
		host = entry.AddrIPv6[0].String()
	}
	if host == "" {
		return ""
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}
	return host + ":" + strconv.Itoa(port)
}
