package discovery

import (
	"context"
	"sort"
	"time"

	"github.com/rgowan/tunerbridge/internal/lineup"
)

// ScanResult is one verified tuner from a one-shot scan.
type ScanResult struct {
	DeviceID     string
	Address      string
	FriendlyName string
	ModelNumber  string
	TunerCount   int
}

// Scan performs a single discovery round (mDNS, broadcast, subnet sweep)
// and returns every verified tuner. Used by the CLI; the daemon uses a
// Monitor instead.
func Scan(ctx context.Context, client *lineup.Client, timeout time.Duration) ([]ScanResult, error) {
	m := NewMonitor(client)
	if timeout > 0 {
		m.ScanTimeout = timeout
	}

	candidates := m.gather(ctx)

	results := make([]ScanResult, 0, len(candidates))
	seen := make(map[string]struct{})
	for _, addr := range candidates {
		info, err := client.DeviceInfo(ctx, addr)
		if err != nil || !info.IsTuner() {
			continue
		}
		if _, dup := seen[info.DeviceID]; dup {
			continue
		}
		seen[info.DeviceID] = struct{}{}
		results = append(results, ScanResult{
			DeviceID:     info.DeviceID,
			Address:      addr,
			FriendlyName: info.Name(addr),
			ModelNumber:  info.ModelNumber,
			TunerCount:   info.TunerCount,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].DeviceID < results[j].DeviceID })
	return results, nil
}
