package engine

import (
	"sync"

	"go.uber.org/zap"

	"github.com/rgowan/tunerbridge/internal/devices"
	"github.com/rgowan/tunerbridge/internal/lineup"
	"github.com/rgowan/tunerbridge/internal/logging"
	"github.com/rgowan/tunerbridge/internal/registry"
)

// sourceState is the metadata last successfully pushed to the registry for
// one origin identity.
type sourceState struct {
	name string
	url  string
}

// Result counts the intents issued by one reconciliation.
type Result struct {
	Created int
	Updated int
	Deleted int
	Failed  int
}

// Zero reports whether the reconciliation issued no intents at all.
func (r Result) Zero() bool {
	return r.Created == 0 && r.Updated == 0 && r.Deleted == 0 && r.Failed == 0
}

// Reconciler applies a device's current channel lineup against the source
// registry with add/update/remove semantics.
//
// It tracks which origin identities it created itself rather than querying
// the registry, since the registry offers no reverse-lookup guarantee. The
// tracked state only advances for intents that succeed, so a failed create
// or delete is retried on the next cycle instead of being abandoned.
type Reconciler struct {
	registry registry.Registry
	store    *devices.Store

	mu   sync.Mutex
	prev map[string]map[string]sourceState // device ID -> channel key -> state
}

// NewReconciler creates a reconciler that issues intents against reg and
// records sync completion in the device store.
func NewReconciler(reg registry.Registry, store *devices.Store) *Reconciler {
	return &Reconciler{
		registry: reg,
		store:    store,
		prev:     make(map[string]map[string]sourceState),
	}
}

// Reconcile brings the registry in line with the device's current channels.
// Reconciliation is idempotent: a second call with an unchanged lineup
// issues zero intents.
func (r *Reconciler) Reconcile(dev devices.Device, channels []lineup.Channel) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.prev[dev.ID]
	if prev == nil {
		prev = make(map[string]sourceState)
	}

	curr := make(map[string]sourceState, len(channels))
	for _, ch := range channels {
		curr[ch.Key] = sourceState{name: displayName(dev, ch), url: ch.StreamURL}
	}

	next := make(map[string]sourceState, len(curr))
	var res Result

	// Creates and updates.
	for key, want := range curr {
		origin := registry.OriginID{DeviceID: dev.ID, ChannelKey: key}

		have, existed := prev[key]
		switch {
		case !existed:
			err := r.registry.CreateSource(origin, want.name, want.url)
			logging.LogIntent(dev.ID, key, "create", err)
			if err != nil {
				res.Failed++
				continue // not tracked; create retried next cycle
			}
			res.Created++
			next[key] = want

		case have != want:
			err := r.registry.UpdateSource(origin, want.name, want.url)
			logging.LogIntent(dev.ID, key, "update", err)
			if err != nil {
				res.Failed++
				next[key] = have // keep old state so the update is retried
				continue
			}
			res.Updated++
			next[key] = want

		default:
			next[key] = have
		}
	}

	// Deletes: identities we created that the lineup no longer carries.
	for key, have := range prev {
		if _, stillPresent := curr[key]; stillPresent {
			continue
		}
		origin := registry.OriginID{DeviceID: dev.ID, ChannelKey: key}
		err := r.registry.DeleteSource(origin)
		logging.LogIntent(dev.ID, key, "delete", err)
		if err != nil {
			res.Failed++
			next[key] = have // keep tracking so the delete is retried
			continue
		}
		res.Deleted++
	}

	r.prev[dev.ID] = next
	r.store.MarkSynced(dev.ID)

	if !res.Zero() {
		logging.Info("Reconciled device lineup",
			zap.String("device_id", dev.ID),
			zap.Int("created", res.Created),
			zap.Int("updated", res.Updated),
			zap.Int("deleted", res.Deleted),
			zap.Int("failed", res.Failed),
		)
	}

	return res
}

// Migrate retires a device's tracked identities after a provisional ID
// resolves to the real one. Any sources already registered under the old
// ID are deleted: their origin identity embeds the stale device ID, and
// the next reconciliation recreates them under the real identity.
func (r *Reconciler) Migrate(oldID, newID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if oldID == newID {
		return
	}
	prev, ok := r.prev[oldID]
	if !ok {
		return
	}
	delete(r.prev, oldID)

	for key := range prev {
		origin := registry.OriginID{DeviceID: oldID, ChannelKey: key}
		err := r.registry.DeleteSource(origin)
		logging.LogIntent(oldID, key, "delete", err)
	}
}

// Tracked returns how many origin identities the reconciler currently
// tracks for a device. Exposed for the control surface and tests.
func (r *Reconciler) Tracked(deviceID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prev[deviceID])
}

// displayName builds the registry display name for a channel, prefixed
// with the device name so sources from several tuners stay tellable apart.
func displayName(dev devices.Device, ch lineup.Channel) string {
	name := dev.FriendlyName
	if name == "" {
		name = dev.ID
	}
	return name + ": " + ch.Name + " (" + ch.Key + ")"
}
