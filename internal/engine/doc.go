// Package engine is the discovery and lineup synchronization core: it keeps
// the set of known tuners, fetches their channel lineups, and reconciles
// the results against the source registry.
//
// # Components
//
//   - Reconciler: computes and applies the create/update/delete delta
//     between a device's current lineup and the sources previously
//     registered for it. Idempotent; tracking state advances only for
//     intents that succeed, so failures retry on the next cycle.
//   - Scheduler: runs reconciliation passes, periodically and on demand.
//     All passes execute on the single Run goroutine, which is the run-lock:
//     at most one pass is ever in flight. Manual triggers arriving during a
//     pass coalesce into exactly one follow-up pass.
//   - Listener: consumes discovery found/lost events, maintains the device
//     store, and requests an immediate sync for newly found devices.
//
// # Failure Isolation
//
// No failure from one device may abort work on another: a fetch failure
// skips that device for the cycle, and a failed registry intent is retried
// on the next cycle. Nothing in this package is fatal to the host process.
package engine
