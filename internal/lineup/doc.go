// Package lineup fetches channel lineups and identity documents from
// HDHomeRun tuners over HTTP.
//
// Devices expose two JSON documents:
//   - GET /discover.json: device identity (DeviceID, FriendlyName, model)
//   - GET /lineup.json: the current channel list (guide number, name, URL)
//
// # Fetch Contract
//
// Every request carries a bounded timeout so a slow device can never stall
// a reconciliation pass. Failures are classified into a FetchError with one
// of three kinds:
//   - Unreachable: the device could not be contacted
//   - Timeout: the request exceeded its deadline
//   - MalformedResponse: the body was not a valid document
//
// A device failing a fetch is skipped for that cycle only; previously
// registered sources are left untouched.
//
// # Normalization
//
// Lineup entries without a stream URL are dropped. Duplicate guide numbers
// within a single response resolve last-write-wins.
package lineup
