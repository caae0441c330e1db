// Package gate provides the per-peer-device concurrency gate: lazily
// created, idle-reclaimed pairs of context-aware mutexes keyed by the typed
// (account digest, device id) composite.
package gate
