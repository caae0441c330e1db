// Package store provides the persistence layer of the commit pipeline.
//
// It contains concrete implementations of the domain storage interfaces:
//   - Live ratchet state registry with snapshot/restore (StateRegistry)
//   - Passphrase-encrypted ratchet snapshots on disk (SnapshotFileStore)
//   - Identity and prekey pairs (KeyFileStore)
//   - Durable key escrow and sequence cursors in BadgerDB (BadgerVault)
//
// All stores are concurrency-safe via internal locking; the ordering of
// ratchet mutations themselves is the ConcurrencyGate's job.
package store
