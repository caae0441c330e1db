// Package commit implements the incoming-message commit pipeline.
//
// An envelope counts as committed only once its message key is durably
// escrowed; chain keys cannot be re-derived once advanced, so every decrypt
// is bracketed by a snapshot and, on escrow failure, a restore. Sequence
// gaps fail closed: missing predecessors are backfilled synchronously in
// ascending order or the whole operation aborts retryably. Two per-peer-
// device lock domains (incoming-order, state-access) serialize everything
// that touches one ratchet.
package commit
