// Package ratchet implements the Double Ratchet key schedule used by the
// commit pipeline.
//
// Unlike the usual formulation, Decrypt returns the derived message key and
// any skipped keys as values (domain.DecryptResult) instead of handing them
// to callbacks: the committer alone decides whether they are escrowed, and
// a failed escrow is undone via the caller's pre-decrypt snapshot.
package ratchet
