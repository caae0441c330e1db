// Package types defines the core data model of the commit pipeline:
// ratchet state, canonical envelopes, commit results and escrow records.
package types
