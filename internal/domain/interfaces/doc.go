// Package interfaces declares the contracts between the commit pipeline and
// its injected collaborators: crypto, escrow, history, timeline and stores.
package interfaces
