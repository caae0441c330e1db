// Package crypto wraps the Curve25519 primitives shared by the ratchet and
// handshake packages.
package crypto
