// Package x3dh derives the shared root key for a new session from a PreKey
// handshake, on either side of the exchange.
package x3dh
