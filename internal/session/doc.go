// Package session establishes ratchet sessions from PreKey handshakes.
package session
