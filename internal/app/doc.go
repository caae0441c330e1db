// Package app loads configuration and wires the commit pipeline's
// dependency graph for the CLI.
package app
