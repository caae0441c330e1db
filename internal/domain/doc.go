// Package domain re-exports the data model and adapter interfaces of the
// commit pipeline under one import path.
package domain
