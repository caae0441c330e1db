// Package commands contains the sentryd CLI subcommands.
package commands
