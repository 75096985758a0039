// Package version identifies the service in logs, traces, and the CLI.
package version

const (
	Name    = "voltvault"
	Version = "0.1.0"
)
