// Package cmd implements the dobs command-line interface. It drives observable
// lists from many goroutines to show the ownership model at work and to
// measure it.
//
// The package is organized into several subpackages:
//
//   - watch: Runs a list on the main goroutine and prints every change record
//   - perf: Benchmarks list operations under concurrent load
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set through the environment with the DOBS_ prefix,
// e.g. DOBS_LOG_LEVEL=debug. Values in .env and .env.local are loaded first.
//
// See dobs -help for a list of all commands.
package cmd
