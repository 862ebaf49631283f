// Package testutil contains helpers shared by the package tests: fluent
// builders for events and sessions and a Harness that plays the runner's
// part (persisting emitted events and resuming the agent). Not intended for
// production usage.
package testutil
