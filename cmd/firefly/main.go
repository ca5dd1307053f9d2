// The firefly command runs the live operational graph engine: it ingests
// streamed trace telemetry, simulates the node/edge/particle state, and
// serves read-only frame snapshots to renderers.
package main

func main() {
	Execute()
}
