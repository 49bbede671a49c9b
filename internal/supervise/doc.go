// Package supervise coordinates the long-running launcher process.
//
// It wires configuration, logging, and the pidfile protocol into a single
// lifecycle: claim the instance slot, record the pid, run the configured
// payload (or idle), re-verify the claim on a heartbeat, and surrender the
// slot on shutdown. Identity enforcement and terminal detachment happen in
// the CLI layer before this package runs; keep orchestration logic here.
package supervise
