// Package poll implements the periodic node checks that feed the state
// machines: the sync/identity poller, which reports new blocks together with
// a fresh chain snapshot, and the transaction confirmation poller, which
// reports when a submitted transaction leaves the mempool.
//
// Pollers are long-running activities. They run until their context is
// cancelled, or until they emit a terminal event, and report through an emit
// callback supplied by the owning machine.
package poll
