// Package oracle tracks oracle voting contracts through their client-side
// lifecycle: drafting and deploying a new voting, funding it, waiting for the
// transactions to be mined, and voting.
//
// Three machines cooperate. The List loads the votings of an epoch from the
// store and from the indexer and spawns one lifecycle Actor per voting. Each
// Actor persists its voting on every status-affecting transition and reports
// upward with Mined and Changed events. The Draft deploys a new voting
// contract and persists it so that the next List load picks it up.
//
// Every machine is split into a pure transition function and a runner that
// interprets the returned effects on a machine.Loop.
package oracle
