// Package bridge connects presentation layers to the client through a WAMP
// router.
//
// The router publishes the application state on TopicApp and the votings of
// the current epoch on TopicVotings, each time they change. Commands are
// registered as procedures; they only enqueue events, so a successful call
// means the event was accepted, not that it produced a transition. Vote is
// the exception: it waits for the vote transaction to be accepted.
package bridge

import "github.com/gammazero/nexus/v3/wamp"

// Topics.
const (
	TopicApp     = "dnaclient.app"
	TopicVotings = "dnaclient.votings"
)

// Procedures.
const (
	ProcRetry      = "dnaclient.app.retry"
	ProcTerminate  = "dnaclient.app.terminate"
	ProcDisconnect = "dnaclient.app.disconnect"
	ProcReconnect  = "dnaclient.app.reconnect"
	ProcFilter     = "dnaclient.votings.filter"
	ProcReload     = "dnaclient.votings.reload"
	ProcFund       = "dnaclient.voting.fund"
	ProcPublish    = "dnaclient.voting.publish"
	ProcVote       = "dnaclient.voting.vote"
)

// Errors returned by procedures.
const (
	ErrInvalidArgument = wamp.URI("dnaclient.error.invalid_argument")
	ErrNotFound        = wamp.URI("dnaclient.error.not_found")
	ErrUnavailable     = wamp.URI("dnaclient.error.unavailable")
	ErrFailed          = wamp.URI("dnaclient.error.failed")
)
