// Package machine is the actor runtime shared by the state machines of the
// client.
//
// A machine is a pure transition function plus a Loop. The Loop owns a
// mailbox and hands events to the machine one at a time. Background work,
// such as an RPC invocation or a poller, is started with Spawn and belongs to
// a scope: the dotted path of the state that started it. When the machine
// leaves a state, Retain cancels every activity whose scope is no longer
// active. Events emitted by an activity are tagged with the activity's token,
// and are dropped if the activity was cancelled or replaced in the meantime,
// so a late completion can never act on a state that has already been left.
package machine
