package app

import (
	"context"
	"reflect"
	"sync"

	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/poll"
	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/sirupsen/logrus"
)

// Runner drives the application machine: it feeds events to Transition on a
// machine.Loop and runs the resulting effects as scoped activities.
type Runner struct {
	loop   *machine.Loop
	node   rpc.Node
	poller *poll.SyncPoller

	mu        sync.RWMutex
	current   Machine
	observers []func(Machine)

	logger *logrus.Entry
}

// NewRunner creates a Runner in the Idle state.
func NewRunner(node rpc.Node, poller *poll.SyncPoller, metrics *machine.Metrics, logger *logrus.Entry) *Runner {
	return &Runner{
		loop:    machine.NewLoop("app", 0, metrics, logger),
		node:    node,
		poller:  poller,
		current: New(),
		logger:  logger,
	}
}

// OnChange registers f to be called, from the machine's goroutine, after each
// transition that changes the machine. It must be called before Run.
func (r *Runner) OnChange(f func(Machine)) {
	r.observers = append(r.observers, f)
}

// Run processes events until Stop is called.
func (r *Runner) Run() {
	r.loop.Run(r.handle)
}

// Stop ends Run and cancels every running activity.
func (r *Runner) Stop() {
	r.loop.Stop()
}

// Send delivers an event to the machine.
func (r *Runner) Send(ev machine.Event) bool {
	return r.loop.Send(ev)
}

// Current returns the current machine.
func (r *Runner) Current() Machine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Runner) handle(ev machine.Event) {
	prev := r.Current()
	next, effects := Transition(prev, ev)

	r.logFailure(ev)

	r.mu.Lock()
	r.current = next
	r.mu.Unlock()

	if next.State != prev.State || len(effects) > 0 {
		r.logger.WithFields(logrus.Fields{
			"from":  prev.State.String(),
			"to":    next.State.String(),
			"event": machine.EventName(ev),
		}).Debug("Runner.Transition")
		r.loop.Transitioned(next.State.String())
	}

	r.loop.Retain(machine.Scopes(next.State.String())...)

	for _, eff := range effects {
		r.exec(eff)
	}

	if !reflect.DeepEqual(prev, next) {
		for _, f := range r.observers {
			f(next)
		}
	}
}

func (r *Runner) logFailure(ev machine.Event) {
	var err error
	switch e := ev.(type) {
	case poll.Offline:
		err = e.Err
	case SyncFailed:
		err = e.Err
	case IdentityFailed:
		err = e.Err
	case ChainFailed:
		err = e.Err
	case TerminateFailed:
		err = e.Err
	default:
		return
	}
	r.logger.WithError(err).WithField("event", machine.EventName(ev)).Error("Runner")
}

func (r *Runner) exec(eff Effect) {
	switch e := eff.(type) {
	case FetchSync:
		r.loop.Spawn(e.Scope(), "fetchSync", func(ctx context.Context, emit func(machine.Event)) {
			sync, err := r.node.Syncing(ctx)
			if err != nil {
				emit(SyncFailed{Err: err})
				return
			}
			emit(SyncFetched{Sync: sync})
		})
	case FetchIdentity:
		r.loop.Spawn(e.Scope(), "fetchIdentity", func(ctx context.Context, emit func(machine.Event)) {
			id, err := r.node.Identity(ctx)
			if err != nil {
				emit(IdentityFailed{Err: err})
				return
			}
			emit(IdentityFetched{Identity: id})
		})
	case FetchChain:
		r.loop.Spawn(e.Scope(), "fetchChainState", func(ctx context.Context, emit func(machine.Event)) {
			snap, err := poll.FetchChainState(ctx, r.node, e.Sync)
			if err != nil {
				emit(ChainFailed{Err: err})
				return
			}
			emit(ChainFetched{Snapshot: snap})
		})
	case StartPoller:
		r.loop.Spawn(e.Scope(), "pollSyncState", func(ctx context.Context, emit func(machine.Event)) {
			r.poller.Run(ctx, e.PrevBlock, func(ev interface{}) { emit(ev) })
		})
	case SendTerminate:
		r.loop.Spawn(e.Scope(), "terminate", func(ctx context.Context, emit func(machine.Event)) {
			hash, err := r.node.SendTransaction(ctx, rpc.SendTxArgs{
				Type: rpc.TerminateTxType,
				From: e.From,
				To:   e.To,
			})
			if err != nil {
				emit(TerminateFailed{Err: err})
				return
			}
			emit(TerminateDone{Hash: hash})
		})
	}
}
