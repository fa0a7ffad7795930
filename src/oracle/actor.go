package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/dnaclient/dnaclient/src/store"
	"github.com/sirupsen/logrus"
)

type start struct{}

// Actor runs the lifecycle machine of one voting.
type Actor struct {
	loop   *machine.Loop
	deps   Deps
	table  store.Table
	notify func(machine.Event)

	mu        sync.RWMutex
	current   Lifecycle
	observers []func(Lifecycle)

	logger *logrus.Entry
}

// NewActor creates the actor of a voting loaded by a list. notify receives
// the Mined and Changed events meant for the parent.
func NewActor(v Voting, deps Deps, notify func(machine.Event)) *Actor {
	return newActor(NewLifecycle(v), deps, notify)
}

// NewViewActor creates a standalone actor that loads the voting with the
// given id from the store of epoch.
func NewViewActor(id string, epoch int, deps Deps) *Actor {
	return newActor(NewViewLifecycle(id, epoch), deps, nil)
}

func newActor(l Lifecycle, deps Deps, notify func(machine.Event)) *Actor {
	logger := deps.Logger.WithField("voting", l.Voting.ID)
	return &Actor{
		loop:    machine.NewLoop("voting", 0, deps.Metrics, logger),
		deps:    deps,
		table:   deps.Store.Table(Table, l.Voting.Epoch),
		notify:  notify,
		current: l,
		logger:  logger,
	}
}

// OnChange registers f to be called after each transition that changes the
// machine. It must be called before Start.
func (a *Actor) OnChange(f func(Lifecycle)) {
	a.observers = append(a.observers, f)
}

// Start runs the actor in its own goroutine.
func (a *Actor) Start() {
	go a.loop.Run(a.handle)
	a.loop.Send(start{})
}

// Stop ends the actor and cancels its activities.
func (a *Actor) Stop() {
	a.loop.Stop()
}

// Send delivers an event to the actor.
func (a *Actor) Send(ev machine.Event) bool {
	return a.loop.Send(ev)
}

// Current returns the current state of the machine.
func (a *Actor) Current() Lifecycle {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

func (a *Actor) handle(ev machine.Event) {
	prev := a.Current()

	var (
		next    Lifecycle
		effects []Effect
	)
	if _, ok := ev.(start); ok {
		next, effects = prev, Enter(prev)
	} else {
		next, effects = Transition(prev, ev)
	}

	a.mu.Lock()
	a.current = next
	a.mu.Unlock()

	if next.Phase != prev.Phase {
		a.logger.WithFields(logrus.Fields{
			"from":  prev.Phase.String(),
			"to":    next.Phase.String(),
			"event": machine.EventName(ev),
		}).Debug("Actor.Transition")
		a.loop.Transitioned(next.Phase.String())
	}

	a.loop.Retain(machine.Scopes(next.Phase.String())...)

	for _, eff := range effects {
		a.exec(eff)
	}

	if next != prev {
		if a.notify != nil {
			a.notify(Changed{Voting: next.Voting})
		}
		for _, f := range a.observers {
			f(next)
		}
	}
}

func (a *Actor) exec(eff Effect) {
	switch e := eff.(type) {
	case Persist:
		// runs inline so the store is up to date before the next event
		if err := a.table.Put(e.Voting.ID, e.Voting); err != nil {
			a.logger.WithError(err).Error("Actor.Persist")
		}
	case NotifyMined:
		if a.notify != nil {
			a.notify(Mined{ID: e.ID})
		}
	case LoadVoting:
		a.loop.Spawn(PhaseLoading.String(), "loadVoting", func(ctx context.Context, emit func(machine.Event)) {
			var v Voting
			if err := a.table.Get(e.ID, &v); err != nil {
				emit(VotingLoadFailed{Err: err})
				return
			}
			emit(VotingLoaded{Voting: v})
		})
	case SubmitFund:
		a.loop.Spawn(PhaseFundSubmitting.String(), "addFund", func(ctx context.Context, emit func(machine.Event)) {
			hash, err := a.deps.Node.SendTransaction(ctx, rpc.SendTxArgs{
				From:   e.From,
				To:     e.To,
				Amount: e.Amount,
			})
			if err != nil {
				emit(FundFailed{Err: err})
				return
			}
			emit(FundDone{Hash: hash})
		})
	case PollTx:
		a.loop.Spawn(e.In.String(), "pollStatus", func(ctx context.Context, emit func(machine.Event)) {
			a.deps.TxPoller.Run(ctx, e.Hash, func(ev interface{}) { emit(ev) })
		})
	case SendVote:
		a.loop.Spawn(PhaseVoting.String(), "vote", func(ctx context.Context, emit func(machine.Event)) {
			flag := "0"
			if e.Option == OptionConfirm {
				flag = "1"
			}
			hash, err := a.deps.Node.CallContract(ctx, rpc.CallArgs{
				From:     e.From,
				Contract: e.Contract,
				Method:   "sendVote",
				Amount:   a.deps.deposit(e.Deposit),
				Args: []rpc.ContractArg{
					{Index: 0, Format: "byte", Value: flag},
					{Index: 1, Format: "hex", Value: "0x1"},
				},
			})
			if err != nil {
				emit(VoteFailed{Err: err})
				return
			}
			emit(VoteDone{Hash: hash})
		})
	default:
		a.logger.WithField("effect", fmt.Sprintf("%T", eff)).Error("Actor.exec unknown effect")
	}
}
