package oracle

import (
	"context"
	"reflect"
	"sync"

	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/sirupsen/logrus"
)

// ListRunner drives a voting list machine and owns the actors of its
// votings. Children live as long as the list, or until the next load
// replaces them.
type ListRunner struct {
	loop   *machine.Loop
	deps   Deps
	source rpc.VotingSource

	mu        sync.RWMutex
	current   List
	children  map[string]*Actor
	observers []func(List)

	// generation of the current children, owned by the loop
	generation int
	retired    sync.WaitGroup
	logger     *logrus.Entry
}

// childEvent is an event a child sent to the list, tagged with the
// generation of children it belongs to.
type childEvent struct {
	generation int
	ev         machine.Event
}

// NewListRunner creates the list of the votings of epoch. source may be nil.
func NewListRunner(epoch int, source rpc.VotingSource, deps Deps) *ListRunner {
	logger := deps.Logger.WithField("epoch", epoch)
	return &ListRunner{
		loop:     machine.NewLoop("votings", 0, deps.Metrics, logger),
		deps:     deps,
		source:   source,
		current:  NewList(epoch),
		children: make(map[string]*Actor),
		logger:   logger,
	}
}

// OnChange registers f to be called after each transition that changes the
// list. It must be called before Start.
func (r *ListRunner) OnChange(f func(List)) {
	r.observers = append(r.observers, f)
}

// Start runs the list in its own goroutine.
func (r *ListRunner) Start() {
	go r.loop.Run(r.handle)
	r.loop.Send(start{})
}

// Stop ends the list, then its children.
func (r *ListRunner) Stop() {
	r.loop.Stop()

	r.mu.Lock()
	children := r.children
	r.children = make(map[string]*Actor)
	r.mu.Unlock()

	for _, c := range children {
		c.Stop()
	}
	r.retired.Wait()
}

// Send delivers an event to the list.
func (r *ListRunner) Send(ev machine.Event) bool {
	return r.loop.Send(ev)
}

// Current returns the current state of the list.
func (r *ListRunner) Current() List {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Epoch returns the epoch of the list.
func (r *ListRunner) Epoch() int {
	return r.Current().Epoch
}

// Child returns the actor of the voting with the given id.
func (r *ListRunner) Child(id string) (*Actor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.children[id]
	return a, ok
}

func (r *ListRunner) handle(ev machine.Event) {
	prev := r.Current()

	var (
		next    List
		effects []Effect
	)
	if c, ok := ev.(childEvent); ok {
		if c.generation != r.generation {
			r.logger.WithField("event", machine.EventName(c.ev)).Debug("ListRunner dropped event of a retired child")
			return
		}
		ev = c.ev
	}

	if _, ok := ev.(start); ok {
		next, effects = prev, EnterList(prev)
	} else {
		next, effects = TransitionList(prev, ev)
	}

	r.mu.Lock()
	r.current = next
	r.mu.Unlock()

	if next.Phase != prev.Phase {
		r.logger.WithFields(logrus.Fields{
			"from":  prev.Phase.String(),
			"to":    next.Phase.String(),
			"event": machine.EventName(ev),
		}).Debug("ListRunner.Transition")
		r.loop.Transitioned(next.Phase.String())
	}

	if e, ok := ev.(VotingsLoadFailed); ok {
		r.logger.WithError(e.Err).Error("ListRunner.Load")
	}

	r.loop.Retain(next.Phase.String())

	for _, eff := range effects {
		r.exec(eff)
	}

	if !reflect.DeepEqual(prev, next) {
		for _, f := range r.observers {
			f(next)
		}
	}
}

func (r *ListRunner) exec(eff Effect) {
	switch e := eff.(type) {
	case LoadVotings:
		r.loop.Spawn(ListLoading.String(), "loadVotings", func(ctx context.Context, emit func(machine.Event)) {
			votings, err := LoadEpochVotings(ctx, r.deps.Store, r.source, e.Epoch)
			if err != nil {
				emit(VotingsLoadFailed{Err: err})
				return
			}
			emit(VotingsLoaded{Votings: votings})
		})
	case SpawnChildren:
		r.generation++
		notify := r.notifier(r.generation)

		children := make(map[string]*Actor, len(e.Votings))
		for _, v := range e.Votings {
			a := NewActor(v, r.deps, notify)
			children[v.ID] = a
		}

		r.mu.Lock()
		old := r.children
		r.children = children
		r.mu.Unlock()

		r.retire(old)

		for _, a := range children {
			a.Start()
		}
	}
}

// notifier returns the function children of generation use to forward
// their events. It does not block once the list has stopped.
func (r *ListRunner) notifier(generation int) func(machine.Event) {
	return func(ev machine.Event) {
		r.loop.Send(childEvent{generation: generation, ev: ev})
	}
}

// retire stops replaced children without blocking the list's loop.
func (r *ListRunner) retire(children map[string]*Actor) {
	if len(children) == 0 {
		return
	}
	r.retired.Add(1)
	go func() {
		defer r.retired.Done()
		for _, c := range children {
			c.Stop()
		}
	}()
}
