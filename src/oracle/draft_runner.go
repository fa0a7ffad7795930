package oracle

import (
	"context"
	"sync"

	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/sirupsen/logrus"
)

// DraftRunner drives a new-voting draft machine.
type DraftRunner struct {
	loop *machine.Loop
	deps Deps

	mu        sync.RWMutex
	current   Draft
	observers []func(Draft)

	logger *logrus.Entry
}

// NewDraftRunner creates a draft for a voting issued by from in epoch.
func NewDraftRunner(epoch int, from string, deps Deps) *DraftRunner {
	logger := deps.Logger.WithField("draft", from)
	return &DraftRunner{
		loop:    machine.NewLoop("draft", 0, deps.Metrics, logger),
		deps:    deps,
		current: NewDraft(epoch, from),
		logger:  logger,
	}
}

// OnChange registers f to be called after each transition that changes the
// draft. It must be called before Start.
func (r *DraftRunner) OnChange(f func(Draft)) {
	r.observers = append(r.observers, f)
}

// Start runs the draft in its own goroutine.
func (r *DraftRunner) Start() {
	go r.loop.Run(r.handle)
}

// Stop ends the draft and cancels its activities.
func (r *DraftRunner) Stop() {
	r.loop.Stop()
}

// Send delivers an event to the draft.
func (r *DraftRunner) Send(ev machine.Event) bool {
	return r.loop.Send(ev)
}

// Current returns the current state of the draft.
func (r *DraftRunner) Current() Draft {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *DraftRunner) handle(ev machine.Event) {
	prev := r.Current()
	next, effects := TransitionDraft(prev, ev)

	r.mu.Lock()
	r.current = next
	r.mu.Unlock()

	if next.Phase != prev.Phase {
		fields := logrus.Fields{
			"from":  prev.Phase.String(),
			"to":    next.Phase.String(),
			"event": machine.EventName(ev),
		}
		if next.Phase == DraftFailed {
			r.logger.WithFields(fields).WithField("error", next.Error).Error("DraftRunner.Transition")
		} else {
			r.logger.WithFields(fields).Debug("DraftRunner.Transition")
		}
		r.loop.Transitioned(next.Phase.String())
	}

	r.loop.Retain(machine.Scopes(next.Phase.String())...)

	for _, eff := range effects {
		r.exec(eff)
	}

	if next != prev {
		for _, f := range r.observers {
			f(next)
		}
	}
}

func (r *DraftRunner) exec(eff Effect) {
	switch e := eff.(type) {
	case Estimate:
		r.loop.Spawn(DraftEstimating.String(), "estimateDeployContract", func(ctx context.Context, emit func(machine.Event)) {
			est, err := r.deps.Node.EstimateDeployContract(ctx, e.Args)
			if err != nil {
				emit(EstimateFailed{Err: err})
				return
			}
			emit(Estimated{Estimate: est})
		})
	case Deploy:
		r.loop.Spawn(DraftDeploying.String(), "deployContract", func(ctx context.Context, emit func(machine.Event)) {
			hash, err := r.deps.Node.DeployContract(ctx, e.Args)
			if err != nil {
				emit(DeployFailed{Err: err})
				return
			}

			v := e.Voting
			v.TxHash = hash
			if err := r.deps.Store.Table(Table, v.Epoch).Put(v.ID, v); err != nil {
				emit(DeployFailed{Err: err})
				return
			}

			emit(Deployed{Hash: hash})
		})
	}
}
