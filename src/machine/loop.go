package machine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Event is anything a machine reacts to.
type Event interface{}

// Activity is background work owned by a scope. It must return when ctx is
// cancelled. emit delivers events to the owning machine; it never blocks
// after the Loop has stopped.
type Activity func(ctx context.Context, emit func(Event))

// DefaultMailboxSize is the mailbox capacity used when none is given.
const DefaultMailboxSize = 64

type envelope struct {
	key   string
	token uint64
	event Event
}

type activity struct {
	scope  string
	token  uint64
	cancel context.CancelFunc
}

// Loop is the mailbox of a machine. Events are processed one at a time by the
// handler passed to Run. Spawn and Retain must only be called from within the
// handler.
type Loop struct {
	name    string
	mailbox chan envelope

	acts      map[string]*activity
	nextToken uint64

	wg       sync.WaitGroup
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	started  chan struct{}

	metrics *Metrics
	logger  *logrus.Entry
}

// NewLoop creates a Loop. name labels logs and metrics.
func NewLoop(name string, mailboxSize int, metrics *Metrics, logger *logrus.Entry) *Loop {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}
	return &Loop{
		name:    name,
		mailbox: make(chan envelope, mailboxSize),
		acts:    make(map[string]*activity),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		started: make(chan struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// Name returns the name of the Loop.
func (l *Loop) Name() string {
	return l.name
}

// Send delivers an external event. It blocks while the mailbox is full and
// returns false if the Loop has stopped.
func (l *Loop) Send(ev Event) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.mailbox <- envelope{event: ev}:
		return true
	case <-l.quit:
		return false
	}
}

// Run processes events until Stop is called.
func (l *Loop) Run(handle func(Event)) {
	close(l.started)
	defer close(l.done)

	for {
		select {
		case env := <-l.mailbox:
			if env.key != "" {
				a, ok := l.acts[env.key]
				if !ok || a.token != env.token {
					l.logger.WithFields(logrus.Fields{
						"activity": env.key,
						"event":    EventName(env.event),
					}).Debug("Loop.Run stale event")
					l.metrics.staleEvent(l.name)
					continue
				}
			}
			handle(env.event)
		case <-l.quit:
			for key := range l.acts {
				l.cancel(key)
			}
			return
		}
	}
}

// Stop cancels every activity, ends Run and waits for the activities to
// return.
func (l *Loop) Stop() {
	l.quitOnce.Do(func() {
		close(l.quit)
	})
	select {
	case <-l.started:
		<-l.done
	default:
	}
	l.wg.Wait()
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Spawn starts fn as the activity called name in scope, replacing and
// cancelling any activity of the same name in that scope.
func (l *Loop) Spawn(scope, name string, fn Activity) {
	key := scope + "/" + name
	l.cancel(key)

	l.nextToken++
	token := l.nextToken

	ctx, cancel := context.WithCancel(context.Background())
	l.acts[key] = &activity{
		scope:  scope,
		token:  token,
		cancel: cancel,
	}

	emit := func(ev Event) {
		select {
		case l.mailbox <- envelope{key: key, token: token, event: ev}:
		case <-l.quit:
		case <-ctx.Done():
		}
	}

	l.metrics.activity(l.name, 1)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.metrics.activity(l.name, -1)
		defer cancel()
		fn(ctx, emit)
	}()
}

// Retain cancels every activity whose scope is not one of active.
func (l *Loop) Retain(active ...string) {
	keep := make(map[string]bool, len(active))
	for _, s := range active {
		keep[s] = true
	}
	for key, a := range l.acts {
		if !keep[a.scope] {
			l.cancel(key)
		}
	}
}

// Transitioned records a transition to state.
func (l *Loop) Transitioned(state string) {
	l.metrics.transition(l.name, state)
}

func (l *Loop) cancel(key string) {
	a, ok := l.acts[key]
	if !ok {
		return
	}
	a.cancel()
	delete(l.acts, key)
}

// EventName returns the type name of an event, for logs.
func EventName(ev Event) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", ev), "*")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
