package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dnaclient/dnaclient/src/app"
	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/oracle"
	"github.com/gammazero/nexus/v3/client"
	"github.com/gammazero/nexus/v3/router"
	"github.com/gammazero/nexus/v3/wamp"
	"github.com/sirupsen/logrus"
)

// Controller routes presentation-layer commands to the machines.
type Controller interface {
	// SendApp delivers an event to the application machine.
	SendApp(ev machine.Event) bool
	// SendVotings delivers an event to the votings list of the current epoch.
	SendVotings(ev machine.Event) bool
	// SendVoting delivers an event to the actor of the voting with the given
	// id. It returns false if there is no such voting.
	SendVoting(id string, ev machine.Event) bool
	// Vote casts option on a voting of the current epoch and returns once
	// the vote transaction was accepted.
	Vote(ctx context.Context, id, option string) error
}

// Bridge is a WAMP router that publishes the state of the machines and
// exposes commands as procedures. Presentation layers connect to it over
// websockets.
type Bridge struct {
	address    string
	realm      string
	router     router.Router
	local      *client.Client
	httpServer *http.Server
	ctrl       Controller
	logger     *logrus.Entry
}

// NewBridge creates the router and registers the procedures. Nothing is
// served until Serve is called.
func NewBridge(address string,
	realm string,
	ctrl Controller,
	logger *logrus.Entry) (*Bridge, error) {

	routerConfig := &router.Config{
		RealmConfigs: []*router.RealmConfig{
			&router.RealmConfig{
				URI:           wamp.URI(realm),
				AnonymousAuth: true,
			},
		},
	}

	nxr, err := router.NewRouter(routerConfig, logger)
	if err != nil {
		return nil, err
	}

	local, err := client.ConnectLocal(nxr, client.Config{
		Realm:  realm,
		Logger: logger,
	})
	if err != nil {
		nxr.Close()
		return nil, err
	}

	b := &Bridge{
		address: address,
		realm:   realm,
		router:  nxr,
		local:   local,
		httpServer: &http.Server{
			Handler: router.NewWebsocketServer(nxr),
			Addr:    address,
		},
		ctrl:   ctrl,
		logger: logger,
	}

	if err := b.register(); err != nil {
		b.Shutdown()
		return nil, err
	}

	return b, nil
}

func (b *Bridge) register() error {
	procedures := map[string]client.InvocationHandler{
		ProcRetry:      b.retry,
		ProcTerminate:  b.terminate,
		ProcFilter:     b.filter,
		ProcReload:     b.reload,
		ProcFund:       b.fund,
		ProcPublish:    b.publishVoting,
		ProcVote:       b.vote,
		ProcDisconnect: b.disconnect,
		ProcReconnect:  b.reconnect,
	}
	for name, fn := range procedures {
		if err := b.local.Register(name, fn, nil); err != nil {
			b.logger.WithError(err).WithField("procedure", name).Error("Failed to register procedure")
			return err
		}
	}
	b.logger.Debug("Registered procedures with router")
	return nil
}

// Serve runs the websocket server. This is a blocking call.
func (b *Bridge) Serve() error {
	b.logger.WithField("bind_address", b.address).Debug("Serving bridge")

	err := b.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		b.logger.WithError(err).Error("Serve")
		return err
	}
	return nil
}

// Shutdown stops the websocket server and the router.
func (b *Bridge) Shutdown() {
	defer b.router.Close()

	if err := b.local.Close(); err != nil {
		b.logger.WithError(err).Debug("Closing local client")
	}

	if err := b.httpServer.Shutdown(context.Background()); err != nil {
		b.logger.WithError(err).Error("Shutting down http server")
	}
}

// Router returns the underlying router, for in-process clients.
func (b *Bridge) Router() router.Router {
	return b.router
}

// Realm returns the realm of the router.
func (b *Bridge) Realm() string {
	return b.realm
}

// PublishApp publishes the view of m on TopicApp.
func (b *Bridge) PublishApp(m app.Machine) {
	b.publish(TopicApp, m.View())
}

// PublishVotings publishes l on TopicVotings.
func (b *Bridge) PublishVotings(l oracle.List) {
	b.publish(TopicVotings, votingsEvent{
		Epoch:    l.Epoch,
		State:    l.Phase.String(),
		Filter:   l.Filter,
		Votings:  l.Votings,
		Filtered: l.Filtered,
		Error:    l.Error,
	})
}

type votingsEvent struct {
	Epoch    int             `json:"epoch"`
	State    string          `json:"state"`
	Filter   oracle.Status   `json:"filter"`
	Votings  []oracle.Voting `json:"votings"`
	Filtered []oracle.Voting `json:"filteredVotings"`
	Error    string          `json:"error,omitempty"`
}

func (b *Bridge) publish(topic string, v interface{}) {
	dict, err := toDict(v)
	if err != nil {
		b.logger.WithError(err).WithField("topic", topic).Error("Encoding publication")
		return
	}
	if err := b.local.Publish(topic, nil, wamp.List{dict}, nil); err != nil {
		b.logger.WithError(err).WithField("topic", topic).Error("Publish")
	}
}

// toDict gives local and remote subscribers the same JSON shape.
func toDict(v interface{}) (wamp.Dict, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var dict wamp.Dict
	if err := json.Unmarshal(raw, &dict); err != nil {
		return nil, err
	}
	return dict, nil
}

/*******************************************************************************
Procedures
*******************************************************************************/

func (b *Bridge) retry(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	return b.deliver(b.ctrl.SendApp(app.Retry{}))
}

func (b *Bridge) terminate(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	to, err := stringArg(inv, 0)
	if err != nil {
		return errResult(ErrInvalidArgument, err.Error())
	}
	return b.deliver(b.ctrl.SendApp(app.TerminateIdentity{To: to}))
}

func (b *Bridge) filter(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	arg, err := stringArg(inv, 0)
	if err != nil {
		return errResult(ErrInvalidArgument, err.Error())
	}
	status, ok := oracle.ParseStatus(arg)
	if !ok {
		return errResult(ErrInvalidArgument, fmt.Sprintf("unknown filter %s", arg))
	}
	return b.deliver(b.ctrl.SendVotings(oracle.Filter{Status: status}))
}

func (b *Bridge) reload(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	return b.deliver(b.ctrl.SendVotings(oracle.Reload{}))
}

func (b *Bridge) fund(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	id, err := stringArg(inv, 0)
	if err != nil {
		return errResult(ErrInvalidArgument, err.Error())
	}
	raw, err := stringArg(inv, 1)
	if err != nil {
		return errResult(ErrInvalidArgument, err.Error())
	}
	amount, err := chain.ParseAmount(raw)
	if err != nil || amount.IsZero() {
		return errResult(ErrInvalidArgument, fmt.Sprintf("invalid amount %q", raw))
	}
	if !b.ctrl.SendVoting(id, oracle.AddFund{Amount: amount}) {
		return errResult(ErrNotFound, fmt.Sprintf("no voting %s", id))
	}
	return client.InvokeResult{}
}

func (b *Bridge) publishVoting(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	id, err := stringArg(inv, 0)
	if err != nil {
		return errResult(ErrInvalidArgument, err.Error())
	}
	if !b.ctrl.SendVoting(id, oracle.Publish{}) {
		return errResult(ErrNotFound, fmt.Sprintf("no voting %s", id))
	}
	return client.InvokeResult{}
}

func (b *Bridge) vote(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	id, err := stringArg(inv, 0)
	if err != nil {
		return errResult(ErrInvalidArgument, err.Error())
	}
	option, err := stringArg(inv, 1)
	if err != nil {
		return errResult(ErrInvalidArgument, err.Error())
	}
	if option != oracle.OptionConfirm && option != oracle.OptionReject {
		return errResult(ErrInvalidArgument, fmt.Sprintf("unknown option %s", option))
	}
	if err := b.ctrl.Vote(ctx, id, option); err != nil {
		b.logger.WithError(err).WithField("voting", id).Debug("Vote")
		return errResult(ErrFailed, err.Error())
	}
	return client.InvokeResult{}
}

func (b *Bridge) disconnect(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	return b.deliver(b.ctrl.SendApp(app.Disconnect{}))
}

func (b *Bridge) reconnect(ctx context.Context, inv *wamp.Invocation) client.InvokeResult {
	return b.deliver(b.ctrl.SendApp(app.Reconnect{}))
}

func (b *Bridge) deliver(ok bool) client.InvokeResult {
	if !ok {
		return errResult(ErrUnavailable, "machine not running")
	}
	return client.InvokeResult{}
}

func stringArg(inv *wamp.Invocation, i int) (string, error) {
	if len(inv.Arguments) <= i {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := wamp.AsString(inv.Arguments[i])
	if !ok {
		return "", fmt.Errorf("argument %d should be a string", i)
	}
	return s, nil
}

func errResult(uri wamp.URI, msg string) client.InvokeResult {
	return client.InvokeResult{
		Err:  uri,
		Args: wamp.List{msg},
	}
}
