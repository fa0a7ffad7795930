package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dnaclient/dnaclient/src/app"
	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/common"
	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/oracle"
	"github.com/gammazero/nexus/v3/client"
	"github.com/gammazero/nexus/v3/wamp"
)

type sent struct {
	target string
	id     string
	ev     machine.Event
	option string
}

type fakeController struct {
	sync.Mutex
	events  []sent
	votings map[string]bool
	stopped bool
}

func (c *fakeController) record(s sent) bool {
	c.Lock()
	defer c.Unlock()
	if c.stopped {
		return false
	}
	c.events = append(c.events, s)
	return true
}

func (c *fakeController) SendApp(ev machine.Event) bool {
	return c.record(sent{target: "app", ev: ev})
}

func (c *fakeController) SendVotings(ev machine.Event) bool {
	return c.record(sent{target: "votings", ev: ev})
}

func (c *fakeController) SendVoting(id string, ev machine.Event) bool {
	if !c.votings[id] {
		return false
	}
	return c.record(sent{target: "voting", id: id, ev: ev})
}

func (c *fakeController) Vote(ctx context.Context, id, option string) error {
	if !c.votings[id] {
		return errors.New("voting not found")
	}
	c.record(sent{target: "vote", id: id, option: option})
	return nil
}

func (c *fakeController) last() sent {
	c.Lock()
	defer c.Unlock()
	if len(c.events) == 0 {
		return sent{}
	}
	return c.events[len(c.events)-1]
}

func newTestBridge(t *testing.T, ctrl Controller) (*Bridge, *client.Client) {
	b, err := NewBridge("", "test", ctrl, common.NewTestEntry(t))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(b.Shutdown)

	cli, err := client.ConnectLocal(b.Router(), client.Config{
		Realm:  b.Realm(),
		Logger: common.NewTestEntry(t),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cli.Close() })

	return b, cli
}

func call(cli *client.Client, proc string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := cli.Call(ctx, proc, nil, wamp.List(args), nil, nil)
	return err
}

func TestBridgeProcedures(t *testing.T) {
	ctrl := &fakeController{votings: map[string]bool{"0x1": true}}
	_, cli := newTestBridge(t, ctrl)

	if err := call(cli, ProcRetry); err != nil {
		t.Fatal(err)
	}
	if s := ctrl.last(); s.target != "app" || s.ev != (app.Retry{}) {
		t.Fatalf("retry should reach the app, got %+v", s)
	}

	if err := call(cli, ProcTerminate, "0xabc"); err != nil {
		t.Fatal(err)
	}
	if s := ctrl.last(); s.ev != (app.TerminateIdentity{To: "0xabc"}) {
		t.Fatalf("terminate should carry the recipient, got %+v", s)
	}

	if err := call(cli, ProcFilter, "Mining"); err != nil {
		t.Fatal(err)
	}
	if s := ctrl.last(); s.target != "votings" || s.ev != (oracle.Filter{Status: oracle.Mining}) {
		t.Fatalf("filter should reach the list, got %+v", s)
	}

	if err := call(cli, ProcReload); err != nil {
		t.Fatal(err)
	}
	if s := ctrl.last(); s.ev != (oracle.Reload{}) {
		t.Fatalf("reload should reach the list, got %+v", s)
	}

	if err := call(cli, ProcFund, "0x1", "12.50"); err != nil {
		t.Fatal(err)
	}
	s := ctrl.last()
	if s.target != "voting" || s.id != "0x1" {
		t.Fatalf("fund should reach voting 0x1, got %+v", s)
	}
	if fund, ok := s.ev.(oracle.AddFund); !ok || fund.Amount != chain.Amount("12.5") {
		t.Fatalf("fund should carry 12.5, got %+v", s.ev)
	}

	if err := call(cli, ProcPublish, "0x1"); err != nil {
		t.Fatal(err)
	}
	if s := ctrl.last(); s.target != "voting" || s.id != "0x1" || s.ev != (oracle.Publish{}) {
		t.Fatalf("publish should resubmit voting 0x1, got %+v", s)
	}

	if err := call(cli, ProcDisconnect); err != nil {
		t.Fatal(err)
	}
	if s := ctrl.last(); s.target != "app" || s.ev != (app.Disconnect{}) {
		t.Fatalf("disconnect should reach the app, got %+v", s)
	}

	if err := call(cli, ProcReconnect); err != nil {
		t.Fatal(err)
	}
	if s := ctrl.last(); s.target != "app" || s.ev != (app.Reconnect{}) {
		t.Fatalf("reconnect should reach the app, got %+v", s)
	}

	if err := call(cli, ProcVote, "0x1", oracle.OptionReject); err != nil {
		t.Fatal(err)
	}
	if s := ctrl.last(); s.target != "vote" || s.id != "0x1" || s.option != oracle.OptionReject {
		t.Fatalf("vote should carry the option, got %+v", s)
	}
}

func TestBridgeProcedureErrors(t *testing.T) {
	ctrl := &fakeController{votings: map[string]bool{"0x1": true}}
	_, cli := newTestBridge(t, ctrl)

	cases := []struct {
		proc string
		args []interface{}
		uri  wamp.URI
	}{
		{ProcFilter, nil, ErrInvalidArgument},
		{ProcFilter, []interface{}{"bogus"}, ErrInvalidArgument},
		{ProcTerminate, []interface{}{42}, ErrInvalidArgument},
		{ProcFund, []interface{}{"0x1", "abc"}, ErrInvalidArgument},
		{ProcFund, []interface{}{"0x1", "0"}, ErrInvalidArgument},
		{ProcFund, []interface{}{"0x2", "10"}, ErrNotFound},
		{ProcPublish, nil, ErrInvalidArgument},
		{ProcPublish, []interface{}{"0x2"}, ErrNotFound},
		{ProcVote, []interface{}{"0x1"}, ErrInvalidArgument},
		{ProcVote, []interface{}{"0x1", "maybe"}, ErrInvalidArgument},
		{ProcVote, []interface{}{"0x2", oracle.OptionConfirm}, ErrFailed},
	}

	for _, c := range cases {
		err := call(cli, c.proc, c.args...)
		if err == nil || !strings.Contains(err.Error(), string(c.uri)) {
			t.Fatalf("%s %v should fail with %s, got %v", c.proc, c.args, c.uri, err)
		}
	}

	ctrl.Lock()
	ctrl.stopped = true
	ctrl.Unlock()

	err := call(cli, ProcRetry)
	if err == nil || !strings.Contains(err.Error(), string(ErrUnavailable)) {
		t.Fatalf("retry on a stopped machine should fail with %s, got %v", ErrUnavailable, err)
	}
}

func TestBridgePublish(t *testing.T) {
	b, cli := newTestBridge(t, &fakeController{})

	events := make(chan wamp.Dict, 4)
	handler := func(ev *wamp.Event) {
		if len(ev.Arguments) == 0 {
			return
		}
		if dict, ok := wamp.AsDict(ev.Arguments[0]); ok {
			events <- dict
		}
	}
	if err := cli.Subscribe(TopicApp, handler, nil); err != nil {
		t.Fatal(err)
	}
	if err := cli.Subscribe(TopicVotings, handler, nil); err != nil {
		t.Fatal(err)
	}

	m := app.New()
	m.State = app.Offline
	m.Context.LastError = "node unreachable"
	b.PublishApp(m)

	select {
	case dict := <-events:
		if dict["state"] != app.Offline.String() {
			t.Fatalf("app state should be %s, got %v", app.Offline, dict["state"])
		}
	case <-time.After(time.Second):
		t.Fatal("app state was not published")
	}

	list := oracle.NewList(3)
	list.Phase = oracle.ListLoaded
	list.Votings = []oracle.Voting{{ID: "0x1", Status: oracle.Pending}}
	list.Filtered = list.Votings
	b.PublishVotings(list)

	select {
	case dict := <-events:
		if dict["state"] != oracle.ListLoaded.String() {
			t.Fatalf("list state should be %s, got %v", oracle.ListLoaded, dict["state"])
		}
		votings, ok := wamp.AsList(dict["votings"])
		if !ok || len(votings) != 1 {
			t.Fatalf("one voting should be published, got %v", dict["votings"])
		}
	case <-time.After(time.Second):
		t.Fatal("votings were not published")
	}
}
