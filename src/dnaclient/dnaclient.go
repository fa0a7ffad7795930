package dnaclient

import (
	"context"
	"sync"
	"time"

	"github.com/dnaclient/dnaclient/src/app"
	"github.com/dnaclient/dnaclient/src/bridge"
	"github.com/dnaclient/dnaclient/src/chain"
	"github.com/dnaclient/dnaclient/src/config"
	"github.com/dnaclient/dnaclient/src/machine"
	"github.com/dnaclient/dnaclient/src/oracle"
	"github.com/dnaclient/dnaclient/src/poll"
	"github.com/dnaclient/dnaclient/src/rpc"
	"github.com/dnaclient/dnaclient/src/service"
	"github.com/dnaclient/dnaclient/src/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// DnaClient is the orchestration engine. It wires the node client, the
// epoch store, the pollers and the machines, and keeps one votings list for
// the current epoch.
type DnaClient struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Store    store.Store
	Node     rpc.Node
	Source   rpc.VotingSource
	App      *app.Runner
	Service  *service.Service
	Bridge   *bridge.Bridge

	rpcMetrics     *rpc.Metrics
	machineMetrics *machine.Metrics
	txPoller       *poll.TxPoller

	mu       sync.RWMutex
	list     *oracle.ListRunner
	shutdown bool

	logger *logrus.Entry
}

// NewDnaClient creates an engine with the given configuration. Node and
// Store may be set before Init to bypass the configured ones.
func NewDnaClient(conf *config.Config) *DnaClient {
	engine := &DnaClient{
		Config: conf,
		logger: conf.Logger(),
	}

	return engine
}

func (c *DnaClient) initMetrics() error {
	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.rpcMetrics = rpc.NewMetrics(c.Registry)
	c.machineMetrics = machine.NewMetrics(c.Registry)
	return nil
}

func (c *DnaClient) initStore() error {
	if c.Store != nil {
		return nil
	}

	if !c.Config.Store {
		c.Store = store.NewInmemStore()

		c.logger.Debug("created new in-mem store")
	} else {
		c.logger.WithField("path", c.Config.DatabaseDir).Debug("Attempting to load or create database")

		s, err := store.NewBadgerStore(c.Config.DatabaseDir, c.logger)
		if err != nil {
			return err
		}

		c.Store = s

		c.logger.WithField("path", s.StorePath()).Debug("Loaded database")
	}

	return nil
}

func (c *DnaClient) initNode() error {
	if c.Node == nil {
		client := rpc.NewClient(
			c.Config.NodeAddr,
			c.Config.NodeKey,
			c.Config.NodeTimeout,
			c.Config.RateLimit,
			c.Config.RateBurst,
			c.rpcMetrics,
			c.logger.WithField("component", "rpc"),
		)

		c.Node = rpc.NewAPI(client)
	}

	if c.Source == nil && c.Config.IndexerURL != "" {
		c.Source = rpc.NewIndexer(
			c.Config.IndexerURL,
			c.Config.IndexerLimit,
			c.Config.NodeTimeout,
			c.rpcMetrics,
			c.logger.WithField("component", "indexer"),
		)
	}

	c.logger.WithFields(logrus.Fields{
		"node":    c.Config.NodeAddr,
		"indexer": c.Config.IndexerURL,
	}).Debug("NODE")

	return nil
}

func (c *DnaClient) initApp() error {
	syncPoller := poll.NewSyncPoller(
		c.Node,
		c.Config.SyncInterval,
		poll.RealTimer,
		c.logger.WithField("component", "sync"),
	)

	c.txPoller = poll.NewTxPoller(
		c.Node,
		c.Config.TxInterval,
		poll.RealTimer,
		c.logger.WithField("component", "tx"),
	)

	c.App = app.NewRunner(
		c.Node,
		syncPoller,
		c.machineMetrics,
		c.logger.WithField("component", "app"),
	)

	c.App.OnChange(c.onAppChange)

	return nil
}

func (c *DnaClient) initService() error {
	if !c.Config.NoService {
		c.Service = service.NewService(
			c.Config.ServiceAddr,
			c,
			c.Registry,
			c.logger.WithField("component", "service"),
		)
	}
	return nil
}

func (c *DnaClient) initBridge() error {
	if c.Config.NoBridge {
		return nil
	}

	b, err := bridge.NewBridge(
		c.Config.BridgeAddr,
		c.Config.BridgeRealm,
		c,
		c.logger.WithField("component", "bridge"),
	)
	if err != nil {
		return err
	}

	c.Bridge = b

	return nil
}

// Init builds every component from the configuration.
func (c *DnaClient) Init() error {
	if err := c.initMetrics(); err != nil {
		return err
	}

	if err := c.initStore(); err != nil {
		return err
	}

	if err := c.initNode(); err != nil {
		return err
	}

	if err := c.initApp(); err != nil {
		return err
	}

	if err := c.initService(); err != nil {
		return err
	}

	if err := c.initBridge(); err != nil {
		return err
	}

	return nil
}

// Deps returns the collaborators of the oracle machines.
func (c *DnaClient) Deps() oracle.Deps {
	return oracle.Deps{
		Node:     c.Node,
		Store:    c.Store,
		TxPoller: c.txPoller,
		Metrics:  c.machineMetrics,
		Deposit:  chain.NewAmount(c.Config.VoteDeposit),
		Logger:   c.logger.WithField("component", "oracle"),
	}
}

// Run connects to the node and processes events until Shutdown is called.
func (c *DnaClient) Run() {
	if c.Service != nil {
		go c.Service.Serve()
	}

	if c.Bridge != nil {
		go c.Bridge.Serve()
	}

	c.App.Send(app.Connect{})
	c.App.Run()
}

// Shutdown stops the machines and the servers, then closes the store.
func (c *DnaClient) Shutdown() {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return
	}
	c.shutdown = true
	c.mu.Unlock()

	c.logger.Debug("Shutdown")

	c.App.Stop()

	c.mu.Lock()
	list := c.list
	c.list = nil
	c.mu.Unlock()

	if list != nil {
		list.Stop()
	}

	if c.Service != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.Service.Shutdown(ctx); err != nil {
			c.logger.WithError(err).Error("Shutting down service")
		}
		cancel()
	}

	if c.Bridge != nil {
		c.Bridge.Shutdown()
	}

	if err := c.Store.Close(); err != nil {
		c.logger.WithError(err).Error("Closing store")
	}
}

// onAppChange runs on the app machine's goroutine. It starts a new votings
// list whenever the epoch changes.
func (c *DnaClient) onAppChange(m app.Machine) {
	if c.Bridge != nil {
		c.Bridge.PublishApp(m)
	}

	if m.Context.Epoch == nil {
		return
	}
	epoch := m.Context.Epoch.Epoch

	c.mu.Lock()
	if c.shutdown || (c.list != nil && c.list.Epoch() == epoch) {
		c.mu.Unlock()
		return
	}
	old := c.list
	list := oracle.NewListRunner(epoch, c.Source, c.Deps())
	if c.Bridge != nil {
		list.OnChange(c.Bridge.PublishVotings)
	}
	c.list = list
	c.mu.Unlock()

	if old != nil {
		c.logger.WithFields(logrus.Fields{
			"from": old.Epoch(),
			"to":   epoch,
		}).Debug("New epoch")
		old.Stop()
	}

	list.Start()
}

/*******************************************************************************
service.Backend and bridge.Controller
*******************************************************************************/

// Votings returns the votings list of the current epoch.
func (c *DnaClient) Votings() (oracle.List, bool) {
	list := c.currentList()
	if list == nil {
		return oracle.List{}, false
	}
	return list.Current(), true
}

// AppState returns the current application machine.
func (c *DnaClient) AppState() app.Machine {
	return c.App.Current()
}

// SendApp delivers an event to the application machine.
func (c *DnaClient) SendApp(ev machine.Event) bool {
	return c.App.Send(ev)
}

// SendVotings delivers an event to the votings list of the current epoch.
func (c *DnaClient) SendVotings(ev machine.Event) bool {
	list := c.currentList()
	if list == nil {
		return false
	}
	return list.Send(ev)
}

// SendVoting delivers an event to the actor of a voting of the current
// epoch.
func (c *DnaClient) SendVoting(id string, ev machine.Event) bool {
	list := c.currentList()
	if list == nil {
		return false
	}
	actor, ok := list.Child(id)
	if !ok {
		return false
	}
	return actor.Send(ev)
}

func (c *DnaClient) currentList() *oracle.ListRunner {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.list
}
