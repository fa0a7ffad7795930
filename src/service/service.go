package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/dnaclient/dnaclient/src/app"
	"github.com/dnaclient/dnaclient/src/oracle"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Backend is what the service reports on.
type Backend interface {
	// AppState returns the current application machine.
	AppState() app.Machine
	// Votings returns the votings list of the current epoch, if there is one.
	Votings() (oracle.List, bool)
}

// Service is a read-only HTTP view of the client.
type Service struct {
	sync.Mutex

	bindAddress string
	backend     Backend
	mux         *http.ServeMux
	server      *http.Server
	logger      *logrus.Entry
}

// NewService creates a service reporting on backend. gatherer, if not nil, is
// exposed under /metrics.
func NewService(bindAddress string, backend Backend, gatherer prometheus.Gatherer, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		backend:     backend,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers(gatherer)

	service.server = &http.Server{Addr: bindAddress, Handler: service.mux}

	return &service
}

func (s *Service) registerHandlers(gatherer prometheus.Gatherer) {
	s.logger.Debug("Registering API handlers")
	s.mux.HandleFunc("/app", s.makeHandler(s.GetApp))
	s.mux.HandleFunc("/votings", s.makeHandler(s.GetVotings))
	if gatherer != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the service's handlers, for embedding in another server.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call that returns after
// Shutdown.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving API")

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error(err)
	}
}

// Shutdown stops Serve. A later Serve returns immediately.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// GetApp writes the application state and its context.
func (s *Service) GetApp(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(s.backend.AppState().View())
}

type votingsView struct {
	Epoch   int             `json:"epoch"`
	State   string          `json:"state"`
	Filter  oracle.Status   `json:"filter"`
	Votings []oracle.Voting `json:"votings"`
	Error   string          `json:"error,omitempty"`
}

// GetVotings writes the votings of the current epoch. The optional filter
// parameter selects a status; it defaults to the list's own filter.
func (s *Service) GetVotings(w http.ResponseWriter, r *http.Request) {
	list, ok := s.backend.Votings()
	if !ok {
		http.Error(w, "no epoch loaded", http.StatusServiceUnavailable)
		return
	}

	view := votingsView{
		Epoch:   list.Epoch,
		State:   list.Phase.String(),
		Filter:  list.Filter,
		Votings: list.Filtered,
		Error:   list.Error,
	}

	if param := r.URL.Query().Get("filter"); param != "" {
		status, ok := oracle.ParseStatus(param)
		if !ok {
			s.logger.WithField("filter", param).Error("Parsing filter parameter")

			http.Error(w, "unknown filter "+param, http.StatusBadRequest)

			return
		}
		view.Filter = status
		view.Votings = oracle.FilterVotings(list.Votings, status)
	}

	if view.Votings == nil {
		view.Votings = []oracle.Voting{}
	}

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(view)
}
