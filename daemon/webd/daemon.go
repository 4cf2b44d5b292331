// Package webd serves the analytics queries over HTTP.
package webd

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"

	"github.com/tracklife/trajd/api"
	"github.com/tracklife/trajd/params"
)

type WebDaemon struct {
	Config   *params.WebDaemonConfig
	Analyzer *api.Analyzer

	logger  *slog.Logger
	started time.Time

	// resultCache memoizes whole JSON responses by request URI. The
	// store is read-only while the daemon runs, so staleness is bounded
	// by TTL alone.
	resultCache *ttlcache.Cache[string, []byte]
}

func NewWebDaemon(config *params.WebDaemonConfig, analyzer *api.Analyzer) *WebDaemon {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	cache := ttlcache.New[string, []byte](
		ttlcache.WithTTL[string, []byte](config.CacheTTL),
	)
	go cache.Start()
	return &WebDaemon{
		Config:      config,
		Analyzer:    analyzer,
		logger:      slog.With("d", "web"),
		resultCache: cache,
	}
}

// Run starts the HTTP server (ListenAndServe) and waits for it,
// returning any server error.
func (s *WebDaemon) Run() error {
	s.started = time.Now()
	router := s.NewRouter()
	listeningOn := fmt.Sprintf("%s:%d", s.Config.NetAddr, s.Config.NetPort)
	log.Printf("Starting web daemon on %s", listeningOn)
	return http.ListenAndServe(listeningOn, router)
}

func (s *WebDaemon) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware)

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)
	apiRoutes.Path("/status").HandlerFunc(s.statusReport)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	jsonMiddleware := contentTypeMiddlewareFunc("application/json")
	apiJSONRoutes.Use(jsonMiddleware)
	apiJSONRoutes.Use(s.cachingMiddleware)

	apiJSONRoutes.Path("/summary").HandlerFunc(s.handleSummary).Methods(http.MethodGet)
	apiJSONRoutes.Path("/stats/activities").HandlerFunc(s.handleActivityStats).Methods(http.MethodGet)
	apiJSONRoutes.Path("/top/active").HandlerFunc(s.handleTopActive).Methods(http.MethodGet)
	apiJSONRoutes.Path("/top/altitude").HandlerFunc(s.handleTopAltitude).Methods(http.MethodGet)
	apiJSONRoutes.Path("/users/{user}/distance").HandlerFunc(s.handleDistance).Methods(http.MethodGet)
	apiJSONRoutes.Path("/invalid").HandlerFunc(s.handleInvalid).Methods(http.MethodGet)
	apiJSONRoutes.Path("/daycrossers").HandlerFunc(s.handleDayCrossers).Methods(http.MethodGet)
	apiJSONRoutes.Path("/duplicates").HandlerFunc(s.handleDuplicates).Methods(http.MethodGet)
	apiJSONRoutes.Path("/nearby").HandlerFunc(s.handleNearby).Methods(http.MethodGet)
	apiJSONRoutes.Path("/modes/users").HandlerFunc(s.handleModeUsers).Methods(http.MethodGet)
	apiJSONRoutes.Path("/modes/never").HandlerFunc(s.handleNeverMode).Methods(http.MethodGet)
	apiJSONRoutes.Path("/busiest").HandlerFunc(s.handleBusiest).Methods(http.MethodGet)

	return router
}
