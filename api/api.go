package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.vocdoni.io/dvote/log"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/tally"
	"github.com/civicgraph/ballotbox/token"
	"github.com/civicgraph/ballotbox/voting"
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host    string
	Port    int
	Storage *storage.Storage
	Issuer  *token.Issuer
	Caster  *voting.Caster
	Tally   *tally.Engine
}

// API type represents the ballot service HTTP server.
type API struct {
	router  *chi.Mux
	storage *storage.Storage
	issuer  *token.Issuer
	caster  *voting.Caster
	tally   *tally.Engine
}

// New creates a new API instance with the given configuration and starts
// the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Storage == nil || conf.Issuer == nil || conf.Caster == nil || conf.Tally == nil {
		return nil, fmt.Errorf("missing API dependencies")
	}
	a := &API{
		storage: conf.Storage,
		issuer:  conf.Issuer,
		caster:  conf.Caster,
		tally:   conf.Tally,
	}

	// Initialize router
	a.initRouter()
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", ElectionsEndpoint, "method", "POST")
	a.router.Post(ElectionsEndpoint, a.newElection)
	log.Infow("register handler", "endpoint", ElectionsEndpoint, "method", "GET")
	a.router.Get(ElectionsEndpoint, a.electionList)
	log.Infow("register handler", "endpoint", ElectionEndpoint, "method", "GET")
	a.router.Get(ElectionEndpoint, a.electionInfo)
	log.Infow("register handler", "endpoint", ElectionCloseEndpoint, "method", "POST")
	a.router.Post(ElectionCloseEndpoint, a.closeElection)
	log.Infow("register handler", "endpoint", ElectionVotersEndpoint, "method", "POST")
	a.router.Post(ElectionVotersEndpoint, a.addVoters)
	log.Infow("register handler", "endpoint", TokensEndpoint, "method", "POST")
	a.router.Post(TokensEndpoint, a.issueToken)
	log.Infow("register handler", "endpoint", VotesEndpoint, "method", "POST")
	a.router.Post(VotesEndpoint, a.castVote)
	log.Infow("register handler", "endpoint", ElectionResultsEndpoint, "method", "GET")
	a.router.Get(ElectionResultsEndpoint, a.results)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
