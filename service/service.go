// Package service wires the storage, issuer, caster and tally engine behind
// the HTTP API and manages their lifecycle.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/civicgraph/ballotbox/api"
	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/tally"
	"github.com/civicgraph/ballotbox/token"
	"github.com/civicgraph/ballotbox/votecrypt"
	"github.com/civicgraph/ballotbox/voting"
)

// BallotService runs the anonymous ballot HTTP API.
type BallotService struct {
	storage *storage.Storage
	api     *api.API
	mu      sync.Mutex
	cancel  context.CancelFunc
	host    string
	port    int
	key     []byte
}

// New creates a new BallotService instance.
func New(st *storage.Storage, key []byte, host string, port int) *BallotService {
	return &BallotService{
		storage: st,
		key:     key,
		host:    host,
		port:    port,
	}
}

// Start begins the API server. It returns an error if the service is
// already running or if it fails to start.
func (bs *BallotService) Start(ctx context.Context) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.cancel != nil {
		return fmt.Errorf("service already running")
	}

	encoder, err := votecrypt.New(bs.key)
	if err != nil {
		return fmt.Errorf("create vote encoder: %w", err)
	}
	issuer := token.NewIssuer(bs.storage, token.NewRoll(bs.storage))

	_, bs.cancel = context.WithCancel(ctx)
	bs.api, err = api.New(&api.APIConfig{
		Host:    bs.host,
		Port:    bs.port,
		Storage: bs.storage,
		Issuer:  issuer,
		Caster:  voting.NewCaster(bs.storage, encoder),
		Tally:   tally.NewEngine(bs.storage, encoder),
	})
	if err != nil {
		bs.cancel = nil
		return fmt.Errorf("failed to start API server: %w", err)
	}
	return nil
}

// Stop halts the API server and closes the storage.
func (bs *BallotService) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.cancel != nil {
		bs.cancel()
		bs.cancel = nil
	}
	bs.storage.Close()
}

// HostPort returns the host and port of the API server.
func (bs *BallotService) HostPort() (string, int) {
	return bs.host, bs.port
}
