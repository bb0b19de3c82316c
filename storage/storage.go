// Package storage persists every artifact of the ballot service in a
// prefixed key-value store. The following prefixes are used:
//   - 'e/' for elections (ballot configurations)
//   - 't/' for tokens, keyed by the raw token bytes
//   - 'tp/' for the (voter, election) issuance index
//   - 'b/' for ballots, keyed by electionID + content hash
//   - 'r/' for the eligibility rolls
//
// Ballot rows are append-only and carry no voter reference of any kind; the
// only artifact that links a voter to an election is the token row, which
// lives under its own prefix and is never joined with ballots.
package storage

import (
	"fmt"
	"sync"

	"go.vocdoni.io/dvote/db"
)

var (
	// Prefixes for the keys in the database.
	electionPrefix  = []byte("e/")
	tokenPrefix     = []byte("t/")
	tokenPairPrefix = []byte("tp/")
	ballotPrefix    = []byte("b/")
	rollPrefix      = []byte("r/")
)

var (
	// ErrNotFound is returned when an artifact does not exist.
	ErrNotFound = fmt.Errorf("not found")
	// ErrElectionExists is returned when creating an election with a known ID.
	ErrElectionExists = fmt.Errorf("election already exists")
	// ErrAlreadyIssued is returned when a voter already holds a token for an
	// election, consumed or not.
	ErrAlreadyIssued = fmt.Errorf("token already issued for this voter and election")
	// ErrAlreadyConsumed is returned when consuming a token twice.
	ErrAlreadyConsumed = fmt.Errorf("token already consumed")
	// ErrTokenExpired is returned when operating on a token past its expiry.
	ErrTokenExpired = fmt.Errorf("token expired")
	// ErrDuplicatePayload is returned when a ballot with the same content
	// hash already exists for the election. With non-deterministic payload
	// encryption this means a literal retransmission and a retry is safe.
	ErrDuplicatePayload = fmt.Errorf("duplicate ballot payload")
	// ErrNotOwner is returned when a guarded election mutation is attempted
	// by someone other than the owner.
	ErrNotOwner = fmt.Errorf("not the election owner")
)

// Storage wraps the key-value database with the artifact operations of the
// ballot service. Uniqueness checks (one token per voter and election, one
// ballot per content hash) are check-then-set sequences guarded by the
// global lock and committed in a single write transaction.
type Storage struct {
	db         db.Database
	globalLock sync.Mutex
}

// New creates a new Storage instance over the given database.
func New(database db.Database) *Storage {
	return &Storage{db: database}
}

// Close closes the underlying database.
func (s *Storage) Close() {
	s.db.Close()
}
