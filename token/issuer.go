// Package token mints and validates the single-use credentials that gate
// ballot casting. The issuer holds the only link between a voter and an
// election; the credential it hands out is what travels with the vote, so
// the ballot store never sees the voter.
package token

import (
	"errors"
	"fmt"
	"time"

	"go.vocdoni.io/dvote/log"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/types"
	"github.com/civicgraph/ballotbox/util"
)

var (
	// ErrNotEligible is returned when the eligibility check denies the voter.
	ErrNotEligible = fmt.Errorf("voter is not eligible for this election")
	// ErrBallotClosed is returned when the election is not open for voting.
	ErrBallotClosed = fmt.Errorf("election is not open")
)

// Eligibility answers whether a voter may receive a token for an election.
// The platform wires its own implementation (roles, mutes, territorial
// scope); Roll is the storage-backed allowlist used by default.
type Eligibility interface {
	IsEligible(voterRef string, e *types.Election) (bool, error)
}

// Roll is an Eligibility backed by the per-election voter roll in storage.
type Roll struct {
	st *storage.Storage
}

// NewRoll creates a storage-backed eligibility roll.
func NewRoll(st *storage.Storage) *Roll {
	return &Roll{st: st}
}

func (r *Roll) IsEligible(voterRef string, e *types.Election) (bool, error) {
	return r.st.IsEligible(voterRef, e.ID)
}

// Issuer mints one expiring, single-use token per voter and election.
type Issuer struct {
	st   *storage.Storage
	elig Eligibility
}

// NewIssuer creates an Issuer using the given eligibility check.
func NewIssuer(st *storage.Storage, elig Eligibility) *Issuer {
	return &Issuer{st: st, elig: elig}
}

// Issue verifies eligibility and the election window, then mints and
// persists a token expiring at the election deadline. Exactly one request
// succeeds per (voter, election), even under concurrency: the storage layer
// turns the losing insert into storage.ErrAlreadyIssued.
func (i *Issuer) Issue(voterRef string, electionID types.HexBytes, now time.Time) (*types.Token, error) {
	if voterRef == "" {
		return nil, fmt.Errorf("empty voter reference")
	}
	e, err := i.st.Election(electionID)
	if err != nil {
		return nil, err
	}
	if !e.IsOpen(now) {
		return nil, ErrBallotClosed
	}
	ok, err := i.elig.IsEligible(voterRef, e)
	if err != nil {
		return nil, fmt.Errorf("eligibility check: %w", err)
	}
	if !ok {
		return nil, ErrNotEligible
	}
	t := &types.Token{
		Token:      util.RandomHex(types.TokenHexLen / 2),
		VoterRef:   voterRef,
		ElectionID: electionID,
		Expiry:     e.Deadline,
		CreatedAt:  now,
	}
	if err := i.st.IssueToken(t); err != nil {
		return nil, err
	}
	log.Debugw("token issued", "electionId", electionID.String(), "expiry", t.Expiry)
	return t, nil
}

// Consume marks a token spent. One-way: a second call fails with
// storage.ErrAlreadyConsumed.
func (i *Issuer) Consume(token string, now time.Time) error {
	return i.st.ConsumeToken(token, now)
}

// IsValid reports whether a token is known, unconsumed and unexpired. It is
// the sole gate applied at cast time.
func (i *Issuer) IsValid(token string, now time.Time) (bool, error) {
	t, err := i.st.Token(token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return !t.Consumed && !t.IsExpired(now), nil
}
