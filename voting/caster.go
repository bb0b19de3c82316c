// Package voting turns a token plus a choice into a persisted anonymous
// ballot.
package voting

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"go.vocdoni.io/dvote/log"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/token"
	"github.com/civicgraph/ballotbox/types"
	"github.com/civicgraph/ballotbox/votecrypt"
)

var (
	// ErrInvalidChoice is returned when the choice is not in the election's
	// configured option set.
	ErrInvalidChoice = fmt.Errorf("choice is not in the option set")
	// ErrInvalidToken is returned for unknown tokens and for tokens bound to
	// a different election.
	ErrInvalidToken = fmt.Errorf("invalid token")
)

// Caster validates and records ballots. It never learns who the voter is:
// its only inputs are the opaque token and the choice.
type Caster struct {
	st  *storage.Storage
	enc *votecrypt.Encoder
}

// NewCaster creates a Caster over the given storage and encoder.
func NewCaster(st *storage.Storage, enc *votecrypt.Encoder) *Caster {
	return &Caster{st: st, enc: enc}
}

// Cast records one anonymous ballot for the election the token was issued
// for. The choice is validated against the election configuration, sealed
// into a non-deterministic payload, and stored together with the token
// consumption in a single transaction. On any error no ballot row exists
// and, except for storage commit failures, the token is left untouched.
func (c *Caster) Cast(tok string, electionID types.HexBytes, choice string, now time.Time) (*types.Ballot, error) {
	e, err := c.st.Election(electionID)
	if err != nil {
		return nil, err
	}
	if !e.IsOpen(now) {
		return nil, token.ErrBallotClosed
	}
	if !e.ValidChoice(choice) {
		return nil, ErrInvalidChoice
	}
	t, err := c.st.Token(tok)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !bytes.Equal(t.ElectionID, electionID) {
		return nil, ErrInvalidToken
	}
	if t.IsExpired(now) {
		return nil, storage.ErrTokenExpired
	}
	if t.Consumed {
		return nil, storage.ErrAlreadyConsumed
	}

	payload, err := c.enc.Encode(electionID, choice)
	if err != nil {
		return nil, fmt.Errorf("encode ballot: %w", err)
	}
	b := &types.Ballot{
		ElectionID:  electionID,
		Payload:     payload,
		ContentHash: votecrypt.ContentHash(payload),
		CreatedAt:   now,
	}
	if err := c.st.CastBallot(b, tok, now); err != nil {
		return nil, err
	}
	// Log the fact, never the voter. The content hash alone is useless for
	// linking: it derives from the ciphertext, not from any identity.
	log.Infow("ballot cast", "electionId", electionID.String(), "contentHash", b.ContentHash.String())
	return b, nil
}
