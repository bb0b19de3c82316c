package storage

import (
	"errors"
	"fmt"
	"time"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/civicgraph/ballotbox/types"
)

// CastBallot persists an anonymous ballot and consumes the token that
// authorized it, in one transaction: either both become visible or neither
// does, so a crash can never leave a ballot without a spent token.
//
// The ballot row is keyed by electionID + content hash, which rejects a
// byte-for-byte duplicate payload (ErrDuplicatePayload). The ballot value
// carries no voter reference; the token is looked up only to flip its
// consumed flag under the same commit.
func (s *Storage) CastBallot(b *types.Ballot, token string, now time.Time) error {
	if b == nil {
		return fmt.Errorf("nil ballot")
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	t, err := s.Token(token)
	if err != nil {
		return err
	}

	key := ballotKey(b)
	rd := prefixeddb.NewPrefixedReader(s.db, ballotPrefix)
	if _, err := rd.Get(key); err == nil {
		return ErrDuplicatePayload
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}

	data, err := encodeArtifact(b)
	if err != nil {
		return fmt.Errorf("encode ballot: %w", err)
	}
	tx := s.db.WriteTx()
	defer tx.Discard()
	if err := s.consumeTokenTx(tx, t, now); err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, ballotPrefix).Set(key, data); err != nil {
		return err
	}
	return tx.Commit()
}

// IterateBallots walks every ballot of an election. The callback returns
// false to stop the iteration.
func (s *Storage) IterateBallots(electionID types.HexBytes, fn func(b *types.Ballot) bool) error {
	rd := prefixeddb.NewPrefixedReader(s.db, ballotPrefix)
	var decodeErr error
	if err := rd.Iterate(electionID, func(_, v []byte) bool {
		b := &types.Ballot{}
		if err := decodeArtifact(v, b); err != nil {
			decodeErr = fmt.Errorf("decode ballot: %w", err)
			return false
		}
		return fn(b)
	}); err != nil {
		return fmt.Errorf("iterate ballots: %w", err)
	}
	return decodeErr
}

// CountBallots returns the number of ballots cast in an election.
func (s *Storage) CountBallots(electionID types.HexBytes) int {
	rd := prefixeddb.NewPrefixedReader(s.db, ballotPrefix)
	count := 0
	if err := rd.Iterate(electionID, func(_, _ []byte) bool {
		count++
		return true
	}); err != nil {
		return 0
	}
	return count
}

func ballotKey(b *types.Ballot) []byte {
	return append(append([]byte{}, b.ElectionID...), b.ContentHash...)
}
