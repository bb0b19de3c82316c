package storage

import (
	"errors"
	"fmt"
	"time"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/civicgraph/ballotbox/types"
)

// SetElection stores a new election configuration. It returns
// ErrElectionExists if the ID is already taken.
func (s *Storage) SetElection(e *types.Election) error {
	if e == nil {
		return fmt.Errorf("nil election")
	}
	if len(e.ID) != types.ElectionIDSize {
		return fmt.Errorf("invalid election ID length: %d", len(e.ID))
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	rd := prefixeddb.NewPrefixedReader(s.db, electionPrefix)
	if _, err := rd.Get(e.ID); err == nil {
		return ErrElectionExists
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}
	return s.writeElection(e)
}

// Election retrieves an election configuration. Returns ErrNotFound if the
// ID is unknown.
func (s *Storage) Election(id types.HexBytes) (*types.Election, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, electionPrefix)
	data, err := rd.Get(id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e := &types.Election{}
	if err := decodeArtifact(data, e); err != nil {
		return nil, fmt.Errorf("decode election: %w", err)
	}
	return e, nil
}

// ListElections returns the stored election IDs.
func (s *Storage) ListElections() ([]types.HexBytes, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, electionPrefix)
	var ids []types.HexBytes
	if err := rd.Iterate(nil, func(k, _ []byte) bool {
		id := make(types.HexBytes, len(k))
		copy(id, k)
		ids = append(ids, id)
		return true
	}); err != nil {
		return nil, fmt.Errorf("iterate elections: %w", err)
	}
	return ids, nil
}

// CloseElection performs the owner-authorized early close transition
// (Open -> Closed). It does not touch the reveal gate: results stay sealed
// until the tally engine decides the gate is open.
func (s *Storage) CloseElection(id types.HexBytes, ownerRef string, now time.Time) (*types.Election, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	e, err := s.Election(id)
	if err != nil {
		return nil, err
	}
	if e.OwnerRef != ownerRef {
		return nil, ErrNotOwner
	}
	if e.StatusAt(now) != types.StatusOpen {
		return nil, fmt.Errorf("election is not open")
	}
	closedAt := now
	e.ClosedAt = &closedAt
	if err := s.writeElection(e); err != nil {
		return nil, err
	}
	return e, nil
}

// MarkRevealed flags the election as revealed after its first public tally.
func (s *Storage) MarkRevealed(id types.HexBytes) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	e, err := s.Election(id)
	if err != nil {
		return err
	}
	if e.Revealed {
		return nil
	}
	e.Revealed = true
	return s.writeElection(e)
}

func (s *Storage) writeElection(e *types.Election) error {
	data, err := encodeArtifact(e)
	if err != nil {
		return err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), electionPrefix)
	if err := wTx.Set(e.ID, data); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}
