package storage

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/civicgraph/ballotbox/types"
)

// AddVoters appends voter references to the eligibility roll of an election.
// Only the hash of each reference is stored. The returned batch ID
// identifies the import for audit purposes.
func (s *Storage) AddVoters(electionID types.HexBytes, voterRefs []string) (uuid.UUID, error) {
	if len(voterRefs) == 0 {
		return uuid.Nil, fmt.Errorf("no voters provided")
	}
	batch := uuid.New()
	tx := s.db.WriteTx()
	defer tx.Discard()
	wTx := prefixeddb.NewPrefixedWriteTx(tx, rollPrefix)
	for _, ref := range voterRefs {
		if ref == "" {
			return uuid.Nil, fmt.Errorf("empty voter reference")
		}
		if err := wTx.Set(rollKey(electionID, ref), batch[:]); err != nil {
			return uuid.Nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return batch, nil
}

// IsEligible reports whether a voter reference belongs to the roll of an
// election.
func (s *Storage) IsEligible(voterRef string, electionID types.HexBytes) (bool, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, rollPrefix)
	if _, err := rd.Get(rollKey(electionID, voterRef)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RollSize returns the number of voters in the roll of an election.
func (s *Storage) RollSize(electionID types.HexBytes) int {
	rd := prefixeddb.NewPrefixedReader(s.db, rollPrefix)
	count := 0
	if err := rd.Iterate(electionID, func(_, _ []byte) bool {
		count++
		return true
	}); err != nil {
		return 0
	}
	return count
}

func rollKey(electionID types.HexBytes, voterRef string) []byte {
	hash := sha256.Sum256([]byte(voterRef))
	return append(append([]byte{}, electionID...), hash[:]...)
}
