package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/civicgraph/ballotbox/types"
)

// IssueToken stores a freshly minted token. At most one token may ever
// exist per (voter, election) pair, regardless of consumption state, so a
// concurrent or repeated issuance returns ErrAlreadyIssued. The token row
// and the issuance index entry are committed in a single transaction.
func (s *Storage) IssueToken(t *types.Token) error {
	key, err := tokenKey(t.Token)
	if err != nil {
		return err
	}
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	pairRd := prefixeddb.NewPrefixedReader(s.db, tokenPairPrefix)
	if _, err := pairRd.Get(pairKey(t.VoterRef, t.ElectionID)); err == nil {
		return ErrAlreadyIssued
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}

	data, err := encodeArtifact(t)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	tx := s.db.WriteTx()
	defer tx.Discard()
	if err := prefixeddb.NewPrefixedWriteTx(tx, tokenPrefix).Set(key, data); err != nil {
		return err
	}
	if err := prefixeddb.NewPrefixedWriteTx(tx, tokenPairPrefix).Set(pairKey(t.VoterRef, t.ElectionID), key); err != nil {
		return err
	}
	return tx.Commit()
}

// Token retrieves a token row by its opaque string. Returns ErrNotFound for
// unknown tokens.
func (s *Storage) Token(token string) (*types.Token, error) {
	key, err := tokenKey(token)
	if err != nil {
		return nil, ErrNotFound
	}
	rd := prefixeddb.NewPrefixedReader(s.db, tokenPrefix)
	data, err := rd.Get(key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t := &types.Token{}
	if err := decodeArtifact(data, t); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return t, nil
}

// ConsumeToken marks a token consumed. The operation is one-way: a second
// call returns ErrAlreadyConsumed, and an expired token is rejected without
// being touched.
func (s *Storage) ConsumeToken(token string, now time.Time) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	t, err := s.Token(token)
	if err != nil {
		return err
	}
	tx := s.db.WriteTx()
	defer tx.Discard()
	if err := s.consumeTokenTx(tx, t, now); err != nil {
		return err
	}
	return tx.Commit()
}

// CountIssuedTokens returns the number of tokens ever issued for an
// election. Issuance volume is auditable; voting behavior is not.
func (s *Storage) CountIssuedTokens(electionID types.HexBytes) int {
	rd := prefixeddb.NewPrefixedReader(s.db, tokenPrefix)
	count := 0
	if err := rd.Iterate(nil, func(_, v []byte) bool {
		t := &types.Token{}
		if err := decodeArtifact(v, t); err == nil && t.ElectionID.String() == electionID.String() {
			count++
		}
		return true
	}); err != nil {
		return 0
	}
	return count
}

// consumeTokenTx writes the consumed token row into the given transaction.
// Callers hold the global lock and commit the transaction themselves.
func (s *Storage) consumeTokenTx(tx db.WriteTx, t *types.Token, now time.Time) error {
	if t.IsExpired(now) {
		return ErrTokenExpired
	}
	if t.Consumed {
		return ErrAlreadyConsumed
	}
	key, err := tokenKey(t.Token)
	if err != nil {
		return err
	}
	consumedAt := now
	t.Consumed = true
	t.ConsumedAt = &consumedAt
	data, err := encodeArtifact(t)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return prefixeddb.NewPrefixedWriteTx(tx, tokenPrefix).Set(key, data)
}

// tokenKey decodes the opaque token string into its raw key bytes.
func tokenKey(token string) ([]byte, error) {
	if len(token) != types.TokenHexLen {
		return nil, fmt.Errorf("invalid token length: %d", len(token))
	}
	key, err := hex.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token encoding")
	}
	return key, nil
}
