package types

import "time"

// TokenHexLen is the length of a ballot token rendered as a hex string
// (64 random bytes).
const TokenHexLen = 128

// Token is the single-use credential that proves a voter may cast one ballot
// in an election. It is the only artifact linking a voter to an election and
// it is kept strictly apart from the ballots themselves.
type Token struct {
	Token      string     `json:"token"                cbor:"0,keyasint"`
	VoterRef   string     `json:"-"                    cbor:"1,keyasint"`
	ElectionID HexBytes   `json:"electionId"           cbor:"2,keyasint"`
	Expiry     time.Time  `json:"expiry"               cbor:"3,keyasint"`
	Consumed   bool       `json:"consumed"             cbor:"4,keyasint,omitempty"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty" cbor:"5,keyasint,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"            cbor:"6,keyasint,omitempty"`
}

// IsExpired reports whether the token is past its expiry.
func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.Expiry)
}

// Ballot is the immutable, anonymous record of one cast vote. It must never
// grow a voter-identifying field: no voter reference, no session, no address.
// The content hash is computed over the encrypted payload, never over the
// plaintext choice.
type Ballot struct {
	ElectionID  HexBytes  `json:"electionId"  cbor:"0,keyasint"`
	Payload     HexBytes  `json:"payload"     cbor:"1,keyasint"`
	ContentHash HexBytes  `json:"contentHash" cbor:"2,keyasint"`
	CreatedAt   time.Time `json:"createdAt"   cbor:"3,keyasint,omitempty"`
}

// Results holds the aggregate outcome of an election. Percentages are
// derived from the counts and left empty when no ballots were cast.
type Results struct {
	ElectionID  HexBytes           `json:"electionId"`
	Counts      map[string]uint64  `json:"counts"`
	Total       uint64             `json:"total"`
	Spoiled     uint64             `json:"spoiled,omitempty"`
	Percentages map[string]float64 `json:"percentages,omitempty"`
}
