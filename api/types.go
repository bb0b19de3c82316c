package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/civicgraph/ballotbox/types"
)

// ElectionRequest is the body to create a new election.
type ElectionRequest struct {
	Title         string           `json:"title"`
	Kind          types.BallotKind `json:"kind"`
	Options       []string         `json:"options,omitempty"`
	OwnerRef      string           `json:"ownerRef"`
	StartTime     time.Time        `json:"startTime"`
	Deadline      time.Time        `json:"deadline"`
	RevealOnClose bool             `json:"revealOnClose,omitempty"`
}

// ElectionResponse describes an election and its derived status.
type ElectionResponse struct {
	ID        types.HexBytes   `json:"id"`
	Title     string           `json:"title"`
	Kind      types.BallotKind `json:"kind"`
	Options   []string         `json:"options"`
	StartTime time.Time        `json:"startTime"`
	Deadline  time.Time        `json:"deadline"`
	Status    string           `json:"status"`
	Ballots   int              `json:"ballots,omitempty"`
	// Tokens is the issuance volume: how many credentials were ever handed
	// out for the election. It audits participation, not voting behavior.
	Tokens int `json:"tokens,omitempty"`
}

// ElectionList is the response to the election listing request.
type ElectionList struct {
	Elections []types.HexBytes `json:"elections"`
}

// CloseRequest is the body of the owner early-close request.
type CloseRequest struct {
	OwnerRef string `json:"ownerRef"`
}

// VotersRequest is the body to add voters to the eligibility roll.
type VotersRequest struct {
	Voters []string `json:"voters"`
}

// VotersResponse reports the roll import batch and the new roll size.
type VotersResponse struct {
	Batch    uuid.UUID `json:"batch"`
	RollSize int       `json:"rollSize"`
}

// TokenRequest is the body to request a ballot token. The voter reference
// comes from the platform session of the caller.
type TokenRequest struct {
	VoterRef   string         `json:"voterRef"`
	ElectionID types.HexBytes `json:"electionId"`
}

// TokenResponse carries the issued credential. It never includes the voter
// reference, so the response cannot be logged as a (voter, token) pair.
type TokenResponse struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

// VoteRequest is the body to cast a vote.
type VoteRequest struct {
	Token      string         `json:"token"`
	ElectionID types.HexBytes `json:"electionId"`
	Choice     string         `json:"choice"`
}

// VoteResponse acknowledges a cast. Only the content hash of the encrypted
// payload is echoed; it derives from the ciphertext and identifies nobody.
type VoteResponse struct {
	ContentHash types.HexBytes `json:"contentHash"`
}

// ResultsResponse is the aggregate outcome of an election.
type ResultsResponse struct {
	Results *types.Results `json:"results"`
	Status  string         `json:"status"`
}
