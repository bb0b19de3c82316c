package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/token"
	"github.com/civicgraph/ballotbox/voting"
)

// castVote records one anonymous ballot
// POST /votes
func (a *API) castVote(w http.ResponseWriter, r *http.Request) {
	req := &VoteRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	b, err := a.caster.Cast(req.Token, req.ElectionID, req.Choice, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			ErrElectionNotFound.Write(w)
		case errors.Is(err, token.ErrBallotClosed):
			ErrBallotClosed.Write(w)
		case errors.Is(err, voting.ErrInvalidChoice):
			ErrInvalidChoice.Write(w)
		case errors.Is(err, storage.ErrDuplicatePayload):
			ErrDuplicatePayloadHash.Write(w)
		case errors.Is(err, voting.ErrInvalidToken),
			errors.Is(err, storage.ErrTokenExpired),
			errors.Is(err, storage.ErrAlreadyConsumed):
			// One uniform response for every token-state failure; see the
			// note on ErrInvalidToken in errors_definition.go.
			ErrInvalidToken.Write(w)
		default:
			ErrGenericInternalServerError.WithErr(err).Write(w)
		}
		return
	}
	httpWriteJSON(w, &VoteResponse{ContentHash: b.ContentHash})
}
