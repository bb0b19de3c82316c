package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/token"
)

// issueToken mints a single-use ballot token for an eligible voter
// POST /tokens
func (a *API) issueToken(w http.ResponseWriter, r *http.Request) {
	req := &TokenRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.VoterRef == "" || len(req.ElectionID) == 0 {
		ErrMalformedBody.With("voterRef and electionId are required").Write(w)
		return
	}
	t, err := a.issuer.Issue(req.VoterRef, req.ElectionID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			ErrElectionNotFound.Write(w)
		case errors.Is(err, token.ErrBallotClosed):
			ErrBallotClosed.Write(w)
		case errors.Is(err, token.ErrNotEligible):
			ErrNotEligible.Write(w)
		case errors.Is(err, storage.ErrAlreadyIssued):
			ErrTokenAlreadyIssued.Write(w)
		default:
			ErrGenericInternalServerError.WithErr(err).Write(w)
		}
		return
	}
	httpWriteJSON(w, &TokenResponse{Token: t.Token, Expiry: t.Expiry})
}
