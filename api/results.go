package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/tally"
)

// results returns the aggregate counts of an election once the reveal gate
// is open. The election owner may pass ?preview=<ownerRef> to see a
// restricted preview before the deadline.
// GET /elections/{electionId}/results
func (a *API) results(w http.ResponseWriter, r *http.Request) {
	id, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	e, err := a.storage.Election(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrElectionNotFound.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	now := time.Now()

	if preview := r.URL.Query().Get("preview"); preview != "" {
		if preview != e.OwnerRef {
			ErrNotAuthorized.Write(w)
			return
		}
		res, err := a.tally.TallyPreview(id)
		if err != nil {
			ErrGenericInternalServerError.WithErr(err).Write(w)
			return
		}
		httpWriteJSON(w, &ResultsResponse{Results: res, Status: e.StatusAt(now).String()})
		return
	}

	res, err := a.tally.Tally(id, now)
	if err != nil {
		if errors.Is(err, tally.ErrNotYetRevealable) {
			ErrNotYetRevealable.Write(w)
			return
		}
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, &ResultsResponse{Results: res, Status: "revealed"})
}
