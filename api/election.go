package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.vocdoni.io/dvote/log"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/types"
	"github.com/civicgraph/ballotbox/util"
)

// newElection creates a new election configuration
// POST /elections
func (a *API) newElection(w http.ResponseWriter, r *http.Request) {
	req := &ElectionRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	e := &types.Election{
		ID:            util.RandomBytes(types.ElectionIDSize),
		Title:         req.Title,
		Kind:          req.Kind,
		Options:       req.Options,
		OwnerRef:      req.OwnerRef,
		StartTime:     req.StartTime,
		Deadline:      req.Deadline,
		RevealOnClose: req.RevealOnClose,
	}
	if err := e.Validate(); err != nil {
		ErrInvalidElectionConf.WithErr(err).Write(w)
		return
	}
	if err := a.storage.SetElection(e); err != nil {
		ErrGenericInternalServerError.Withf("could not store election: %v", err).Write(w)
		return
	}
	log.Infow("new election", "electionId", e.ID.String(), "kind", string(e.Kind), "deadline", e.Deadline)
	httpWriteJSON(w, electionResponse(e, time.Now(), 0, 0))
}

// electionList returns the stored election IDs
// GET /elections
func (a *API) electionList(w http.ResponseWriter, r *http.Request) {
	ids, err := a.storage.ListElections()
	if err != nil {
		ErrGenericInternalServerError.Withf("could not list elections: %v", err).Write(w)
		return
	}
	httpWriteJSON(w, &ElectionList{Elections: ids})
}

// electionInfo returns the election configuration and derived status
// GET /elections/{electionId}
func (a *API) electionInfo(w http.ResponseWriter, r *http.Request) {
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
	httpWriteJSON(w, electionResponse(e, time.Now(), a.storage.CountBallots(id), a.storage.CountIssuedTokens(id)))
}

// closeElection performs the owner early close
// POST /elections/{electionId}/close
func (a *API) closeElection(w http.ResponseWriter, r *http.Request) {
	id, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	req := &CloseRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	e, err := a.storage.CloseElection(id, req.OwnerRef, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			ErrElectionNotFound.Write(w)
		case errors.Is(err, storage.ErrNotOwner):
			ErrNotAuthorized.Write(w)
		default:
			ErrBallotClosed.WithErr(err).Write(w)
		}
		return
	}
	log.Infow("election closed early", "electionId", id.String())
	httpWriteJSON(w, electionResponse(e, time.Now(), a.storage.CountBallots(id), a.storage.CountIssuedTokens(id)))
}

// addVoters adds voter references to the eligibility roll
// POST /elections/{electionId}/voters
func (a *API) addVoters(w http.ResponseWriter, r *http.Request) {
	id, err := electionIDParam(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	if _, err := a.storage.Election(id); err != nil {
		ErrElectionNotFound.Write(w)
		return
	}
	req := &VotersRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if len(req.Voters) == 0 {
		ErrMalformedBody.With("no voters provided").Write(w)
		return
	}
	batch, err := a.storage.AddVoters(id, req.Voters)
	if err != nil {
		ErrGenericInternalServerError.Withf("could not add voters: %v", err).Write(w)
		return
	}
	httpWriteJSON(w, &VotersResponse{Batch: batch, RollSize: a.storage.RollSize(id)})
}

func electionResponse(e *types.Election, now time.Time, ballots, tokens int) *ElectionResponse {
	return &ElectionResponse{
		ID:        e.ID,
		Title:     e.Title,
		Kind:      e.Kind,
		Options:   e.ChoiceSet(),
		StartTime: e.StartTime,
		Deadline:  e.Deadline,
		Status:    e.StatusAt(now).String(),
		Ballots:   ballots,
		Tokens:    tokens,
	}
}
