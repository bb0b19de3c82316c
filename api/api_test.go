package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/tally"
	"github.com/civicgraph/ballotbox/token"
	"github.com/civicgraph/ballotbox/types"
	"github.com/civicgraph/ballotbox/util"
	"github.com/civicgraph/ballotbox/votecrypt"
	"github.com/civicgraph/ballotbox/voting"
)

func testServer(t *testing.T) *httptest.Server {
	stg := storage.New(metadb.NewTest(t))
	enc, err := votecrypt.New(util.RandomBytes(votecrypt.KeySize))
	qt.Assert(t, err, qt.IsNil)
	a := &API{
		storage: stg,
		issuer:  token.NewIssuer(stg, token.NewRoll(stg)),
		caster:  voting.NewCaster(stg, enc),
		tally:   tally.NewEngine(stg, enc),
	}
	a.initRouter()
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url string, body any, out any) (int, int) {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		qt.Assert(t, err, qt.IsNil)
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reqBody)
	qt.Assert(t, err, qt.IsNil)
	resp, err := http.DefaultClient.Do(req)
	qt.Assert(t, err, qt.IsNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	qt.Assert(t, err, qt.IsNil)

	if resp.StatusCode != http.StatusOK {
		apiErr := struct {
			Code int `json:"code"`
		}{}
		qt.Assert(t, json.Unmarshal(data, &apiErr), qt.IsNil, qt.Commentf("body: %s", data))
		return resp.StatusCode, apiErr.Code
	}
	if out != nil {
		qt.Assert(t, json.Unmarshal(data, out), qt.IsNil, qt.Commentf("body: %s", data))
	}
	return resp.StatusCode, 0
}

func createElection(t *testing.T, srv *httptest.Server, req *ElectionRequest) *ElectionResponse {
	t.Helper()
	e := &ElectionResponse{}
	status, _ := doRequest(t, http.MethodPost, srv.URL+ElectionsEndpoint, req, e)
	qt.Assert(t, status, qt.Equals, http.StatusOK)
	return e
}

func addVoters(t *testing.T, srv *httptest.Server, id types.HexBytes, voters ...string) {
	t.Helper()
	status, _ := doRequest(t, http.MethodPost,
		fmt.Sprintf("%s/elections/%s/voters", srv.URL, id), &VotersRequest{Voters: voters}, nil)
	qt.Assert(t, status, qt.Equals, http.StatusOK)
}

func issueToken(t *testing.T, srv *httptest.Server, voterRef string, id types.HexBytes) *TokenResponse {
	t.Helper()
	tok := &TokenResponse{}
	status, _ := doRequest(t, http.MethodPost, srv.URL+TokensEndpoint,
		&TokenRequest{VoterRef: voterRef, ElectionID: id}, tok)
	qt.Assert(t, status, qt.Equals, http.StatusOK)
	return tok
}

func TestVotingFlow(t *testing.T) {
	c := qt.New(t)

	srv := testServer(t)
	now := time.Now()
	e := createElection(t, srv, &ElectionRequest{
		Title:         "community center referendum",
		Kind:          types.KindBinary,
		OwnerRef:      "owner-1",
		StartTime:     now.Add(-time.Hour),
		Deadline:      now.Add(time.Hour),
		RevealOnClose: true,
	})
	c.Assert(e.Status, qt.Equals, "open")
	addVoters(t, srv, e.ID, "voter-a", "voter-b")

	// voter A votes yes
	tokA := issueToken(t, srv, "voter-a", e.ID)
	c.Assert(tokA.Token, qt.HasLen, types.TokenHexLen)
	vote := &VoteResponse{}
	status, _ := doRequest(t, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{Token: tokA.Token, ElectionID: e.ID, Choice: "yes"}, vote)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(vote.ContentHash, qt.HasLen, 32)

	// a second token for voter A is refused
	status, code := doRequest(t, http.MethodPost, srv.URL+TokensEndpoint,
		&TokenRequest{VoterRef: "voter-a", ElectionID: e.ID}, nil)
	c.Assert(status, qt.Equals, http.StatusConflict)
	c.Assert(code, qt.Equals, ErrTokenAlreadyIssued.Code)

	// voter B votes no
	tokB := issueToken(t, srv, "voter-b", e.ID)
	status, _ = doRequest(t, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{Token: tokB.Token, ElectionID: e.ID, Choice: "no"}, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	// the election info reports issuance and ballot volumes
	info := &ElectionResponse{}
	status, _ = doRequest(t, http.MethodGet, fmt.Sprintf("%s/elections/%s", srv.URL, e.ID), nil, info)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(info.Tokens, qt.Equals, 2)
	c.Assert(info.Ballots, qt.Equals, 2)

	// results are sealed while the election is open
	resultsURL := fmt.Sprintf("%s/elections/%s/results", srv.URL, e.ID)
	status, code = doRequest(t, http.MethodGet, resultsURL, nil, nil)
	c.Assert(status, qt.Equals, http.StatusForbidden)
	c.Assert(code, qt.Equals, ErrNotYetRevealable.Code)

	// the owner can preview them
	preview := &ResultsResponse{}
	status, _ = doRequest(t, http.MethodGet, resultsURL+"?preview=owner-1", nil, preview)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(preview.Results.Total, qt.Equals, uint64(2))

	// a stranger cannot
	status, code = doRequest(t, http.MethodGet, resultsURL+"?preview=stranger", nil, nil)
	c.Assert(status, qt.Equals, http.StatusForbidden)
	c.Assert(code, qt.Equals, ErrNotAuthorized.Code)

	// owner closes early; the reveal-on-close policy opens the gate
	status, _ = doRequest(t, http.MethodPost,
		fmt.Sprintf("%s/elections/%s/close", srv.URL, e.ID), &CloseRequest{OwnerRef: "owner-1"}, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	results := &ResultsResponse{}
	status, _ = doRequest(t, http.MethodGet, resultsURL, nil, results)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(results.Results.Total, qt.Equals, uint64(2))
	c.Assert(results.Results.Counts, qt.DeepEquals, map[string]uint64{"yes": 1, "no": 1, "abstain": 0})
	c.Assert(results.Results.Percentages["yes"], qt.Equals, 50.0)
}

func TestVoteErrors(t *testing.T) {
	c := qt.New(t)

	srv := testServer(t)
	now := time.Now()
	e := createElection(t, srv, &ElectionRequest{
		Title:     "errors",
		Kind:      types.KindBinary,
		OwnerRef:  "owner-1",
		StartTime: now.Add(-time.Hour),
		Deadline:  now.Add(time.Hour),
	})
	addVoters(t, srv, e.ID, "voter-a", "voter-b")

	// not eligible
	status, code := doRequest(t, http.MethodPost, srv.URL+TokensEndpoint,
		&TokenRequest{VoterRef: "voter-z", ElectionID: e.ID}, nil)
	c.Assert(status, qt.Equals, http.StatusForbidden)
	c.Assert(code, qt.Equals, ErrNotEligible.Code)

	// invalid choice, token stays usable
	tok := issueToken(t, srv, "voter-a", e.ID)
	status, code = doRequest(t, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{Token: tok.Token, ElectionID: e.ID, Choice: "maybe"}, nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(code, qt.Equals, ErrInvalidChoice.Code)
	status, _ = doRequest(t, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{Token: tok.Token, ElectionID: e.ID, Choice: "yes"}, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	// every token-state failure maps to the same response code: a spent
	// token and an unknown one are indistinguishable to the client
	status, code = doRequest(t, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{Token: tok.Token, ElectionID: e.ID, Choice: "yes"}, nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(code, qt.Equals, ErrInvalidToken.Code)
	status, code = doRequest(t, http.MethodPost, srv.URL+VotesEndpoint,
		&VoteRequest{Token: util.RandomHex(types.TokenHexLen / 2), ElectionID: e.ID, Choice: "yes"}, nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(code, qt.Equals, ErrInvalidToken.Code)

	// unknown election
	status, code = doRequest(t, http.MethodGet,
		fmt.Sprintf("%s/elections/%s", srv.URL, util.RandomHex(types.ElectionIDSize)), nil, nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)
	c.Assert(code, qt.Equals, ErrElectionNotFound.Code)

	// invalid election configuration
	status, code = doRequest(t, http.MethodPost, srv.URL+ElectionsEndpoint, &ElectionRequest{
		Title:     "bad",
		Kind:      types.KindChoice,
		Options:   []string{"only-one"},
		StartTime: now,
		Deadline:  now.Add(time.Hour),
	}, nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(code, qt.Equals, ErrInvalidElectionConf.Code)
}

func TestElectionEndpoints(t *testing.T) {
	c := qt.New(t)

	srv := testServer(t)
	now := time.Now()
	e := createElection(t, srv, &ElectionRequest{
		Title:     "scheduled election",
		Kind:      types.KindChoice,
		Options:   []string{"parks", "roads"},
		OwnerRef:  "owner-1",
		StartTime: now.Add(time.Hour),
		Deadline:  now.Add(2 * time.Hour),
	})
	c.Assert(e.Status, qt.Equals, "scheduled")
	c.Assert(e.Options, qt.DeepEquals, []string{"parks", "roads"})

	list := &ElectionList{}
	status, _ := doRequest(t, http.MethodGet, srv.URL+ElectionsEndpoint, nil, list)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(list.Elections, qt.HasLen, 1)

	info := &ElectionResponse{}
	status, _ = doRequest(t, http.MethodGet, fmt.Sprintf("%s/elections/%s", srv.URL, e.ID), nil, info)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(info.Title, qt.Equals, "scheduled election")

	// tokens are refused while the election is scheduled
	addVoters(t, srv, e.ID, "voter-a")
	status, code := doRequest(t, http.MethodPost, srv.URL+TokensEndpoint,
		&TokenRequest{VoterRef: "voter-a", ElectionID: e.ID}, nil)
	c.Assert(status, qt.Equals, http.StatusConflict)
	c.Assert(code, qt.Equals, ErrBallotClosed.Code)

	// a stranger cannot close it
	status, code = doRequest(t, http.MethodPost,
		fmt.Sprintf("%s/elections/%s/close", srv.URL, e.ID), &CloseRequest{OwnerRef: "stranger"}, nil)
	c.Assert(status, qt.Equals, http.StatusForbidden)
	c.Assert(code, qt.Equals, ErrNotAuthorized.Code)
}
