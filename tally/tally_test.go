package tally

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/token"
	"github.com/civicgraph/ballotbox/types"
	"github.com/civicgraph/ballotbox/util"
	"github.com/civicgraph/ballotbox/votecrypt"
	"github.com/civicgraph/ballotbox/voting"
)

type fixture struct {
	stg    *storage.Storage
	engine *Engine
	issuer *token.Issuer
	caster *voting.Caster
	e      *types.Election
}

func testSetup(t *testing.T, e *types.Election) *fixture {
	stg := storage.New(metadb.NewTest(t))
	enc, err := votecrypt.New(util.RandomBytes(votecrypt.KeySize))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, stg.SetElection(e), qt.IsNil)
	return &fixture{
		stg:    stg,
		engine: NewEngine(stg, enc),
		issuer: token.NewIssuer(stg, token.NewRoll(stg)),
		caster: voting.NewCaster(stg, enc),
		e:      e,
	}
}

func (f *fixture) vote(t *testing.T, voterRef, choice string, now time.Time) {
	_, err := f.stg.AddVoters(f.e.ID, []string{voterRef})
	qt.Assert(t, err, qt.IsNil)
	tok, err := f.issuer.Issue(voterRef, f.e.ID, now)
	qt.Assert(t, err, qt.IsNil)
	_, err = f.caster.Cast(tok.Token, f.e.ID, choice, now)
	qt.Assert(t, err, qt.IsNil)
}

// Ballot opens an hour ago with a deadline an hour from now; voter A casts
// "yes", voter B casts "no". Before the deadline the public tally fails
// closed; at the deadline it returns {yes:1, no:1, abstain:0} with 50/50
// percentages.
func TestTallyScenario(t *testing.T) {
	c := qt.New(t)

	now := time.Now()
	f := testSetup(t, &types.Election{
		ID:        util.RandomBytes(types.ElectionIDSize),
		Title:     "binary scenario",
		Kind:      types.KindBinary,
		OwnerRef:  "owner-1",
		StartTime: now.Add(-time.Hour),
		Deadline:  now.Add(time.Hour),
	})
	f.vote(t, "voter-a", "yes", now)
	f.vote(t, "voter-b", "no", now)

	// voter A cannot get a second token
	_, err := f.issuer.Issue("voter-a", f.e.ID, now)
	c.Assert(err, qt.ErrorIs, storage.ErrAlreadyIssued)

	// public tally fails closed before the deadline
	_, err = f.engine.Tally(f.e.ID, now)
	c.Assert(err, qt.ErrorIs, ErrNotYetRevealable)

	// at the deadline the gate opens
	res, err := f.engine.Tally(f.e.ID, f.e.Deadline)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Total, qt.Equals, uint64(2))
	c.Assert(res.Counts, qt.DeepEquals, map[string]uint64{"yes": 1, "no": 1, "abstain": 0})
	c.Assert(res.Percentages["yes"], qt.Equals, 50.0)
	c.Assert(res.Percentages["no"], qt.Equals, 50.0)
	c.Assert(res.Percentages["abstain"], qt.Equals, 0.0)

	// the election is now revealed
	e, err := f.stg.Election(f.e.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(e.Revealed, qt.IsTrue)
	c.Assert(e.StatusAt(f.e.Deadline), qt.Equals, types.StatusRevealed)
}

func TestTallyEmptyElection(t *testing.T) {
	c := qt.New(t)

	now := time.Now()
	f := testSetup(t, &types.Election{
		ID:        util.RandomBytes(types.ElectionIDSize),
		Title:     "nobody voted",
		Kind:      types.KindBinary,
		OwnerRef:  "owner-1",
		StartTime: now.Add(-2 * time.Hour),
		Deadline:  now.Add(-time.Hour),
	})
	res, err := f.engine.Tally(f.e.ID, now)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Total, qt.Equals, uint64(0))
	// no division by zero: percentages stay empty
	c.Assert(res.Percentages, qt.HasLen, 0)
}

func TestTallyMultipleChoice(t *testing.T) {
	c := qt.New(t)

	now := time.Now()
	f := testSetup(t, &types.Election{
		ID:        util.RandomBytes(types.ElectionIDSize),
		Title:     "budget priorities",
		Kind:      types.KindChoice,
		Options:   []string{"parks", "roads", "schools"},
		OwnerRef:  "owner-1",
		StartTime: now.Add(-time.Hour),
		Deadline:  now.Add(time.Hour),
	})
	f.vote(t, "voter-a", "parks", now)
	f.vote(t, "voter-b", "parks", now)
	f.vote(t, "voter-c", "schools", now)

	res, err := f.engine.Tally(f.e.ID, f.e.Deadline)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Total, qt.Equals, uint64(3))
	c.Assert(res.Counts, qt.DeepEquals, map[string]uint64{"parks": 2, "roads": 0, "schools": 1})
	c.Assert(res.Percentages["parks"], qt.Equals, 66.67)
	c.Assert(res.Percentages["schools"], qt.Equals, 33.33)
}

// A ballot that cannot be decoded with the service key is counted as
// spoiled; it never aborts the tally and never inflates the totals.
func TestTallySpoiledBallot(t *testing.T) {
	c := qt.New(t)

	now := time.Now()
	f := testSetup(t, &types.Election{
		ID:        util.RandomBytes(types.ElectionIDSize),
		Title:     "spoiled ballot",
		Kind:      types.KindBinary,
		OwnerRef:  "owner-1",
		StartTime: now.Add(-time.Hour),
		Deadline:  now.Add(time.Hour),
	})
	f.vote(t, "voter-a", "yes", now)

	// seal a payload under a foreign key and store it through the regular
	// casting path of a second voter
	foreign, err := votecrypt.New(util.RandomBytes(votecrypt.KeySize))
	c.Assert(err, qt.IsNil)
	payload, err := foreign.Encode(f.e.ID, "no")
	c.Assert(err, qt.IsNil)
	_, err = f.stg.AddVoters(f.e.ID, []string{"voter-b"})
	c.Assert(err, qt.IsNil)
	tok, err := f.issuer.Issue("voter-b", f.e.ID, now)
	c.Assert(err, qt.IsNil)
	c.Assert(f.stg.CastBallot(&types.Ballot{
		ElectionID:  f.e.ID,
		Payload:     payload,
		ContentHash: votecrypt.ContentHash(payload),
		CreatedAt:   now,
	}, tok.Token, now), qt.IsNil)

	res, err := f.engine.Tally(f.e.ID, f.e.Deadline)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Spoiled, qt.Equals, uint64(1))
	c.Assert(res.Total, qt.Equals, uint64(1))
	c.Assert(res.Counts, qt.DeepEquals, map[string]uint64{"yes": 1, "no": 0, "abstain": 0})
	c.Assert(res.Percentages["yes"], qt.Equals, 100.0)
}

func TestTallyPreviewBeforeDeadline(t *testing.T) {
	c := qt.New(t)

	now := time.Now()
	f := testSetup(t, &types.Election{
		ID:        util.RandomBytes(types.ElectionIDSize),
		Title:     "preview",
		Kind:      types.KindBinary,
		OwnerRef:  "owner-1",
		StartTime: now.Add(-time.Hour),
		Deadline:  now.Add(time.Hour),
	})
	f.vote(t, "voter-a", "abstain", now)

	res, err := f.engine.TallyPreview(f.e.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Total, qt.Equals, uint64(1))

	// the preview does not reveal the election
	e, err := f.stg.Election(f.e.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(e.Revealed, qt.IsFalse)
}

func TestRevealGateWithEarlyClose(t *testing.T) {
	c := qt.New(t)

	now := time.Now()
	f := testSetup(t, &types.Election{
		ID:            util.RandomBytes(types.ElectionIDSize),
		Title:         "early close",
		Kind:          types.KindBinary,
		OwnerRef:      "owner-1",
		StartTime:     now.Add(-time.Hour),
		Deadline:      now.Add(time.Hour),
		RevealOnClose: true,
	})
	f.vote(t, "voter-a", "yes", now)

	_, err := f.engine.Tally(f.e.ID, now)
	c.Assert(err, qt.ErrorIs, ErrNotYetRevealable)

	_, err = f.stg.CloseElection(f.e.ID, "owner-1", now)
	c.Assert(err, qt.IsNil)

	res, err := f.engine.Tally(f.e.ID, now.Add(time.Minute))
	c.Assert(err, qt.IsNil)
	c.Assert(res.Counts["yes"], qt.Equals, uint64(1))
}

func TestEarlyCloseWithoutRevealPolicy(t *testing.T) {
	c := qt.New(t)

	now := time.Now()
	f := testSetup(t, &types.Election{
		ID:        util.RandomBytes(types.ElectionIDSize),
		Title:     "sealed until deadline",
		Kind:      types.KindBinary,
		OwnerRef:  "owner-1",
		StartTime: now.Add(-time.Hour),
		Deadline:  now.Add(time.Hour),
	})
	f.vote(t, "voter-a", "yes", now)
	_, err := f.stg.CloseElection(f.e.ID, "owner-1", now)
	c.Assert(err, qt.IsNil)

	// closed early, but the gate stays shut until the deadline
	_, err = f.engine.Tally(f.e.ID, now.Add(time.Minute))
	c.Assert(err, qt.ErrorIs, ErrNotYetRevealable)
	res, err := f.engine.Tally(f.e.ID, f.e.Deadline)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Total, qt.Equals, uint64(1))
}
