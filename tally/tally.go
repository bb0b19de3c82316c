// Package tally aggregates anonymous ballots into result counts once the
// reveal gate opens.
package tally

import (
	"fmt"
	"math"
	"time"

	"go.vocdoni.io/dvote/log"

	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/types"
	"github.com/civicgraph/ballotbox/votecrypt"
)

// ErrNotYetRevealable is returned when a public tally is requested before
// the reveal gate opens.
var ErrNotYetRevealable = fmt.Errorf("results are not yet revealable")

// Engine decrypts and aggregates the ballots of an election. It only ever
// produces aggregates; there is no per-ballot output beyond the spoiled
// counter.
type Engine struct {
	st  *storage.Storage
	enc *votecrypt.Encoder
}

// NewEngine creates a tally engine over the given storage and encoder.
func NewEngine(st *storage.Storage, enc *votecrypt.Encoder) *Engine {
	return &Engine{st: st, enc: enc}
}

// CanReveal reports whether the reveal gate of an election is open at the
// given time: the deadline has passed, or the election was closed early and
// its policy reveals on close. An early close alone never opens the gate.
func (en *Engine) CanReveal(e *types.Election, now time.Time) bool {
	if !now.Before(e.Deadline) {
		return true
	}
	return e.RevealOnClose && e.ClosedAt != nil && !now.Before(*e.ClosedAt)
}

// Tally computes the public results of an election. It fails closed with
// ErrNotYetRevealable while the gate is shut. The first successful public
// tally moves the election to the Revealed state.
func (en *Engine) Tally(electionID types.HexBytes, now time.Time) (*types.Results, error) {
	e, err := en.st.Election(electionID)
	if err != nil {
		return nil, err
	}
	if !en.CanReveal(e, now) {
		return nil, ErrNotYetRevealable
	}
	res, err := en.aggregate(e)
	if err != nil {
		return nil, err
	}
	if !e.Revealed {
		if err := en.st.MarkRevealed(electionID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// TallyPreview computes results without the reveal gate. Callers must
// restrict it to the election owner; the engine itself takes no stance on
// who is asking.
func (en *Engine) TallyPreview(electionID types.HexBytes) (*types.Results, error) {
	e, err := en.st.Election(electionID)
	if err != nil {
		return nil, err
	}
	return en.aggregate(e)
}

func (en *Engine) aggregate(e *types.Election) (*types.Results, error) {
	res := &types.Results{
		ElectionID: e.ID,
		Counts:     make(map[string]uint64, len(e.ChoiceSet())),
	}
	for _, opt := range e.ChoiceSet() {
		res.Counts[opt] = 0
	}
	if err := en.st.IterateBallots(e.ID, func(b *types.Ballot) bool {
		choice, err := en.enc.Decode(e.ID, b.Payload)
		if err != nil || !e.ValidChoice(choice) {
			// A ballot that cannot be decoded, or decodes outside the option
			// set, counts as spoiled rather than aborting the whole tally.
			res.Spoiled++
			log.Warnw("spoiled ballot", "electionId", e.ID.String(), "contentHash", b.ContentHash.String())
			return true
		}
		res.Counts[choice]++
		res.Total++
		return true
	}); err != nil {
		return nil, err
	}
	if res.Total > 0 {
		res.Percentages = make(map[string]float64, len(res.Counts))
		for opt, count := range res.Counts {
			res.Percentages[opt] = round2(float64(count) / float64(res.Total) * 100)
		}
	}
	return res, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
