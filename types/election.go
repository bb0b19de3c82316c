package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// BallotKind selects the shape of the option set for an election.
type BallotKind string

const (
	// KindBinary is a fixed yes/no/abstain ballot.
	KindBinary BallotKind = "binary"
	// KindChoice is a multiple-choice ballot over an enumerated option set.
	KindChoice BallotKind = "choice"
)

// BinaryOptions is the closed option set of a binary ballot.
var BinaryOptions = []string{"yes", "no", "abstain"}

// ElectionStatus follows the lifecycle of an election:
// Scheduled -> Open -> Closed -> Revealed.
type ElectionStatus uint8

const (
	StatusScheduled ElectionStatus = iota
	StatusOpen
	StatusClosed
	StatusRevealed
)

func (s ElectionStatus) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	case StatusRevealed:
		return "revealed"
	}
	return "unknown"
}

// ElectionIDSize is the length in bytes of an election identifier.
const ElectionIDSize = 16

// Election is the ballot configuration of a single voting topic. It is the
// only artifact that carries an owner reference; ballots never do.
type Election struct {
	ID            HexBytes   `json:"id,omitempty"            cbor:"0,keyasint,omitempty"`
	Title         string     `json:"title"                   cbor:"1,keyasint,omitempty"`
	Kind          BallotKind `json:"kind"                    cbor:"2,keyasint,omitempty"`
	Options       []string   `json:"options,omitempty"       cbor:"3,keyasint,omitempty"`
	OwnerRef      string     `json:"ownerRef,omitempty"      cbor:"4,keyasint,omitempty"`
	StartTime     time.Time  `json:"startTime"               cbor:"5,keyasint,omitempty"`
	Deadline      time.Time  `json:"deadline"                cbor:"6,keyasint,omitempty"`
	RevealOnClose bool       `json:"revealOnClose,omitempty" cbor:"7,keyasint,omitempty"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"      cbor:"8,keyasint,omitempty"`
	Revealed      bool       `json:"revealed,omitempty"      cbor:"9,keyasint,omitempty"`
}

func (e *Election) String() string {
	data, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return string(data)
}

// Validate checks that the configuration is internally consistent.
func (e *Election) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("missing title")
	}
	if e.Deadline.IsZero() || !e.Deadline.After(e.StartTime) {
		return fmt.Errorf("deadline must be after start time")
	}
	switch e.Kind {
	case KindBinary:
		if len(e.Options) > 0 {
			return fmt.Errorf("binary ballots have a fixed option set")
		}
	case KindChoice:
		if len(e.Options) < 2 {
			return fmt.Errorf("choice ballots need at least two options")
		}
		seen := make(map[string]bool, len(e.Options))
		for _, opt := range e.Options {
			if opt == "" {
				return fmt.Errorf("empty option")
			}
			if seen[opt] {
				return fmt.Errorf("duplicated option %q", opt)
			}
			seen[opt] = true
		}
	default:
		return fmt.Errorf("unknown ballot kind %q", e.Kind)
	}
	return nil
}

// ChoiceSet returns the option set valid for this election.
func (e *Election) ChoiceSet() []string {
	if e.Kind == KindBinary {
		return BinaryOptions
	}
	return e.Options
}

// ValidChoice reports whether choice belongs to the configured option set.
func (e *Election) ValidChoice(choice string) bool {
	for _, opt := range e.ChoiceSet() {
		if opt == choice {
			return true
		}
	}
	return false
}

// StatusAt derives the election status at the given time. An early close
// moves the election to Closed before its deadline; the Revealed flag is set
// by the tally engine after the first public tally.
func (e *Election) StatusAt(now time.Time) ElectionStatus {
	if e.Revealed {
		return StatusRevealed
	}
	if e.ClosedAt != nil && !now.Before(*e.ClosedAt) {
		return StatusClosed
	}
	if now.Before(e.StartTime) {
		return StatusScheduled
	}
	if now.Before(e.Deadline) {
		return StatusOpen
	}
	return StatusClosed
}

// IsOpen reports whether ballots can be cast at the given time.
func (e *Election) IsOpen(now time.Time) bool {
	return e.StatusAt(now) == StatusOpen
}
