package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/notnil/chess"
)

var validate = validator.New()

var (
	ErrMalformedSnapshot = errors.New("malformed game snapshot")
	ErrInvalidParams     = errors.New("invalid start parameters")
)

// ID names a game instance on the service.
type ID string

// InProgress is the outcome reported while the game is still being played.
const InProgress = chess.NoOutcome

// Turn tells whose move the service is waiting for.
type Turn uint8

const (
	TurnUser    Turn = 0
	TurnMachine Turn = 1
)

func (t Turn) String() string {
	switch t {
	case TurnUser:
		return "User"
	case TurnMachine:
		return "Machine"
	}
	return "unknown"
}

func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the service's string form as well as the numeric
// form. Anything else is rejected.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		switch strings.ToLower(str) {
		case "user":
			*t = TurnUser
		case "machine":
			*t = TurnMachine
		default:
			return fmt.Errorf("unknown turn %q", str)
		}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unknown turn %s", string(data))
	}
	switch Turn(n) {
	case TurnUser, TurnMachine:
		*t = Turn(n)
		return nil
	}
	return fmt.Errorf("unknown turn %d", n)
}

// Snapshot is one fetched view of a game. It is never mutated after decoding.
type Snapshot struct {
	FEN        string
	Board      string
	Outcome    chess.Outcome
	Method     chess.Method
	ValidMoves []string
	Turn       Turn
	Color      string
}

// Concluded reports whether the outcome is terminal.
func (s *Snapshot) Concluded() bool {
	return s.Outcome != InProgress
}

// HasMove reports whether move is one of the snapshot's valid moves.
func (s *Snapshot) HasMove(move string) bool {
	for _, m := range s.ValidMoves {
		if m == move {
			return true
		}
	}
	return false
}

// snapshotDoc is the wire form. ValidMoves is kept raw so that a missing
// key can be told apart from an explicit null.
type snapshotDoc struct {
	FEN        string          `json:"FEN"`
	Board      string          `json:"Board" validate:"required"`
	Outcome    string          `json:"Outcome" validate:"required"`
	Method     chess.Method    `json:"Method"`
	ValidMoves json.RawMessage `json:"ValidMoves" validate:"required"`
	Turn       *Turn           `json:"Turn" validate:"required"`
	Color      string          `json:"Color" validate:"required"`
}

// DecodeSnapshot parses and validates an info document.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedSnapshot, describe(err))
	}

	var moves []string
	if err := json.Unmarshal(doc.ValidMoves, &moves); err != nil {
		return nil, fmt.Errorf("%w: ValidMoves: %v", ErrMalformedSnapshot, err)
	}

	return &Snapshot{
		FEN:        doc.FEN,
		Board:      doc.Board,
		Outcome:    chess.Outcome(doc.Outcome),
		Method:     doc.Method,
		ValidMoves: moves,
		Turn:       *doc.Turn,
		Color:      doc.Color,
	}, nil
}

// StartParams selects the initial position and the client's colour. The
// zero value asks for the service defaults.
type StartParams struct {
	FEN   string `json:"fen,omitempty"`
	Color string `json:"color,omitempty" validate:"omitempty,oneof=w b"`
}

// Validate checks the colour and that FEN parses as a chess position.
func (p StartParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParams, describe(err))
	}
	if p.FEN != "" {
		if _, err := chess.FEN(p.FEN); err != nil {
			return fmt.Errorf("%w: fen: %v", ErrInvalidParams, err)
		}
	}
	return nil
}

// FetchResult distinguishes an obtained snapshot from a failed fetch.
// Raw holds the response body even when the fetch failed.
type FetchResult struct {
	Snapshot *Snapshot
	Raw      []byte
	Err      error
}

func (r FetchResult) OK() bool {
	return r.Err == nil && r.Snapshot != nil
}

// Ack is the service's acknowledgement for signals such as move and resign.
type Ack struct {
	OK bool `json:"OK"`
}

// MoveReply carries either a fresh snapshot or a bare acknowledgement,
// depending on what the service answers.
type MoveReply struct {
	Ack
	Snapshot *Snapshot
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	var details strings.Builder
	for _, e := range verrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		switch e.Tag() {
		case "required":
			details.WriteString(fmt.Sprintf("%s is required", e.Field()))
		case "oneof":
			details.WriteString(fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param()))
		default:
			details.WriteString(fmt.Sprintf("%s failed %s validation", e.Field(), e.Tag()))
		}
	}
	return details.String()
}
