// Package session drives a single game from start (or resume) to its
// outcome: poll, render, decide, move, wait, repeat.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"chesstempo/internal/client/display"
	"chesstempo/internal/client/game"
	"chesstempo/internal/journal"

	"github.com/go-logr/logr"
)

// DefaultDelay is the pause between two polls.
const DefaultDelay = time.Second

var ErrNoValidMoves = errors.New("no valid moves while the game is in progress")

// Operations are the game calls the loop needs.
type Operations interface {
	Create(ctx context.Context, params game.StartParams) (game.ID, error)
	Fetch(ctx context.Context, id game.ID) game.FetchResult
	SubmitMove(ctx context.Context, id game.ID, move string) (*game.MoveReply, error)
}

type Renderer interface {
	Render(snap *game.Snapshot) error
}

// Journal records what a session did. Implementations must not block.
type Journal interface {
	RecordGame(record journal.GameRecord) error
	RecordMove(record journal.MoveRecord) error
	RecordOutcome(gameID, outcome, method string) error
}

// Config is resolved once by the caller. A non-empty GameID resumes that
// game without checking it exists; otherwise a game is created from Start.
type Config struct {
	GameID game.ID
	Start  game.StartParams
	Delay  time.Duration
}

// Result describes how a session ended.
type Result struct {
	GameID game.ID
	State  State
	Moves  []string
	Last   *game.Snapshot
}

type Controller struct {
	ops   Operations
	sink  Renderer
	out   io.Writer
	log   logr.Logger
	color bool

	Journal Journal
	// Pick returns a uniformly random index in [0, n).
	Pick  func(n int) int
	Sleep func(ctx context.Context, d time.Duration) error
	// OnState observes every transition.
	OnState func(from, to State)
}

func New(ops Operations, sink Renderer, out io.Writer, log logr.Logger) *Controller {
	return &Controller{
		ops:   ops,
		sink:  sink,
		out:   out,
		log:   log.WithName("session"),
		color: display.IsTerminal(out),
		Pick:  rand.IntN,
		Sleep: sleep,
	}
}

// Run plays until the game concludes or an unrecoverable error happens.
// The returned Result is never nil; the error is non-nil exactly when the
// session ends in StateError.
func (c *Controller) Run(ctx context.Context, cfg Config) (*Result, error) {
	res := &Result{GameID: cfg.GameID, State: StateInitializing}

	if res.GameID == "" {
		id, err := c.ops.Create(ctx, cfg.Start)
		if err != nil {
			return c.fail(res, err)
		}
		res.GameID = id
	}

	start := cfg.Start
	if cfg.GameID != "" {
		start = game.StartParams{}
	}
	c.record(func(j Journal) error {
		return j.RecordGame(journal.GameRecord{
			GameID:     string(res.GameID),
			InitialFEN: start.FEN,
			Color:      start.Color,
			StartedAt:  time.Now().UTC(),
		})
	})

	fmt.Fprintf(c.out, "Game started %s\n", res.GameID)
	log := c.log.WithValues("game", res.GameID)
	c.transition(res, StatePolling)

	for {
		fetched := c.ops.Fetch(ctx, res.GameID)
		if !fetched.OK() {
			return c.fail(res, fetched.Err)
		}
		snap := fetched.Snapshot
		res.Last = snap

		if err := c.sink.Render(snap); err != nil {
			return c.fail(res, err)
		}
		fmt.Fprintf(c.out, "Game: %s\n", res.GameID)

		if snap.Concluded() {
			c.println(display.Green, "Done!")
			fmt.Fprintf(c.out, "Outcome: %s\n", describeOutcome(snap))
			c.record(func(j Journal) error {
				return j.RecordOutcome(string(res.GameID), string(snap.Outcome), methodName(snap))
			})
			c.transition(res, StateComplete)
			return res, nil
		}

		if len(snap.ValidMoves) == 0 {
			if snap.Turn != game.TurnMachine {
				return c.fail(res, ErrNoValidMoves)
			}
			log.V(1).Info("Waiting for the service to move")
			if err := c.Sleep(ctx, cfg.Delay); err != nil {
				return c.fail(res, err)
			}
			continue
		}

		move := snap.ValidMoves[c.Pick(len(snap.ValidMoves))]
		c.transition(res, StateAwaitingMove)

		if _, err := c.ops.SubmitMove(ctx, res.GameID, move); err != nil {
			return c.fail(res, err)
		}
		res.Moves = append(res.Moves, move)
		log.V(1).Info("Move submitted", "move", move, "ply", len(res.Moves))

		c.record(func(j Journal) error {
			return j.RecordMove(journal.MoveRecord{
				GameID:    string(res.GameID),
				MoveUCI:   move,
				FENBefore: snap.FEN,
				Color:     snap.Color,
				PlayedAt:  time.Now().UTC(),
			})
		})

		fmt.Fprintf(c.out, "Last move: %s\n", move)
		fmt.Fprintf(c.out, "Outcome: %s\n", snap.Outcome)
		fmt.Fprintf(c.out, "%s %s\n", snap.Turn, snap.Color)

		if err := c.Sleep(ctx, cfg.Delay); err != nil {
			return c.fail(res, err)
		}
		c.transition(res, StatePolling)
	}
}

func (c *Controller) fail(res *Result, err error) (*Result, error) {
	c.println(display.Red, "Error! "+err.Error())
	c.transition(res, StateError)
	return res, err
}

func (c *Controller) transition(res *Result, to State) {
	from := res.State
	if from.Terminated() {
		panic(fmt.Sprintf("session: transition from terminated state %s to %s", from, to))
	}
	res.State = to
	if c.OnState != nil {
		c.OnState(from, to)
	}
}

func (c *Controller) record(fn func(Journal) error) {
	if c.Journal == nil {
		return
	}
	if err := fn(c.Journal); err != nil {
		c.log.Error(err, "Failed to record session")
	}
}

func (c *Controller) println(color, text string) {
	if c.color {
		display.Fprintln(c.out, color, text)
		return
	}
	fmt.Fprintln(c.out, text)
}

func describeOutcome(snap *game.Snapshot) string {
	if name := methodName(snap); name != "" {
		return fmt.Sprintf("%s (%s)", snap.Outcome, name)
	}
	return string(snap.Outcome)
}

func methodName(snap *game.Snapshot) string {
	if snap.Method == 0 {
		return ""
	}
	return fmt.Sprintf("%v", snap.Method)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
