package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"chesstempo/internal/journal"
)

var ErrNoJournal = errors.New("journal disabled, start with -journal <path>")

func (r *Registry) registerHistoryCommands() {
	r.Register(&Command{
		Name:        "history",
		ShortName:   "h",
		Description: "Show journaled games, or the moves of one game",
		Usage:       "history [gameId]",
		Handler:     historyHandler,
	})
}

func historyHandler(ctx context.Context, env *Env, args []string) error {
	if env.Journal == nil {
		return ErrNoJournal
	}

	if len(args) > 0 && args[0] != "*" {
		return printMoves(env, args[0])
	}

	games, err := env.Journal.QueryGames("")
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(games) == 0 {
		fmt.Fprintln(env.Out, "No games found")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Game ID\tColor\tOutcome\tStart Time\tStart Position")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, g := range games {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			g.GameID,
			orDash(g.Color),
			describeRecord(g),
			g.StartedAt.Format("2006-01-02 15:04:05"),
			orDash(g.InitialFEN),
		)
	}
	w.Flush()

	fmt.Fprintf(env.Out, "\nFound %d game(s)\n", len(games))
	return nil
}

func printMoves(env *Env, gameID string) error {
	games, err := env.Journal.QueryGames(gameID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	if len(games) == 0 {
		return fmt.Errorf("game %s not found in journal", gameID)
	}

	moves, err := env.Journal.Moves(gameID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Fprintf(env.Out, "Game: %s\nOutcome: %s\n\n", gameID, describeRecord(games[0]))

	w := tabwriter.NewWriter(env.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ply\tMove\tColor\tPlayed At")
	for _, m := range moves {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.Ply, m.MoveUCI, m.Color, m.PlayedAt.Format("15:04:05"))
	}
	w.Flush()

	fmt.Fprintf(env.Out, "\n%d move(s)\n", len(moves))
	return nil
}

func describeRecord(g journal.GameRecord) string {
	if g.Method != "" {
		return fmt.Sprintf("%s (%s)", g.Outcome, g.Method)
	}
	return g.Outcome
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
