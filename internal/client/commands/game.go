package commands

import (
	"context"
	"fmt"
	"strings"

	"chesstempo/internal/client/display"
	"chesstempo/internal/client/game"
	"chesstempo/internal/client/session"
)

// DemoFEN is the final decisive game of the 2014 Carlsen vs. Anand World
// Championship match.
const DemoFEN = "8/4b3/4P3/1k4P1/8/ppK5/8/4R3 b - - 1 45"

func (r *Registry) registerGameCommands() {
	r.Register(&Command{
		Name:        "play",
		ShortName:   "n",
		Description: "Start a new game and play it to the end",
		Usage:       "play [w|b] [demo|<fen>]",
		Handler:     playHandler,
	})

	r.Register(&Command{
		Name:        "continue",
		ShortName:   "c",
		Description: "Resume a game and play it to the end",
		Usage:       "continue [gameId]",
		Handler:     continueHandler,
	})

	r.Register(&Command{
		Name:        "show",
		ShortName:   "s",
		Description: "Fetch and draw a game once",
		Usage:       "show [gameId] [json]",
		Handler:     showHandler,
	})

	r.Register(&Command{
		Name:        "list",
		ShortName:   "l",
		Description: "List open games",
		Usage:       "list",
		Handler:     listHandler,
	})

	r.Register(&Command{
		Name:        "resign",
		ShortName:   "r",
		Description: "Resign a game",
		Usage:       "resign [gameId]",
		Handler:     resignHandler,
	})

	r.Register(&Command{
		Name:        "resign-all",
		ShortName:   "R",
		Description: "Resign every open game",
		Usage:       "resign-all",
		Handler:     resignAllHandler,
	})
}

// startParams merges shell arguments over the command line parameters.
func startParams(base game.StartParams, args []string) game.StartParams {
	params := base
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "w", "white":
			params.Color = "w"
			args = args[1:]
		case "b", "black":
			params.Color = "b"
			args = args[1:]
		}
	}
	if len(args) > 0 {
		if args[0] == "demo" {
			params.FEN = DemoFEN
		} else {
			params.FEN = strings.Join(args, " ")
		}
	}
	return params
}

func playHandler(ctx context.Context, env *Env, args []string) error {
	return runSession(ctx, env, session.Config{
		Start: startParams(env.Start, args),
		Delay: env.Config.Delay,
	})
}

func continueHandler(ctx context.Context, env *Env, args []string) error {
	id, err := gameArg(env, args, "continue <gameId>")
	if err != nil {
		return err
	}
	return runSession(ctx, env, session.Config{
		GameID: id,
		Delay:  env.Config.Delay,
	})
}

func runSession(ctx context.Context, env *Env, cfg session.Config) error {
	sink := display.NewSink(env.Out, !env.Config.NoClear)
	ctrl := session.New(env.Games, sink, env.Out, env.Log)
	if env.Journal != nil {
		ctrl.Journal = env.Journal
	}

	res, err := ctrl.Run(ctx, cfg)
	if res.GameID != "" {
		env.Current = res.GameID
	}
	return err
}

func showHandler(ctx context.Context, env *Env, args []string) error {
	asJSON := len(args) > 0 && args[len(args)-1] == "json"
	if asJSON {
		args = args[:len(args)-1]
	}

	id, err := gameArg(env, args, "show <gameId>")
	if err != nil {
		return err
	}

	res := env.Games.Fetch(ctx, id)
	if asJSON && len(res.Raw) > 0 {
		display.PrettyPrintJSON(env.Out, res.Raw)
	}
	if !res.OK() {
		return res.Err
	}
	env.Current = id
	if asJSON {
		return nil
	}

	snap := res.Snapshot
	if err := display.NewSink(env.Out, false).Render(snap); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Game: %s\n", id)
	fmt.Fprintf(env.Out, "Outcome: %s | Turn: %s | Color: %s\n", snap.Outcome, snap.Turn, display.ColorForSide(snap.Color))
	if len(snap.ValidMoves) > 0 {
		fmt.Fprintf(env.Out, "Valid moves: %s\n", strings.Join(snap.ValidMoves, " "))
	}
	return nil
}

func listHandler(ctx context.Context, env *Env, args []string) error {
	ids, err := env.Games.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(env.Out, id)
	}
	return nil
}

func resignHandler(ctx context.Context, env *Env, args []string) error {
	id, err := gameArg(env, args, "resign <gameId>")
	if err != nil {
		return err
	}
	if _, err := env.Games.Resign(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Resigned %s\n", id)
	return nil
}

func resignAllHandler(ctx context.Context, env *Env, args []string) error {
	resigned, err := env.Games.ResignAll(ctx)
	for _, id := range resigned {
		fmt.Fprintf(env.Out, "Resigned %s\n", id)
	}
	return err
}

// gameArg returns the explicit game argument or the current game.
func gameArg(env *Env, args []string, usage string) (game.ID, error) {
	if len(args) > 0 {
		return game.ID(args[0]), nil
	}
	if env.Current != "" {
		return env.Current, nil
	}
	return "", fmt.Errorf("please include the identifier of the game (usage: %s)", usage)
}
