// Package main implements chesstempo, a terminal client that plays games
// against a remote chess service by picking random valid moves.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chesstempo/internal/client/api"
	"chesstempo/internal/client/commands"
	"chesstempo/internal/client/display"
	"chesstempo/internal/client/game"
	"chesstempo/internal/config"
	"chesstempo/internal/journal"
)

type options struct {
	configPath string
	url        string
	verbosity  int
	delay      time.Duration
	noClear    bool
	journal    string

	resign    string
	resignAll bool
	list      bool
	history   bool
	cont      string
	demo      bool
	fen       string
	white     bool
	black     bool
	shell     bool
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Optional YAML config file")
	flag.StringVar(&opts.url, "url", "", "Game service API base URL")
	flag.IntVar(&opts.verbosity, "v", 0, "Diagnostic log verbosity")
	flag.DurationVar(&opts.delay, "delay", 0, "Pause between two polls")
	flag.BoolVar(&opts.noClear, "no-clear", false, "Do not clear the terminal before drawing the board")
	flag.StringVar(&opts.journal, "journal", "", "Path of the SQLite session journal")

	flag.StringVar(&opts.resign, "resign", "", "Resign the game with this identifier and exit")
	flag.BoolVar(&opts.resignAll, "resign-all", false, "Resign every open game and exit")
	flag.BoolVar(&opts.list, "list", false, "List open games and exit")
	flag.BoolVar(&opts.history, "history", false, "Show the journal, or the moves of the game given as argument")
	flag.StringVar(&opts.cont, "continue", "", "Resume the game with this identifier")
	flag.BoolVar(&opts.demo, "demo", false, "Start from the final position of the 2014 World Championship")
	flag.StringVar(&opts.fen, "fen", "", "Start from this FEN position")
	flag.BoolVar(&opts.white, "white", false, "Play white")
	flag.BoolVar(&opts.black, "black", false, "Play black")
	flag.BoolVar(&opts.shell, "i", false, "Start the interactive shell")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [gameId]\n\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), "\n%s\n", config.Usage())
	}
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fatal(err)
	}
	applyFlags(cfg, &opts)
	if err := cfg.Validate(); err != nil {
		return fatal(err)
	}

	start, err := startParams(&opts)
	if err != nil {
		return fatal(err)
	}

	log := config.NewLogger(os.Stderr, cfg.Verbosity)
	client := api.New(cfg.BaseURL, log)

	env := &commands.Env{
		Client: client,
		Games:  game.NewService(client, os.Stdout, log),
		Config: cfg,
		Out:    os.Stdout,
		Log:    log,
		Start:  start,
	}

	if cfg.Journal != "" {
		store, err := journal.NewStore(cfg.Journal, log)
		if err != nil {
			return fatal(err)
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			return fatal(err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error(err, "Failed to close journal cleanly")
			}
		}()
		env.Journal = store
	} else {
		log.V(1).Info("Journal disabled (use -journal to enable)")
	}

	registry := commands.NewRegistry(env)

	if opts.shell {
		if err := runShell(registry, cfg.History); err != nil {
			return fatal(err)
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name, args := dispatch(&opts, flag.Args())
	if err := registry.Run(ctx, name, args); err != nil {
		// The session loop reports its own failure.
		if name == "play" || name == "continue" {
			return 1
		}
		return fatal(err)
	}
	return 0
}

// applyFlags overrides config values with the flags given explicitly.
func applyFlags(cfg *config.Config, opts *options) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.BaseURL = opts.url
		case "v":
			cfg.Verbosity = opts.verbosity
		case "delay":
			cfg.Delay = opts.delay
		case "no-clear":
			cfg.NoClear = opts.noClear
		case "journal":
			cfg.Journal = opts.journal
		}
	})
}

func startParams(opts *options) (game.StartParams, error) {
	var params game.StartParams

	if opts.white && opts.black {
		return params, errors.New("-white and -black are mutually exclusive")
	}
	if opts.demo && opts.fen != "" {
		return params, errors.New("-demo and -fen are mutually exclusive")
	}

	switch {
	case opts.white:
		params.Color = "w"
	case opts.black:
		params.Color = "b"
	}

	switch {
	case opts.demo:
		params.FEN = commands.DemoFEN
	case opts.fen != "":
		params.FEN = opts.fen
	}

	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// dispatch maps the one-shot flags to a command. Playing a new game is the
// default.
func dispatch(opts *options, rest []string) (string, []string) {
	switch {
	case opts.resign != "":
		return "resign", []string{opts.resign}
	case opts.resignAll:
		return "resign-all", nil
	case opts.list:
		return "list", nil
	case opts.history:
		return "history", rest
	case opts.cont != "":
		return "continue", []string{opts.cont}
	case len(rest) > 0:
		return "continue", rest[:1]
	default:
		return "play", nil
	}
}

func fatal(err error) int {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", display.Red, err.Error(), display.Reset)
	return 1
}
