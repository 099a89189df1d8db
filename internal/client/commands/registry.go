// Package commands holds the client commands shared by the one-shot flag
// mode and the interactive shell.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"chesstempo/internal/client/api"
	"chesstempo/internal/client/display"
	"chesstempo/internal/client/game"
	"chesstempo/internal/config"
	"chesstempo/internal/journal"

	"github.com/go-logr/logr"
)

// ErrExit is returned by the exit command.
var ErrExit = errors.New("exit requested")

// Env is what commands operate on. It is built once by main.
type Env struct {
	Client  *api.Client
	Games   *game.Service
	Config  *config.Config
	Journal *journal.Store // nil when the journal is disabled
	Out     io.Writer
	Log     logr.Logger

	// Start holds the start parameters given on the command line.
	Start game.StartParams
	// Current is the game last played, continued or shown.
	Current game.ID
}

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(ctx context.Context, env *Env, args []string) error
}

type Registry struct {
	env      *Env
	commands map[string]*Command
}

// NewRegistry registers every command against env.
func NewRegistry(env *Env) *Registry {
	r := &Registry{
		env:      env,
		commands: make(map[string]*Command),
	}

	r.registerGameCommands()
	r.registerHistoryCommands()
	r.registerDebugCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})

	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Description: "Exit the client",
		Usage:       "exit",
		Handler: func(context.Context, *Env, []string) error {
			return ErrExit
		},
	})

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
}

// Env returns the environment the commands run against.
func (r *Registry) Env() *Env {
	return r.env
}

// Run executes a command by name and returns its error.
func (r *Registry) Run(ctx context.Context, name string, args []string) error {
	cmd, exists := r.commands[name]
	if !exists {
		return fmt.Errorf("unknown command: %s", name)
	}
	return cmd.Handler(ctx, r.env, args)
}

// Execute parses and runs one shell line, printing any error. It returns
// false once the shell should stop.
func (r *Registry) Execute(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmdName := parts[0]
	if _, exists := r.commands[cmdName]; !exists {
		fmt.Fprintf(r.env.Out, "%sUnknown command: %s%s\n", display.Red, cmdName, display.Reset)
		fmt.Fprintf(r.env.Out, "Type 'help' for available commands\n")
		return true
	}

	err := r.Run(ctx, cmdName, parts[1:])
	if errors.Is(err, ErrExit) {
		return false
	}
	if err != nil {
		fmt.Fprintf(r.env.Out, "%sError: %s%s\n", display.Red, err.Error(), display.Reset)
	}
	return true
}

func (r *Registry) helpHandler(ctx context.Context, env *Env, args []string) error {
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(env.Out, "\n%s%s%s - %s\n", display.Cyan, cmd.Name, display.Reset, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(env.Out, "Short form: %s%s%s\n", display.Cyan, cmd.ShortName, display.Reset)
		}
		fmt.Fprintf(env.Out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(env.Out, "\n%sAvailable Commands:%s\n\n", display.Cyan, display.Reset)

	printCommandGroup := func(title string, names []string) {
		fmt.Fprintf(env.Out, "%s%s:%s\n", display.Yellow, title, display.Reset)
		for _, name := range names {
			cmd, exists := r.commands[name]
			if !exists {
				continue
			}
			shortPart := "    "
			if cmd.ShortName != "" {
				shortPart = fmt.Sprintf("[%s%s%s] ", display.Cyan, cmd.ShortName, display.Reset)
			}
			fmt.Fprintf(env.Out, "  %s%-12s %s\n", shortPart, cmd.Name, cmd.Description)
		}
	}

	printCommandGroup("Game Commands", []string{"play", "continue", "show", "list", "resign", "resign-all"})
	fmt.Fprintln(env.Out)
	printCommandGroup("Journal Commands", []string{"history"})
	fmt.Fprintln(env.Out)
	printCommandGroup("Utility Commands", []string{"url", "raw", "clear", "help", "exit"})

	fmt.Fprintf(env.Out, "\nType 'help <command>' for detailed usage\n")
	return nil
}

// Names returns the registered long command names, sorted.
func (r *Registry) Names() []string {
	var names []string
	for key, cmd := range r.commands {
		if key == cmd.Name {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}
