package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"chesstempo/internal/client/commands"
	"chesstempo/internal/client/display"

	"github.com/chzyer/readline"
)

func runShell(registry *commands.Registry, historyFile string) error {
	env := registry.Env()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          display.Prompt("chesstempo"),
		HistoryFile:     historyFile,
		AutoComplete:    completer(registry),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintf(env.Out, "%sChesstempo Client%s\n", display.Cyan, display.Reset)
	fmt.Fprintf(env.Out, "%sAPI: %s%s\n", display.Cyan, env.Client.BaseURL, display.Reset)
	fmt.Fprintf(env.Out, "Type 'help' for commands\n\n")

	for {
		rl.SetPrompt(buildPrompt(env))

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		// Ctrl-C while a command runs cancels that command only.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		more := registry.Execute(ctx, line)
		stop()
		if !more {
			break
		}
	}

	display.Fprintln(env.Out, display.Cyan, "Goodbye!")
	return nil
}

func completer(registry *commands.Registry) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range registry.Names() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func buildPrompt(env *commands.Env) string {
	promptStr := "chesstempo"
	if id := string(env.Current); id != "" {
		if len(id) > 8 {
			id = id[:8]
		}
		promptStr += display.Yellow + " [" + display.White + id + display.Yellow + "]"
	}
	if env.Journal != nil {
		promptStr += display.Magenta + " *" + display.Reset
	}
	return display.Prompt(promptStr)
}
