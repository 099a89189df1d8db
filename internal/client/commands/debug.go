package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chesstempo/internal/client/display"
)

func (r *Registry) registerDebugCommands() {
	r.Register(&Command{
		Name:        "url",
		ShortName:   "/",
		Description: "Show or set the service base URL",
		Usage:       "url [apiUrl]",
		Handler:     urlHandler,
	})

	r.Register(&Command{
		Name:        "raw",
		ShortName:   ":",
		Description: "Send raw API request",
		Usage:       "raw <method> <path> [json-body]",
		Handler:     rawRequestHandler,
	})

	r.Register(&Command{
		Name:        "clear",
		ShortName:   "-",
		Description: "Clear screen",
		Usage:       "clear",
		Handler:     clearHandler,
	})
}

func urlHandler(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(env.Out, "Current API URL: %s\n", env.Client.BaseURL)
		return nil
	}

	url := args[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	env.Client.SetBaseURL(url)
	env.Config.BaseURL = url

	fmt.Fprintf(env.Out, "%sAPI URL set to: %s%s\n", display.Cyan, url, display.Reset)
	return nil
}

func rawRequestHandler(ctx context.Context, env *Env, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: raw <method> <path> [json-body]")
	}

	method := strings.ToUpper(args[0])
	path := args[1]

	var body interface{}
	if len(args) > 2 {
		raw := strings.Join(args[2:], " ")
		if !json.Valid([]byte(raw)) {
			return fmt.Errorf("body is not valid JSON: %s", raw)
		}
		body = json.RawMessage(raw)
	}

	data, err := env.Client.Raw(ctx, method, path, body)
	if len(data) > 0 {
		display.PrettyPrintJSON(env.Out, data)
	}
	return err
}

func clearHandler(ctx context.Context, env *Env, args []string) error {
	return display.ClearScreen(env.Out)
}
