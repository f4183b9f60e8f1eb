// Command flowllm is the service launcher: it selects a backend (http,
// mcp, cmd) and applies dotted config overrides, then hands off to the
// matching transport. A single command with backend-selecting flags is
// used rather than a subcommand per transport, since the backend is a
// config value, not a distinct verb.
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/flowllm/flowllm/internal/telemetry"
)

func main() {
	cmd := &cli.Command{
		Name:  "flowllm",
		Usage: "Serve or invoke FlowLLM flows",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "path to the service config YAML",
				Required: true,
				Sources:  cli.EnvVars("FLOWLLM_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "override the config's backend (http|mcp|cmd)",
				Sources: cli.EnvVars("FLOWLLM_BACKEND"),
			},
			&cli.StringSliceFlag{
				Name:    "set",
				Aliases: []string{"s"},
				Usage:   "dotted config override, e.g. --set http.port=9090 (repeatable)",
			},
			&cli.StringFlag{
				Name:  "flow",
				Usage: "flow name to invoke (cmd backend only)",
			},
			&cli.StringFlag{
				Name:  "input",
				Usage: "JSON kwargs for the invocation (cmd backend only); reads stdin if omitted",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		telemetry.Logger().Error("flowllm: fatal", "error", err)
		os.Exit(1)
	}
}
