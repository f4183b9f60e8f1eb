package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/flowllm/flowllm/internal/dispatcher"
)

// runCmdBackend implements the cmd backend: one flow invocation with
// kwargs from --input JSON or stdin, printing the response to stdout.
func runCmdBackend(ctx context.Context, d *dispatcher.Dispatcher, cmd *cli.Command) error {
	flowName := cmd.String("flow")
	if flowName == "" {
		return fmt.Errorf("flowllm: --flow is required for the cmd backend")
	}

	data, err := readInput(cmd)
	if err != nil {
		return err
	}
	kwargs := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &kwargs); err != nil {
			return fmt.Errorf("flowllm: --input is not valid JSON: %w", err)
		}
	}

	out, err := d.Dispatch(ctx, flowName, kwargs, dispatcher.ModeHTTP)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func readInput(cmd *cli.Command) ([]byte, error) {
	if input := cmd.String("input"); input != "" {
		return []byte(input), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("flowllm: reading stdin: %w", err)
	}
	return data, nil
}
