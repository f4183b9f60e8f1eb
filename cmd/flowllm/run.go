package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/flowllm/flowllm/internal/config"
	"github.com/flowllm/flowllm/internal/dispatcher"
	"github.com/flowllm/flowllm/internal/httpservice"
	"github.com/flowllm/flowllm/internal/mcpservice"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/opcache"
	"github.com/flowllm/flowllm/internal/registry"
	"github.com/flowllm/flowllm/internal/scheduler"
	"github.com/flowllm/flowllm/internal/telemetry"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	if err := applyCLIOverrides(cfg, cmd); err != nil {
		return err
	}

	telemetry.Init("flowllm")
	logger := telemetry.Logger()

	reg := registry.New()
	if err := registerAllResources(reg); err != nil {
		return fmt.Errorf("flowllm: registering resources: %w", err)
	}

	cache, err := opcache.New(opcache.Options{
		Backend:   cfg.Cache.Backend,
		FileDir:   cfg.Cache.FileDir,
		RedisAddr: cfg.Cache.RedisAddr,
	})
	if err != nil {
		return err
	}
	pool := scheduler.NewWorkerPool(cfg.ThreadPoolMaxWorkers)
	engine := op.NewEngine(cache, pool)

	d := dispatcher.New(reg, engine, 0, 64)
	if err := registerFlows(d, reg, engine, cfg); err != nil {
		return err
	}

	logger.Info("flowllm: starting", "backend", cfg.Backend, "flows", len(cfg.Flows))

	switch cfg.Backend {
	case "http":
		return httpservice.New(d).Run(fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port))
	case "mcp":
		return mcpservice.New(d).Run(fmt.Sprintf("%s:%d", cfg.MCP.Host, cfg.MCP.Port))
	case "cmd":
		return runCmdBackend(ctx, d, cmd)
	default:
		return fmt.Errorf("flowllm: unknown backend %q", cfg.Backend)
	}
}

// applyCLIOverrides layers --backend and --set onto the loaded config.
func applyCLIOverrides(cfg *config.ServiceConfig, cmd *cli.Command) error {
	overrides := make(map[string]string)
	if backend := cmd.String("backend"); backend != "" {
		overrides["backend"] = backend
	}
	for _, kv := range cmd.StringSlice("set") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("flowllm: --set %q must be in key=value form", kv)
		}
		overrides[key] = value
	}
	if len(overrides) == 0 {
		return nil
	}
	return config.ApplyOverrides(cfg, overrides)
}
