// stratad is the strata memory daemon: it owns the global and project memory
// stores and exposes them to agent hosts as MCP tools over stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/strata-mem/strata/config"
	"github.com/strata-mem/strata/logger"
	"github.com/strata-mem/strata/mcpserver"
	"github.com/strata-mem/strata/runtime"
	"github.com/strata-mem/strata/scope"
	"github.com/strata-mem/strata/tools"
)

const version = "0.3.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stratad: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "Path to strata.yaml configuration file")
		globalDir   = flag.String("global-dir", "", "Override the global memory directory")
		projectRoot = flag.String("project-root", "", "Use this project root instead of detecting one")
		globalOnly  = flag.Bool("global-only", false, "Operate without a project scope when no root is found")
		logFile     = flag.String("log", "", "Log file path (defaults to config value, then stderr)")
		pretty      = flag.Bool("pretty", false, "Pretty console logs (stderr only)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *globalDir != "" {
		cfg.GlobalDir = *globalDir
	}
	if *projectRoot != "" {
		cfg.ProjectRoot = *projectRoot
	}
	if *globalOnly {
		cfg.GlobalOnly = true
	}

	log, err := logger.Init(cfg.Log.File, *pretty || cfg.Log.Pretty)
	if err != nil {
		return err
	}
	log.Info().Str("version", version).Msg("Starting stratad")

	manager, err := scope.GetManager(scope.Options{
		GlobalDir:   cfg.GlobalDir,
		ProjectRoot: cfg.ProjectRoot,
		GlobalOnly:  cfg.GlobalOnly,
		Markers:     cfg.Markers,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize scope manager: %w", err)
	}
	defer func() {
		if err := scope.ResetManager(); err != nil {
			log.Error().Err(err).Msg("Failed to close scope manager")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.Maintenance.Disabled {
		maintainer, err := runtime.NewMaintainer(manager, cfg.Maintenance.Schedule, log)
		if err != nil {
			return fmt.Errorf("configure maintenance: %w", err)
		}
		go maintainer.Start(ctx)
	}

	registry := tools.NewRegistry(log)
	tools.RegisterMemoryTools(registry, manager)

	srv, err := mcpserver.New("strata-memory", version, registry, log)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- mcpserver.ServeStdio(srv)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		log.Info().Msg("MCP client disconnected")
		return nil
	}
}
