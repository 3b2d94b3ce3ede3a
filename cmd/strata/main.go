// strata is a one-shot CLI over the layered memory stores: inspect, save,
// and delete memory blocks and conversation history from the terminal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/strata-mem/strata/config"
	"github.com/strata-mem/strata/logger"
	"github.com/strata-mem/strata/memory"
	"github.com/strata-mem/strata/scope"
)

const usage = `Usage: strata [flags] <command> [args]

Commands:
  blocks                      List effective blocks (project overrides global)
  get <type>                  Show the effective block for a type
  save <type> <json>          Save a block into the selected scope
  delete <id>                 Delete a block by id from the selected scope
  history <agent-id> [limit]  Show an agent's recent history, oldest first
  clear <agent-id>            Clear an agent's history in the selected scope

Flags:
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "strata: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "Path to strata.yaml configuration file")
		globalDir   = flag.String("global-dir", "", "Override the global memory directory")
		projectRoot = flag.String("project-root", "", "Use this project root instead of detecting one")
		globalOnly  = flag.Bool("global-only", false, "Operate without a project scope when no root is found")
		scopeName   = flag.String("scope", "", "Scope for writes: global or project (default: project when available)")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
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

	// CLI output goes to stdout; keep logs quiet on stderr.
	log, err := logger.Init("", false)
	if err != nil {
		return err
	}

	manager := scope.NewManager(scope.Options{
		GlobalDir:   cfg.GlobalDir,
		ProjectRoot: cfg.ProjectRoot,
		GlobalOnly:  cfg.GlobalOnly,
		Markers:     cfg.Markers,
	}, log)
	if err := manager.Initialize(); err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	if *scopeName != "" {
		if err := manager.SetScope(memory.Scope(*scopeName)); err != nil {
			return err
		}
	}

	ctx := context.Background()
	args := flag.Args()
	switch args[0] {
	case "blocks":
		blocks, err := manager.EffectiveBlocks(ctx)
		if err != nil {
			return err
		}
		return printJSON(blocks)
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("usage: strata get <type>")
		}
		block, err := manager.EffectiveBlock(ctx, memory.BlockType(args[1]))
		if err != nil {
			return err
		}
		if block == nil {
			return fmt.Errorf("no block of type %q in either scope", args[1])
		}
		return printJSON(block)
	case "save":
		if len(args) < 3 {
			return fmt.Errorf("usage: strata save <type> <json>")
		}
		var content map[string]interface{}
		if err := json.Unmarshal([]byte(args[2]), &content); err != nil {
			return fmt.Errorf("parse content JSON: %w", err)
		}
		store, err := manager.CurrentStore()
		if err != nil {
			return err
		}
		block, err := store.SaveBlock(ctx, memory.SaveBlockParams{
			Type:    memory.BlockType(args[1]),
			Scope:   store.Scope(),
			Content: content,
		})
		if err != nil {
			return err
		}
		return printJSON(block)
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: strata delete <id>")
		}
		store, err := manager.CurrentStore()
		if err != nil {
			return err
		}
		return store.DeleteBlock(ctx, args[1])
	case "history":
		if len(args) < 2 {
			return fmt.Errorf("usage: strata history <agent-id> [limit]")
		}
		limit := cfg.HistoryLimit
		if len(args) > 2 {
			limit, err = strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("parse limit: %w", err)
			}
		}
		store, err := manager.CurrentStore()
		if err != nil {
			return err
		}
		messages, err := store.GetHistory(ctx, args[1], limit)
		if err != nil {
			return err
		}
		return printJSON(messages)
	case "clear":
		if len(args) < 2 {
			return fmt.Errorf("usage: strata clear <agent-id>")
		}
		store, err := manager.CurrentStore()
		if err != nil {
			return err
		}
		return store.ClearHistory(ctx, args[1])
	default:
		flag.Usage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
