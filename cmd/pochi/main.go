package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mizutama/pochi/internal/config"
	"github.com/mizutama/pochi/internal/engine"
	"github.com/mizutama/pochi/internal/mcp"
	"github.com/mizutama/pochi/internal/remote"
	"github.com/mizutama/pochi/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "update": true, "delete": true, "list": true,
	"export": true, "import": true,
	"login": true, "logout": true, "sync": true,
	"serve": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___  ___   ___ _  _ ___
  | _ \/ _ \ / __| || |_ _|
  |  _/ (_) | (__| __ || |
  |_|  \___/ \___|_||_|___|

  Personal snippet manager

  Usage: pochi <command> [options]
         pochi --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any state is touched
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, "")
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".pochi")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := remote.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize remote store: %v\n", err)
		os.Exit(1)
	}
	remote.ConfigurePool(db, cfg)
	svc := remote.NewSQLiteService(db)
	defer svc.Close()

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Printf("config: ignoring unknown disabled tools: %v", unknown)
	}

	eng := engine.New(store.NewFileStore(baseDir), svc)

	// Sign in with the configured account; this reconciles the local
	// and remote collections and may leave a merge decision pending.
	if cfg.AccountID != "" {
		eng.SetAuth(context.Background(), engine.AuthState{AccountID: cfg.AccountID})
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(eng, cfg, baseDir)
		runErr := app.Run(os.Args)
		eng.Close()
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		eng.Close()
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'pochi --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	mcpErr := mcp.Run(eng, cfg, Version)
	eng.Close()
	if mcpErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", mcpErr)
		os.Exit(1)
	}
}
