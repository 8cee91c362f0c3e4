package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mizutama/pochi/internal/config"
	"github.com/mizutama/pochi/internal/engine"
	"github.com/mizutama/pochi/internal/errors"
	"github.com/mizutama/pochi/internal/snippet"
	"github.com/mizutama/pochi/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(eng *engine.Engine, cfg *config.Config, baseDir string) *cli.App {
	app := &cli.App{
		Name:    "pochi",
		Usage:   "Personal snippet manager",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(eng),
			updateCmd(eng),
			deleteCmd(eng),
			listCmd(eng),
			exportCmd(eng),
			importCmd(eng),
			loginCmd(eng, cfg, baseDir),
			logoutCmd(eng, cfg, baseDir),
			syncCmd(eng),
			serveCmd(eng),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a snippet (content from --content or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Usage: "Snippet label"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Snippet content"},
			&cli.StringFlag{Name: "color", Value: snippet.ColorBlue, Usage: "Card color: blue|purple|pink|green|orange|gray"},
		},
		Action: func(c *cli.Context) error {
			label := c.String("label")
			if label == "" {
				return outputError(errors.NewInvalidRequest("label is required"))
			}

			content := c.String("content")
			if content == "" && stdinHasData() {
				var err error
				content, err = readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
			}
			if content == "" {
				return outputError(errors.NewInvalidRequest("content is required (use --content or pipe via stdin)"))
			}

			color := c.String("color")
			if !snippet.ValidColor(color) {
				return outputError(errors.NewInvalidRequest("unknown color: " + color))
			}

			s, err := eng.AddSnippet(label, content, color)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(s)
		},
	}
}

// updateCmd creates the update command. Flags that are not given keep
// the snippet's current values.
func updateCmd(eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update an existing snippet",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Usage: "New label"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "New content"},
			&cli.StringFlag{Name: "color", Usage: "New card color"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id argument is required"))
			}
			id := c.Args().First()

			current, ok := findSnippet(eng, id)
			if !ok {
				return outputError(errors.NewNotFound(id))
			}

			label := current.Label
			if c.IsSet("label") {
				label = c.String("label")
			}
			content := current.Content
			if c.IsSet("content") {
				content = c.String("content")
			}
			color := current.Color
			if c.IsSet("color") {
				color = c.String("color")
				if !snippet.ValidColor(color) {
					return outputError(errors.NewInvalidRequest("unknown color: " + color))
				}
			}

			if !eng.UpdateSnippet(id, label, content, color) {
				return outputError(errors.NewNotFound(id))
			}

			return outputJSON(snippet.Snippet{ID: id, Label: label, Content: content, Color: color})
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a snippet by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id argument is required"))
			}
			id := c.Args().First()

			if !eng.DeleteSnippet(id) {
				return outputError(errors.NewNotFound(id))
			}

			return outputJSON(map[string]any{"deleted": id})
		},
	}
}

// listCmd creates the list command.
func listCmd(eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all snippets",
		Action: func(c *cli.Context) error {
			items := eng.Snippets()
			return outputJSON(map[string]any{
				"snippets": items,
				"count":    len(items),
			})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export snippets as a JSON array",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Write to a file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			data, err := eng.ExportSnippets()
			if err != nil {
				return outputError(err)
			}

			if path := c.String("path"); path != "" {
				if err := os.WriteFile(path, data, 0600); err != nil {
					return outputError(errors.NewInternal(err))
				}
				return outputJSON(map[string]any{
					"path":  path,
					"count": len(eng.Snippets()),
				})
			}

			fmt.Println(string(data))
			return nil
		},
	}
}

// importCmd creates the import command.
func importCmd(eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace all snippets with an exported JSON array (from --path or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Import file path"},
		},
		Action: func(c *cli.Context) error {
			var data []byte
			if path := c.String("path"); path != "" {
				var err error
				data, err = os.ReadFile(path)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
			} else if stdinHasData() {
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				data = raw
			} else {
				return outputError(errors.NewInvalidRequest("import data must come from --path or stdin"))
			}

			if err := eng.ImportSnippets(data); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"imported": len(eng.Snippets())})
		},
	}
}

// loginCmd creates the login command.
func loginCmd(eng *engine.Engine, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Sign in with an account id and reconcile with the remote collection",
		ArgsUsage: "<account-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("account-id argument is required"))
			}
			account := c.Args().First()

			cfg.AccountID = account
			if err := config.Save(baseDir, cfg); err != nil {
				return outputError(errors.NewInternal(err))
			}

			eng.SetAuth(c.Context, engine.AuthState{AccountID: account})
			return outputJSON(syncStatus(eng))
		},
	}
}

// logoutCmd creates the logout command.
func logoutCmd(eng *engine.Engine, cfg *config.Config, baseDir string) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Sign out; snippets stay local-only",
		Action: func(c *cli.Context) error {
			cfg.AccountID = ""
			if err := config.Save(baseDir, cfg); err != nil {
				return outputError(errors.NewInternal(err))
			}

			eng.SetAuth(c.Context, engine.AuthState{})
			return outputJSON(map[string]any{"signed_out": true})
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Show sync status; resolve a pending merge decision with --resolve",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "resolve", Aliases: []string{"r"}, Usage: "Merge decision: upload|download|merge|dismiss"},
		},
		Action: func(c *cli.Context) error {
			if option := c.String("resolve"); option != "" {
				if option == "dismiss" {
					if !eng.NeedsMergeDecision() {
						return outputError(errors.NewNoMergePending())
					}
					eng.DismissMerge()
				} else if err := eng.ResolveMerge(c.Context, engine.MergeOption(option)); err != nil {
					return outputError(err)
				}
			}

			return outputJSON(syncStatus(eng))
		},
	}
}

// serveCmd creates the serve command for the local web UI.
func serveCmd(eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8787, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(eng, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// syncStatus builds the status payload shared by login and sync.
func syncStatus(eng *engine.Engine) map[string]any {
	auth := eng.Auth()
	status := map[string]any{
		"signed_in":            auth.SignedIn(),
		"syncing":              eng.IsSyncing(),
		"needs_merge_decision": eng.NeedsMergeDecision(),
	}
	if auth.SignedIn() {
		status["account_id"] = auth.AccountID
	}
	if local, remoteSnap := eng.MergeSnapshots(); local != nil || remoteSnap != nil {
		status["local_count"] = len(local)
		status["cloud_count"] = len(remoteSnap)
	}
	return status
}

// findSnippet looks up a snippet by id in the canonical sequence.
func findSnippet(eng *engine.Engine, id string) (snippet.Snippet, bool) {
	for _, s := range eng.Snippets() {
		if s.ID == id {
			return s, true
		}
	}
	return snippet.Snippet{}, false
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if perr, ok := err.(*errors.PochiError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", perr.Code, perr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
