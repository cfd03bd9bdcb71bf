package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/hpungsan/kb/internal/config"
	"github.com/hpungsan/kb/internal/editor"
	"github.com/hpungsan/kb/internal/errors"
	"github.com/hpungsan/kb/internal/logger"
	"github.com/hpungsan/kb/internal/mcp"
	"github.com/hpungsan/kb/internal/remote"
	"github.com/hpungsan/kb/internal/topic"
	"github.com/hpungsan/kb/internal/tui"
	"github.com/hpungsan/kb/internal/web"
)

// env is what every command needs once flags and configuration are resolved.
type env struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *remote.Client

	logFile *os.File
}

// newCLIApp creates the CLI application with all commands. baseDir holds
// config.json and the terminal UI's log file.
func newCLIApp(baseDir string) *cli.App {
	e := &env{}

	app := &cli.App{
		Name:    "kb",
		Usage:   "Edit the topics of a knowledge base store",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", EnvVars: []string{config.EnvAPIURL}, Usage: "Base URL of the topic store"},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{config.EnvLogLevel}, Usage: "Log level: debug|info|warn|error"},
		},
		Before: func(c *cli.Context) error {
			return e.setup(c, baseDir)
		},
		After: func(*cli.Context) error {
			if e.logFile != nil {
				return e.logFile.Close()
			}
			return nil
		},
		// Bare `kb` opens the terminal UI.
		Action: func(c *cli.Context) error {
			return runTUI(c, e)
		},
		Commands: []*cli.Command{
			listCmd(e),
			showCmd(e),
			addCmd(e),
			editCmd(e),
			deleteCmd(e),
			serveCmd(e),
			tuiCmd(e),
			mcpCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// setup loads configuration, applies global flags, and builds the logger and store client.
func (e *env) setup(c *cli.Context, baseDir string) error {
	cfg, err := config.LoadWithEnv(baseDir, ".env")
	if err != nil {
		return outputError(err)
	}
	if c.IsSet("api-url") {
		cfg.APIURL = c.String("api-url")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return outputError(err)
	}
	e.cfg = cfg

	// The terminal UI owns stdout and stderr; everything else logs to stderr.
	first := c.Args().First()
	if first == "" || first == "tui" {
		f, err := logger.OpenFile(filepath.Join(baseDir, logFileName))
		if err != nil {
			return outputError(errors.NewInternal(err))
		}
		e.logFile = f
		e.log = logger.New(cfg.LogLevel, f, false)
	} else {
		e.log = logger.New(cfg.LogLevel, c.App.ErrWriter, true)
	}

	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return outputError(err)
	}
	client, err := remote.New(cfg.APIURL,
		remote.WithTimeout(timeout),
		remote.WithLogger(e.log.With().Str("component", "remote").Logger()),
	)
	if err != nil {
		return outputError(err)
	}
	e.client = client
	return nil
}

// controller returns a controller whose mirror has been loaded.
func (e *env) controller(c *cli.Context) (*editor.Controller, error) {
	ctrl := editor.NewController(e.client, e.log)
	if err := ctrl.Load(c.Context); err != nil {
		return nil, err
	}
	return ctrl, nil
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List topics with content previews",
		Action: func(c *cli.Context) error {
			ctrl, err := e.controller(c)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, ctrl.Rows())
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one topic",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}
			t, err := e.client.Get(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, t)
		},
	}
}

// addCmd creates the add command.
func addCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a topic (content is read from stdin when piped and --content is not set)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Topic title"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Topic content"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
		},
		Action: func(c *cli.Context) error {
			content := c.String("content")
			if !c.IsSet("content") && stdinHasData(c.App.Reader) {
				text, err := readAll(c.App.Reader)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				content = text
			}

			ctrl := editor.NewController(e.client, e.log)
			ctrl.Change(editor.FieldTitle, c.String("title"))
			ctrl.Change(editor.FieldContent, content)
			ctrl.Change(editor.FieldTags, c.String("tags"))

			saved, err := ctrl.Submit(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, saved)
		},
	}
}

// editCmd creates the edit command.
func editCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a topic; unset flags keep their current values",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "New content"},
			&cli.StringFlag{Name: "tags", Usage: "New comma-separated tags"},
		},
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}

			ctrl, err := e.controller(c)
			if err != nil {
				return outputError(err)
			}
			if _, err := ctrl.EditByID(id); err != nil {
				return outputError(err)
			}

			for _, f := range editor.Fields {
				if c.IsSet(string(f)) {
					ctrl.Change(f, c.String(string(f)))
				}
			}

			saved, err := ctrl.Submit(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, saved)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a topic",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := idArg(c)
			if err != nil {
				return outputError(err)
			}

			ctrl := editor.NewController(e.client, e.log)
			if err := ctrl.Delete(c.Context, id); err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, map[string]any{
				"deleted":   true,
				"id":        id,
				"remaining": len(ctrl.Topics()),
			})
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the browser editor",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Listen address (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default from config)"},
		},
		Action: func(c *cli.Context) error {
			if c.IsSet("bind") {
				e.cfg.Bind = c.String("bind")
			}
			if c.IsSet("port") {
				e.cfg.Port = c.Int("port")
			}
			if err := e.cfg.Validate(); err != nil {
				return outputError(err)
			}

			ctrl := editor.NewController(e.client, e.log)
			// A store that is down at startup shows up as the page's notice.
			_ = ctrl.Load(c.Context)

			srv, err := web.NewServer(ctrl, e.log, Version, e.cfg.Addr())
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(c.Context, srv, e.log); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// tuiCmd creates the tui command.
func tuiCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open the terminal editor (the default)",
		Action: func(c *cli.Context) error {
			return runTUI(c, e)
		},
	}
}

func runTUI(c *cli.Context, e *env) error {
	if c.Args().Present() {
		return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown command %q", c.Args().First())))
	}
	if err := tui.Run(c.Context, e.client, e.log); err != nil {
		return outputError(errors.NewInternal(err))
	}
	return nil
}

// mcpCmd creates the mcp command.
func mcpCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the topic tools over MCP (stdio)",
		Action: func(c *cli.Context) error {
			if err := mcp.Run(e.client, e.cfg, Version, e.log); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// idArg returns the first positional argument as a topic id.
func idArg(c *cli.Context) (topic.ID, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", errors.NewInvalidRequest("topic id is required")
	}
	return topic.ID(id), nil
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	kbErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", kbErr.Code, kbErr.Message), 1)
}

// stdinHasData returns true if r is piped data rather than a terminal.
func stdinHasData(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return r != nil
	}
	return f != nil && !term.IsTerminal(int(f.Fd()))
}

// readAll reads r, trimming surrounding whitespace.
func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
