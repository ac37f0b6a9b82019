package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/hivemindhq/hivemind/internal/config"
	"github.com/hivemindhq/hivemind/internal/errors"
	"github.com/hivemindhq/hivemind/internal/honeypot"
	"github.com/hivemindhq/hivemind/internal/ops"
	"github.com/hivemindhq/hivemind/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "hivemind",
		Usage:   "Shared knowledge base for coding agents",
		Version: Version,
		Commands: []*cli.Command{
			searchCmd(db),
			submitCmd(db),
			getCmd(db),
			listCmd(db),
			statsCmd(db),
			replaceCmd(db),
			deleteCmd(db),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// searchCmd creates the search command.
func searchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the knowledge base",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "full", Usage: "Return complete entries instead of compact results"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("query is required"))
			}

			output, err := ops.Search(db, ops.SearchInput{
				Query: strings.Join(c.Args().Slice(), " "),
				Full:  c.Bool("full"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// submitCmd creates the submit command (reads the entry JSON from stdin).
func submitCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Submit a new entry (reads entry JSON from stdin)",
		Action: func(c *cli.Context) error {
			data, err := readStdinJSON()
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Submit(db, ops.SubmitInput{Data: data})
			if err != nil {
				return outputError(err)
			}

			if output.Honeypot {
				title, _ := data["title"].(string)
				log.Printf("[%s] injection blocked via cli: %q", ulid.Make(), honeypot.Excerpt(title))
			}

			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get a full entry by ID",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fields", Usage: "Comma-separated field projection (id and title always included)"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c)
			if err != nil {
				return outputError(err)
			}

			var fields []string
			if f := c.String("fields"); f != "" {
				fields = strings.Split(f, ",")
			}

			output, err := ops.Get(db, ops.GetInput{ID: id, Fields: fields})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Browse entries newest-first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "Filter by category"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
			&cli.StringFlag{Name: "language", Usage: "Filter by language"},
			&cli.StringFlag{Name: "framework", Usage: "Filter by framework"},
			&cli.StringFlag{Name: "severity", Usage: "Filter by severity"},
			&cli.StringFlag{Name: "environment", Usage: "Filter by environment"},
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Max entries to return"},
			&cli.IntFlag{Name: "offset", Usage: "Skip this many entries"},
			&cli.Int64Flag{Name: "cursor", Usage: "Keyset cursor from next_cursor"},
			&cli.BoolFlag{Name: "full", Usage: "Return complete entries"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{
				Category:    c.String("category"),
				Tag:         c.String("tag"),
				Language:    c.String("language"),
				Framework:   c.String("framework"),
				Severity:    c.String("severity"),
				Environment: c.String("environment"),
				Limit:       c.Int("limit"),
				Offset:      c.Int("offset"),
				Cursor:      c.Int64("cursor"),
				Full:        c.Bool("full"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show entry counts and metadata histograms",
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// replaceCmd creates the administrative replace command.
func replaceCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "replace",
		Usage:     "Replace every field of an existing entry (reads entry JSON from stdin)",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c)
			if err != nil {
				return outputError(err)
			}

			data, err := readStdinJSON()
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Replace(db, ops.ReplaceInput{ID: id, Data: data})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the administrative delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an entry",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseIDArg(c)
			if err != nil {
				return outputError(err)
			}

			if err := ops.Delete(db, id); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"deleted": true, "id": id})
		},
	}
}

// serveCmd creates the serve command (HTTP API + browse UI).
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and browse UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			serveCfg := *cfg
			if addr := c.String("addr"); addr != "" {
				serveCfg.HTTPAddr = addr
			}
			srv := web.NewServer(db, &serveCfg, Version)
			return web.Run(srv)
		},
	}
}

// parseIDArg parses the positional entry ID argument.
func parseIDArg(c *cli.Context) (int64, error) {
	if c.NArg() == 0 {
		return 0, errors.NewInvalidRequest("entry ID is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.NewInvalidRequest("entry ID must be a positive integer")
	}
	return id, nil
}

// readStdinJSON reads a JSON object from piped stdin.
func readStdinJSON() (map[string]any, error) {
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return nil, errors.NewInvalidRequest("entry JSON must be piped via stdin")
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.NewInvalidRequest("invalid JSON body")
	}
	return data, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if hiveErr, ok := err.(*errors.HiveError); ok {
		if hiveErr.Code == errors.ErrValidationFailed {
			detail, _ := json.MarshalIndent(hiveErr.Details, "", "  ")
			return cli.Exit(fmt.Sprintf("[%s] %s\n%s", hiveErr.Code, hiveErr.Message, detail), 1)
		}
		return cli.Exit(fmt.Sprintf("[%s] %s", hiveErr.Code, hiveErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
