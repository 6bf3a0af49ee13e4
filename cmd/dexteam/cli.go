package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/dexteam/internal/errors"
	"github.com/hpungsan/dexteam/internal/mcp"
	"github.com/hpungsan/dexteam/internal/pokemon"
	"github.com/hpungsan/dexteam/internal/roster"
	"github.com/hpungsan/dexteam/internal/session"
	"github.com/hpungsan/dexteam/internal/web"
)

// Output formats for --format.
const (
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "md"
)

// teamOutput is the printed form of the team.
type teamOutput struct {
	Team     []pokemon.Pokemon `json:"team"`
	TeamSize int               `json:"team_size"`
	Capacity int               `json:"capacity"`
}

// newCLIApp creates the CLI application with all commands.
// env may be nil when only help or version output is needed.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "dexteam",
		Usage:   "Pokémon team builder",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatJSON, Usage: "Output format: json|yaml|md"},
			&cli.BoolFlag{Name: "ephemeral", Usage: "Keep the team in memory only"},
		},
		Before: func(c *cli.Context) error {
			switch c.String("format") {
			case formatJSON, formatYAML, formatMarkdown:
				return nil
			default:
				return outputError(errors.NewInvalidRequest("format must be one of json, yaml, md"))
			}
		},
		Commands: []*cli.Command{
			searchCmd(env),
			randomCmd(env),
			addCmd(env),
			removeCmd(env),
			teamCmd(env),
			showCmd(env),
			serveCmd(env),
			mcpCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// searchCmd creates the search command.
func searchCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Look up a Pokémon by name",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if pokemon.IsBlank(text) {
				return outputError(errors.NewInvalidRequest("name is required"))
			}

			ctrl, err := env.controller(c.Bool("ephemeral"))
			if err != nil {
				return outputError(err)
			}

			ctrl.SetSearchText(text)
			p, err := ctrl.SubmitSearch(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputPokemon(c, *p)
		},
	}
}

// randomCmd creates the random command.
func randomCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "random",
		Usage: "Fetch a random Pokémon",
		Action: func(c *cli.Context) error {
			ctrl, err := env.controller(c.Bool("ephemeral"))
			if err != nil {
				return outputError(err)
			}

			p, err := ctrl.FetchRandom(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputPokemon(c, *p)
		},
	}
}

// addCmd creates the add command.
func addCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Fetch a Pokémon by id or name and add it to the team",
		ArgsUsage: "<name|id>",
		Action: func(c *cli.Context) error {
			target := strings.Join(c.Args().Slice(), " ")
			if pokemon.IsBlank(target) {
				return outputError(errors.NewInvalidRequest("name or id is required"))
			}

			ctrl, err := env.controller(c.Bool("ephemeral"))
			if err != nil {
				return outputError(err)
			}

			if id, convErr := strconv.Atoi(strings.TrimSpace(target)); convErr == nil {
				_, err = ctrl.FetchByID(c.Context, id)
			} else {
				ctrl.SetSearchText(target)
				_, err = ctrl.SubmitSearch(c.Context)
			}
			if err != nil {
				return outputError(err)
			}

			if err := ctrl.AddToTeam(); err != nil {
				return outputError(err)
			}
			return outputTeam(c, ctrl)
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove a Pokémon from the team",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c.Args().First())
			if err != nil {
				return outputError(err)
			}

			ctrl, err := env.controller(c.Bool("ephemeral"))
			if err != nil {
				return outputError(err)
			}

			ctrl.RemoveFromTeam(id)
			return outputTeam(c, ctrl)
		},
	}
}

// teamCmd creates the team command.
func teamCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "team",
		Usage: "Show the team",
		Action: func(c *cli.Context) error {
			ctrl, err := env.controller(c.Bool("ephemeral"))
			if err != nil {
				return outputError(err)
			}
			return outputTeam(c, ctrl)
		},
	}
}

// showCmd creates the show command.
func showCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a team member's details",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c.Args().First())
			if err != nil {
				return outputError(err)
			}

			ctrl, err := env.controller(c.Bool("ephemeral"))
			if err != nil {
				return outputError(err)
			}

			p, err := ctrl.SelectMember(id)
			if err != nil {
				return outputError(err)
			}
			return outputPokemon(c, p)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest("port must be between 1 and 65535"))
			}

			ctrl, err := env.controller(c.Bool("ephemeral"))
			if err != nil {
				return outputError(err)
			}

			srv, err := web.NewServer(ctrl, env.logger.Named("web"), Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(srv, env.logger.Named("web")); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			ctrl, err := env.controller(c.Bool("ephemeral"))
			if err != nil {
				return outputError(err)
			}
			if err := mcp.Run(ctrl, env.cfg, Version); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// Helper functions

// outputPokemon prints a single Pokémon in the selected format.
func outputPokemon(c *cli.Context, p pokemon.Pokemon) error {
	return output(c, p, pokemon.Card(p))
}

// outputTeam prints the team in the selected format.
func outputTeam(c *cli.Context, ctrl *session.Controller) error {
	team := ctrl.Roster().Members()
	return output(c, teamOutput{
		Team:     team,
		TeamSize: len(team),
		Capacity: roster.Capacity,
	}, teamMarkdown(team))
}

// output writes v as JSON or YAML, or md as-is, to the app writer.
func output(c *cli.Context, v any, md string) error {
	w := c.App.Writer
	switch c.String("format") {
	case formatYAML:
		return outputYAML(w, v)
	case formatMarkdown:
		_, err := io.WriteString(w, md)
		return err
	default:
		return outputJSON(w, v)
	}
}

// outputJSON marshals result to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes v as YAML using the same field names as the JSON output.
func outputYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// teamMarkdown renders the team as a numbered Markdown list.
func teamMarkdown(team []pokemon.Pokemon) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Your Team (%d/%d)\n\n", len(team), roster.Capacity)
	if len(team) == 0 {
		b.WriteString("_Your team is empty._\n")
		return b.String()
	}
	for i, p := range team {
		types := make([]string, 0, len(p.Types))
		for _, name := range p.TypeNames() {
			types = append(types, pokemon.DisplayName(name))
		}
		fmt.Fprintf(&b, "%d. **%s** (#%d)", i+1, pokemon.DisplayName(p.Name), p.ID)
		if len(types) > 0 {
			fmt.Fprintf(&b, " %s", strings.Join(types, "/"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parseID parses a positive Pokémon id argument.
func parseID(s string) (int, error) {
	if s == "" {
		return 0, errors.NewInvalidRequest("id is required")
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid Pokémon id: %q", s))
	}
	return id, nil
}
