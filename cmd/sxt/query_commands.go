package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/spaceandtimelabs/sxt-go-sdk/cmd/sxt/commands"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	queryUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/usecase"
)

const defaultKeepaliveInterval = 30 * time.Second

func getQueryCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "query",
			Usage: "Execute a SQL statement",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "sql",
					Aliases:  []string{"q"},
					Required: true,
					Usage:    "SQL text; {public_key}, {resource}, {date} and {time} are replaced",
				},
				&cli.StringFlag{
					Name:    "type",
					Aliases: []string{"t"},
					Usage:   "Statement type: ddl, dml or dql (detected when omitted)",
				},
				&cli.StringSliceFlag{
					Name:    "resource",
					Aliases: []string{"r"},
					Usage:   "Resource touched by the statement (repeatable)",
				},
				&cli.StringSliceFlag{
					Name:    "biscuit",
					Aliases: []string{"b"},
					Usage:   "Biscuit token authorizing the statement (repeatable)",
				},
				&cli.BoolFlag{
					Name:  "validate",
					Usage: "Ask the gateway to validate without executing",
				},
				formatFlag("csv"),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := newContainer(cmd)
				logger := container.Logger()
				defer commands.CloseContainer(container, logger)

				executor, err := container.QueryExecutor()
				if err != nil {
					return err
				}
				keys, err := container.UserKeyManager()
				if err != nil {
					return err
				}

				return commands.RunQuery(ctx, executor, logger, commands.DefaultIO().Writer, commands.QueryOptions{
					SQL:         cmd.String("sql"),
					Type:        cmd.String("type"),
					Resources:   cmd.StringSlice("resource"),
					Biscuits:    cmd.StringSlice("biscuit"),
					PublicKey:   keys.PublicKeyString(keysDomain.EncodingHex),
					ValidateSQL: cmd.Bool("validate"),
					Format:      cmd.String("format"),
				})
			},
		},
		{
			Name:  "discover",
			Usage: "List schemas, tables, views or columns",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "kind",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "What to list: schemas, tables, views or columns",
				},
				&cli.StringFlag{
					Name:  "schema",
					Usage: "Schema for tables, views and columns",
				},
				&cli.StringFlag{
					Name:  "table",
					Usage: "Table for columns",
				},
				&cli.StringFlag{
					Name:  "scope",
					Value: "ALL",
					Usage: "ALL, PUBLIC, SUBSCRIPTION or PRIVATE",
				},
				&cli.StringFlag{
					Name:  "pattern",
					Usage: "Name filter for tables and views",
				},
				formatFlag(""),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := newContainer(cmd)
				logger := container.Logger()
				defer commands.CloseContainer(container, logger)

				if _, err := container.AuthUseCase(); err != nil {
					return err
				}
				gateway, err := container.SQLGateway()
				if err != nil {
					return err
				}

				return commands.RunDiscover(ctx, gateway, logger, commands.DefaultIO().Writer, commands.DiscoverOptions{
					Kind:    cmd.String("kind"),
					Schema:  cmd.String("schema"),
					Table:   cmd.String("table"),
					Scope:   cmd.String("scope"),
					Pattern: cmd.String("pattern"),
					Format:  cmd.String("format"),
				})
			},
		},
		{
			Name:  "resource",
			Usage: "Create or drop a resource saved to a file",
			Commands: []*cli.Command{
				{
					Name:  "new",
					Usage: "Define a resource with a new keypair and save it",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "type",
							Value: "table",
							Usage: "table, view or matview",
						},
						&cli.StringFlag{
							Name:     "name",
							Aliases:  []string{"n"},
							Required: true,
							Usage:    "Schema-qualified name; {date} and {time} are replaced",
						},
						&cli.StringFlag{
							Name:     "ddl",
							Required: true,
							Usage:    "CREATE statement; {resource} and {with} are replaced",
						},
						&cli.StringFlag{
							Name:  "access-type",
							Usage: "Table access: permissioned, public_read, public_append or public_write",
						},
						&cli.IntFlag{
							Name:  "refresh-interval",
							Usage: "Materialized view refresh interval in minutes",
						},
						&cli.StringFlag{
							Name:  "table-biscuit",
							Usage: "Biscuit token for the tables a view reads",
						},
						&cli.StringSliceFlag{
							Name:  "biscuit",
							Value: []string{"admin=all"},
							Usage: "Biscuit to sign as name=perm[,perm] (repeatable)",
						},
						&cli.StringFlag{
							Name:    "save",
							Aliases: []string{"s"},
							Usage:   "Path of the resource file (a versioned name under ./resources by default)",
						},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						container := newContainer(cmd)
						logger := container.Logger()
						defer commands.CloseContainer(container, logger)

						biscuits, err := commands.ParseBiscuitGrants(cmd.StringSlice("biscuit"))
						if err != nil {
							return err
						}
						store, err := container.Store()
						if err != nil {
							return err
						}

						return commands.RunResourceNew(ctx, store, logger, commands.DefaultIO().Writer, commands.ResourceNewOptions{
							Type:            cmd.String("type"),
							Name:            cmd.String("name"),
							AccessType:      cmd.String("access-type"),
							RefreshInterval: int(cmd.Int("refresh-interval")),
							DDL:             cmd.String("ddl"),
							Biscuits:        biscuits,
							TableBiscuit:    cmd.String("table-biscuit"),
							Now:             time.Now,
							SavePath:        cmd.String("save"),
						})
					},
				},
				resourceCommand("create", "Create the resource described by a saved file", commands.RunResourceCreate),
				resourceCommand("drop", "Drop the resource described by a saved file", commands.RunResourceDrop),
			},
		},
	}
}

type resourceRunner func(
	ctx context.Context,
	loader commands.ResourceLoader,
	executor queryUsecase.Executor,
	logger *slog.Logger,
	writer io.Writer,
	file string,
) error

// resourceCommand builds a subcommand that loads a saved resource file and applies run.
func resourceCommand(name, usage string, run resourceRunner) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Required: true,
				Usage:    "Resource file, or a prefix of it; the newest matching file is used",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			container := newContainer(cmd)
			logger := container.Logger()
			defer commands.CloseContainer(container, logger)

			store, err := container.Store()
			if err != nil {
				return err
			}
			executor, err := container.QueryExecutor()
			if err != nil {
				return err
			}
			return run(ctx, store, executor, logger, commands.DefaultIO().Writer, cmd.String("file"))
		},
	}
}
