package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/spaceandtimelabs/sxt-go-sdk/cmd/sxt/commands"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "keygen",
			Usage: "Generate a new Ed25519 keypair",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "encoding",
					Value: "base64",
					Usage: "Key encoding: 'base64' or 'hex'",
				},
				formatFlag(""),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := newContainer(cmd)
				defer commands.CloseContainer(container, container.Logger())

				return commands.RunKeygen(
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("encoding"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "biscuit",
			Usage: "Build and sign a biscuit",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "name",
					Aliases: []string{"n"},
					Value:   "biscuit",
					Usage:   "Biscuit name",
				},
				&cli.StringFlag{
					Name:    "private-key",
					Aliases: []string{"k"},
					Sources: cli.EnvVars("BISCUIT_PRIVATE_KEY"),
					Usage:   "Signing key in hex or base64 (a new keypair is generated when omitted)",
				},
				&cli.StringSliceFlag{
					Name:     "resource",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Resource to grant on, e.g. SCHEMA.TABLE (repeatable)",
				},
				&cli.StringSliceFlag{
					Name:    "permission",
					Aliases: []string{"p"},
					Value:   []string{"select"},
					Usage:   "Permission name or tag, e.g. select, dml_insert, all (repeatable)",
				},
				&cli.StringSliceFlag{
					Name:  "identity",
					Usage: "Restrict use to this user id (repeatable)",
				},
				&cli.DurationFlag{
					Name:  "valid-for",
					Usage: "Restrict use to this long from now, e.g. 720h",
				},
				&cli.StringFlag{
					Name:    "save",
					Aliases: []string{"s"},
					Usage:   "Save the biscuit to this path ({resource}, {date} and {time} are replaced)",
				},
				formatFlag(""),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := newContainer(cmd)
				logger := container.Logger()
				defer commands.CloseContainer(container, logger)

				store, err := container.Store()
				if err != nil {
					return err
				}

				return commands.RunBiscuit(ctx, store, logger, commands.DefaultIO().Writer, commands.BiscuitOptions{
					Name:        cmd.String("name"),
					PrivateKey:  cmd.String("private-key"),
					Resources:   cmd.StringSlice("resource"),
					Permissions: cmd.StringSlice("permission"),
					Identities:  cmd.StringSlice("identity"),
					ValidFor:    cmd.Duration("valid-for"),
					Now:         time.Now,
					SavePath:    cmd.String("save"),
					Format:      cmd.String("format"),
				})
			},
		},
		{
			Name:  "validate-biscuit",
			Usage: "Verify a biscuit signature and print its policy",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Biscuit token",
				},
				&cli.StringFlag{
					Name:     "public-key",
					Required: true,
					Usage:    "Public key of the signer in hex or base64",
				},
				formatFlag(""),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := newContainer(cmd)
				defer commands.CloseContainer(container, container.Logger())

				return commands.RunValidateBiscuit(
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("token"),
					cmd.String("public-key"),
					cmd.String("format"),
				)
			},
		},
	}
}
