package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/spaceandtimelabs/sxt-go-sdk/cmd/sxt/commands"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/persistence"
)

func getAuthCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "authenticate",
			Usage: "Authenticate the configured user and print the session",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "save",
					Aliases: []string{"s"},
					Usage:   "Save the user identity to this path (" + persistence.DefaultUserPath + " when set to 'default')",
				},
				formatFlag(""),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := newContainer(cmd)
				logger := container.Logger()
				defer commands.CloseContainer(container, logger)

				authUseCase, err := container.AuthUseCase()
				if err != nil {
					return err
				}
				store, err := container.Store()
				if err != nil {
					return err
				}
				keys, err := container.UserKeyManager()
				if err != nil {
					return err
				}

				cfg := container.Config()
				user := persistence.User{
					APIURL:     cfg.APIURL,
					UserID:     cfg.UserID,
					PrivateKey: keys.PrivateKeyString(keysDomain.EncodingBase64),
					PublicKey:  keys.PublicKeyString(keysDomain.EncodingBase64),
					JoinCode:   cfg.JoinCode,
					AppPrefix:  cfg.AppPrefix,
				}
				savePath := cmd.String("save")
				if savePath == "default" {
					savePath = persistence.DefaultUserPath
				}

				return commands.RunAuthenticate(
					ctx,
					authUseCase,
					store,
					user,
					logger,
					commands.DefaultIO().Writer,
					savePath,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "session",
			Usage: "Inspect or maintain the user session",
			Commands: []*cli.Command{
				{
					Name:  "show",
					Usage: "Authenticate and print the session tokens and claims",
					Flags: []cli.Flag{formatFlag("")},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						container := newContainer(cmd)
						logger := container.Logger()
						defer commands.CloseContainer(container, logger)

						authUseCase, err := container.AuthUseCase()
						if err != nil {
							return err
						}
						return commands.RunSessionShow(ctx, authUseCase, logger, commands.DefaultIO().Writer, cmd.String("format"))
					},
				},
				{
					Name:  "logout",
					Usage: "Authenticate and end the session on the gateway",
					Action: func(ctx context.Context, cmd *cli.Command) error {
						container := newContainer(cmd)
						logger := container.Logger()
						defer commands.CloseContainer(container, logger)

						authUseCase, err := container.AuthUseCase()
						if err != nil {
							return err
						}
						return commands.RunSessionLogout(ctx, authUseCase, logger, commands.DefaultIO().Writer)
					},
				},
				{
					Name:  "keepalive",
					Usage: "Keep the session fresh until interrupted, serving health and metrics",
					Flags: []cli.Flag{
						&cli.DurationFlag{
							Name:    "interval",
							Aliases: []string{"i"},
							Value:   defaultKeepaliveInterval,
							Usage:   "How often the rotation policy is applied",
						},
						&cli.BoolFlag{
							Name:  "serve",
							Value: true,
							Usage: "Serve /health, /ready and /metrics while running",
						},
					},
					Action: func(ctx context.Context, cmd *cli.Command) error {
						ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
						defer stop()

						container := newContainer(cmd)
						logger := container.Logger()
						defer commands.CloseContainer(container, logger)

						authUseCase, err := container.AuthUseCase()
						if err != nil {
							return err
						}

						var server commands.Server
						if cmd.Bool("serve") {
							httpServer, err := container.HTTPServer()
							if err != nil {
								return err
							}
							server = httpServer
						}

						return commands.RunSessionKeepalive(
							ctx,
							authUseCase,
							server,
							logger,
							commands.DefaultIO().Writer,
							cmd.Duration("interval"),
						)
					},
				},
			},
		},
	}
}
