// Package main provides the sxt command line tool.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/app"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/config"
)

func main() {
	cmd := &cli.Command{
		Name:    "sxt",
		Usage:   "Space and Time client: keys, biscuits, authentication and SQL",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Aliases: []string{"e"},
				Usage:   "Load configuration from this .env file instead of the nearest .env",
			},
		},
		Commands: append(append(getKeyCommands(), getAuthCommands()...), getQueryCommands()...),
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

// newContainer loads configuration for cmd and builds the DI container.
func newContainer(cmd *cli.Command) *app.Container {
	return app.NewContainer(config.Load(cmd.String("env-file")))
}

func formatFlag(extra string) *cli.StringFlag {
	usage := "Output format: 'text' or 'json'"
	if extra != "" {
		usage = "Output format: 'text', 'json' or '" + extra + "'"
	}
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   usage,
	}
}
