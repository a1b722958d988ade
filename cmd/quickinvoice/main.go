package main

import (
	"fmt"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quickinvoice/internal/observability"
	"github.com/smallbiznis/quickinvoice/internal/server"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "quickinvoice",
		Usage:   "guided invoice wizard with PDF and HTML rendering",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:  "sample",
				Usage: "render a sample invoice to disk",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Value: ".",
						Usage: "output directory",
					},
					&cli.StringFlag{
						Name:  "format",
						Value: "both",
						Usage: "pdf, html or both",
					},
				},
				Action: sample,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(*cli.Context) error {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		server.Module,
	)
	app.Run()
	return app.Err()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
