// Package main provides the tensorcore diagnostic CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	_ "github.com/born-ml/tensorcore/backend/emulated"
	_ "github.com/born-ml/tensorcore/backend/webgpu"
	"github.com/born-ml/tensorcore/internal/config"
)

var (
	configPath string
	logLevel   string

	// cfg is resolved by the root Before hook.
	cfg = config.Default()
)

func main() {
	app := &cli.Command{
		Name:  "tensorcore",
		Usage: "Inspect devices and exercise the tensor storage core",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a YAML config file", Destination: &configPath},
			&cli.StringFlag{Name: "log-level", Usage: "override the configured log level", Destination: &logLevel},
		},
		Before: setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			devicesCmd(),
			layerNormCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return ctx, err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return ctx, cfg.Apply(logrus.StandardLogger())
}
