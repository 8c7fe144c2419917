package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/heartpredict/internal/config"
)

const writeFlag = "write"

func newConfigCmd() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Print the effective configuration as YAML",
		Action: cmdConfig,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  writeFlag,
				Usage: "Save the effective configuration to this path instead of printing it",
			},
		},
	}
}

func cmdConfig(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(ctx)
	if path := cmd.String(writeFlag); path != "" {
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.Root().Writer, "Configuration written to %s\n", path)
		return nil
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.Root().Writer.Write(b)
	return err
}
