package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/heartpredict/diagnosis"
	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/internal/config"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

var (
	version = "v0.0.1-default"
	commit  = ""
)

const (
	configFlag    = "config"
	dataFlag      = "data"
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
)

type configKey struct{}

// newApp builds the command tree. Flags keep parse state after a Run, so
// every app gets its own flag and command values.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "heartdisease",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Usage:   "Logistic regression heart disease predictor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Usage:   "Path to the YAML config file (optional, defaults are built in)",
				Sources: cli.EnvVars("HEARTPREDICT_CONFIG"),
			},
			&cli.StringFlag{
				Name:    dataFlag,
				Usage:   "Path to the heart disease CSV dataset",
				Sources: cli.EnvVars(config.DataEnvVar),
			},
			&cli.StringFlag{
				Name:  logLevelFlag,
				Usage: "Log level [debug, info, warn, error]",
			},
			&cli.StringFlag{
				Name:  logFormatFlag,
				Usage: "Log format [console, json]",
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			newTrainCmd(),
			newPredictCmd(),
			newDescribeCmd(),
			newServeCmd(),
			newConfigCmd(),
		},
	}
}

// loadConfig reads the config file, applies flag overrides and installs the
// logger.
func loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String(configFlag))
	if err != nil {
		return ctx, err
	}
	if v := cmd.String(dataFlag); v != "" {
		cfg.Data.Path = v
	}
	if v := cmd.String(logLevelFlag); v != "" {
		cfg.Log.Level = v
	}
	if v := cmd.String(logFormatFlag); v != "" {
		cfg.Log.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return ctx, err
	}
	if err := log.SetupLogger(cfg.Log.Level, cfg.Log.Format, cmd.Root().ErrWriter); err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, configKey{}, cfg), nil
}

func getConfig(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// train loads the configured dataset and fits the model.
func train(ctx context.Context, cfg *config.Config) (*heart.Dataset, *diagnosis.Result, error) {
	ds, err := heart.LoadCSV(cfg.Data.Path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load dataset")
	}
	res, err := diagnosis.Train(ctx, ds, cfg.DiagnosisOptions())
	if err != nil {
		return nil, nil, err
	}
	return ds, res, nil
}
