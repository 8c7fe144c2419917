package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/heartpredict/diagnosis"
	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

const valuesFlag = "values"

func newPredictCmd() *cli.Command {
	return &cli.Command{
		Name:   "predict",
		Usage:  "Train the model and predict one patient",
		Action: cmdPredict,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name: valuesFlag,
				Usage: fmt.Sprintf("Comma separated patient values in the order %s (defaults to the sample patient)",
					strings.Join(heart.FeatureNames, ",")),
			},
		},
	}
}

func cmdPredict(ctx context.Context, cmd *cli.Command) error {
	rec := heart.ExampleRecord()
	if v := cmd.String(valuesFlag); v != "" {
		var err error
		if rec, err = parseValues(v); err != nil {
			return err
		}
	}

	_, res, err := train(ctx, getConfig(ctx))
	if err != nil {
		return err
	}
	p, err := diagnosis.NewPredictor(res.Model, 1)
	if err != nil {
		return err
	}
	d, err := p.Predict(rec)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	fmt.Fprintln(out, d.Message())
	fmt.Fprintln(out, d.PredictionLine())
	fmt.Fprintf(out, "Probability of heart disease: %.4f\n", d.Probability)
	return nil
}

// parseValues reads a record from comma separated values in canonical order.
func parseValues(s string) (heart.Record, error) {
	parts := strings.Split(s, ",")
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			name := fmt.Sprintf("value %d", i+1)
			if i < len(heart.FeatureNames) {
				name = heart.FeatureNames[i]
			}
			return heart.Record{}, errors.NewValidationError(name, "must be a number", p)
		}
		values[i] = v
	}
	return heart.RecordFromVector(values)
}
