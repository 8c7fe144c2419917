package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/heartpredict/diagnosis"
	"github.com/YuminosukeSato/heartpredict/diagnosis/report"
	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

const dirMode = 0700

const (
	plotFlag = "plot"
	cvFlag   = "cv"
)

func newTrainCmd() *cli.Command {
	return &cli.Command{
		Name:   "train",
		Usage:  "Fit the model, report training and test accuracy and predict the sample patient",
		Action: cmdTrain,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  plotFlag,
				Usage: "Directory to write roc.png and coefficients.png into (optional)",
			},
			&cli.IntFlag{
				Name:  cvFlag,
				Usage: "Number of stratified cross-validation folds on the training split (0 disables)",
				Value: -1,
			},
		},
	}
}

func cmdTrain(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(ctx)
	if folds := cmd.Int(cvFlag); folds >= 0 {
		cfg.Model.CVFolds = folds
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ds, res, err := train(ctx, cfg)
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	printTrainReport(out, ds, res.Report)

	p, err := diagnosis.NewPredictor(res.Model, 1)
	if err != nil {
		return err
	}
	d, err := p.Predict(heart.ExampleRecord())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[%d]\n%s\n", d.Label, d.Message())

	if dir := cmd.String(plotFlag); dir != "" {
		if err := writePlots(dir, res.Report); err != nil {
			return err
		}
		fmt.Fprintf(out, "Charts written to %s\n", dir)
	}
	return nil
}

func printTrainReport(w io.Writer, ds *heart.Dataset, rep diagnosis.Report) {
	n, _ := ds.Shape()
	fmt.Fprintf(w, "(%d, %d) (%d, %d) (%d, %d)\n",
		n, heart.NumFeatures, rep.TrainSamples, heart.NumFeatures, rep.TestSamples, heart.NumFeatures)
	fmt.Fprintf(w, "Accuracy on Training data : %.4f\n", rep.TrainAccuracy)
	fmt.Fprintf(w, "Accuracy on Test data : %.4f\n", rep.TestAccuracy)
	fmt.Fprintf(w, "Precision: %.4f  Recall: %.4f  F1: %.4f  AUC: %.4f  Log loss: %.4f\n",
		rep.Precision, rep.Recall, rep.F1, rep.AUC, rep.LogLoss)
	if len(rep.ConfusionMatrix) == 2 {
		cm := rep.ConfusionMatrix
		fmt.Fprintf(w, "Confusion matrix (rows = true, cols = predicted): [[%d %d] [%d %d]]\n",
			cm[0][0], cm[0][1], cm[1][0], cm[1][1])
	}
	if len(rep.CVScores) > 0 {
		var sum float64
		for _, s := range rep.CVScores {
			sum += s
		}
		fmt.Fprintf(w, "Cross-validation accuracy: %.4f over %d folds\n", sum/float64(len(rep.CVScores)), len(rep.CVScores))
	}
}

func writePlots(dir string, rep diagnosis.Report) error {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return errors.Wrapf(err, "failed to create dir: %s", dir)
	}

	roc, err := report.ROC(rep.FPR, rep.TPR, rep.AUC)
	if err != nil {
		return err
	}
	if err := savePNG(filepath.Join(dir, "roc.png"), func(w io.Writer) error {
		return report.WritePNG(w, roc, report.DefaultWidth, report.DefaultHeight)
	}); err != nil {
		return err
	}

	coef, err := report.Coefficients(rep.Weights.Features, rep.Weights.Coefficients)
	if err != nil {
		return err
	}
	return savePNG(filepath.Join(dir, "coefficients.png"), func(w io.Writer) error {
		return report.WritePNG(w, coef, 2*report.DefaultWidth, report.DefaultHeight)
	})
}

func savePNG(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return write(f)
}
