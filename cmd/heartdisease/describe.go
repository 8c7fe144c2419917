package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/YuminosukeSato/heartpredict/heart"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

const rowsFlag = "rows"

func newDescribeCmd() *cli.Command {
	return &cli.Command{
		Name:   "describe",
		Usage:  "Explore the dataset: head, tail, shape, missing values, statistics and class balance",
		Action: cmdDescribe,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  rowsFlag,
				Usage: "Number of rows shown for head and tail",
				Value: 5,
			},
		},
	}
}

func cmdDescribe(ctx context.Context, cmd *cli.Command) error {
	ds, err := heart.LoadCSV(getConfig(ctx).Data.Path)
	if err != nil {
		return errors.Wrap(err, "load dataset")
	}
	n := cmd.Int(rowsFlag)
	out := cmd.Root().Writer

	fmt.Fprintln(out, "Head:")
	printRecords(out, ds.Head(n))
	fmt.Fprintln(out, "\nTail:")
	printRecords(out, ds.Tail(n))

	rows, cols := ds.Shape()
	fmt.Fprintf(out, "\nShape: (%d, %d)\n", rows, cols)

	fmt.Fprintln(out, "\nMissing values:")
	missing := heart.MissingCounts(ds)
	for _, name := range heart.Columns() {
		fmt.Fprintf(out, "%-10s %d\n", name, missing[name])
	}

	fmt.Fprintln(out, "\nStatistics:")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
	for _, s := range heart.Describe(ds) {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%g\t%g\t%g\t%g\t%g\t\n",
			s.Name, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nTarget distribution (1 = defective heart, 0 = healthy heart):")
	for _, c := range ds.ValueCounts() {
		fmt.Fprintf(out, "%d    %d\n", c.Label, c.Count)
	}
	return nil
}

func printRecords(w io.Writer, records []heart.Record) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(heart.Columns(), "\t")+"\t")
	for _, r := range records {
		cells := make([]string, 0, heart.NumFeatures+1)
		for _, v := range r.Vector() {
			cells = append(cells, strconv.FormatFloat(v, 'f', -1, 64))
		}
		cells = append(cells, strconv.Itoa(r.Target))
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	_ = tw.Flush()
}
