// Package report renders evaluation charts of a trained diagnosis model.
package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
)

// Default image size.
const (
	DefaultWidth  = 5 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// ROC draws the ROC curve given by fpr and tpr, with the chance diagonal.
func ROC(fpr, tpr []float64, auc float64) (*plot.Plot, error) {
	if len(fpr) != len(tpr) {
		return nil, errors.NewDimensionError("report.ROC", len(fpr), len(tpr), 0)
	}
	if len(fpr) == 0 {
		return nil, errors.NewValueError("report.ROC", "empty curve")
	}

	p := plot.New()
	p.Title.Text = "ROC curve"
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(fpr))
	for i := range fpr {
		pts[i].X = fpr[i]
		pts[i].Y = tpr[i]
	}
	curve, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "roc line")
	}
	curve.Width = vg.Points(2)

	chance, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, errors.Wrap(err, "chance line")
	}
	chance.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(curve, chance)
	p.Legend.Add(fmt.Sprintf("model (AUC = %.3f)", auc), curve)
	p.Legend.Add("chance", chance)
	p.Legend.Top = false
	p.Legend.Left = false
	return p, nil
}

// Coefficients draws one bar per feature weight.
func Coefficients(names []string, coef []float64) (*plot.Plot, error) {
	if len(names) != len(coef) {
		return nil, errors.NewDimensionError("report.Coefficients", len(names), len(coef), 0)
	}
	if len(coef) == 0 {
		return nil, errors.NewValueError("report.Coefficients", "no coefficients")
	}

	p := plot.New()
	p.Title.Text = "Logistic regression coefficients"
	p.Y.Label.Text = "Weight"

	bars, err := plotter.NewBarChart(plotter.Values(coef), vg.Points(14))
	if err != nil {
		return nil, errors.Wrap(err, "coefficient bars")
	}
	p.Add(plotter.NewGrid(), bars)
	p.NominalX(names...)
	return p, nil
}

// WritePNG encodes p as a PNG of the given size into w.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return errors.Wrap(err, "png canvas")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "write png")
	}
	return nil
}
