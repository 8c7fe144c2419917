package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestROC(t *testing.T) {
	p, err := ROC([]float64{0, 0, 0.5, 1}, []float64{0, 0.5, 1, 1}, 0.875)
	require.NoError(t, err)
	assert.Equal(t, "ROC curve", p.Title.Text)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, p, 3*vg.Inch, 3*vg.Inch))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestROC_Invalid(t *testing.T) {
	_, err := ROC([]float64{0, 1}, []float64{0}, 0.5)
	assert.Error(t, err)
	_, err = ROC(nil, nil, 0.5)
	assert.Error(t, err)
}

func TestCoefficients(t *testing.T) {
	p, err := Coefficients([]string{"age", "sex", "cp"}, []float64{0.2, -0.7, 1.1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, p, DefaultWidth, DefaultHeight))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	_, err = Coefficients([]string{"age"}, []float64{1, 2})
	assert.Error(t, err)
	_, err = Coefficients(nil, nil)
	assert.Error(t, err)
}
