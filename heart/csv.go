package heart

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

// ReadCSV parses a dataset from r. The header names the columns; they may
// appear in any order and are matched case-insensitively. All thirteen
// feature columns and target are required, other columns are ignored.
func ReadCSV(r io.Reader) (*Dataset, error) {
	return readCSV(r, "<input>")
}

// LoadCSV reads the dataset at path.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	ds, err := readCSV(f, path)
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("heart").Info("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.DataPathKey, path,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, NumFeatures,
	)
	return ds, nil
}

func readCSV(r io.Reader, source string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no header", source)
	}
	if err != nil {
		return nil, errors.NewParseError(source, 1, "", err)
	}

	index, err := mapColumns(header)
	if err != nil {
		return nil, errors.NewParseError(source, 1, "", err)
	}

	ds := &Dataset{Source: source}
	warnedLabel := false

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				line = perr.Line
			}
			return nil, errors.NewParseError(source, line, "", err)
		}
		line, _ := reader.FieldPos(0)
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) != len(header) {
			return nil, errors.NewParseError(source, line, "",
				fmt.Errorf("expected %d fields, got %d", len(header), len(row)))
		}

		var rec Record
		for _, name := range FeatureNames {
			v, err := parseCell(row[index[name]])
			if err != nil {
				return nil, errors.NewParseError(source, line, name, err)
			}
			_ = rec.Set(name, v)
		}

		raw := strings.TrimSpace(row[index[ColTarget]])
		label, err := parseCell(raw)
		if err != nil {
			return nil, errors.NewParseError(source, line, ColTarget, err)
		}
		if label != 0 && label != 1 {
			return nil, errors.NewParseError(source, line, ColTarget,
				fmt.Errorf("target must be 0 or 1, got %v", label))
		}
		if raw != "0" && raw != "1" && !warnedLabel {
			errors.Warn(errors.NewDataConversionWarning("float", "int", "target column contains "+strconv.Quote(raw)))
			warnedLabel = true
		}
		rec.Target = int(label)

		ds.Records = append(ds.Records, rec)
	}

	if ds.Len() == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyData, "%s has no rows", source)
	}
	return ds, nil
}

// mapColumns resolves the position of every required column.
func mapColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		index[name] = i
	}

	required := append(append([]string(nil), FeatureNames...), ColTarget)
	var missing []string
	for _, name := range required {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return v, nil
}
