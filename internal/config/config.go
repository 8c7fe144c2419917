// Package config holds the heartpredict settings read from YAML.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/heartpredict/diagnosis"
	"github.com/YuminosukeSato/heartpredict/pkg/errors"
	"github.com/YuminosukeSato/heartpredict/pkg/log"
	"github.com/YuminosukeSato/heartpredict/sklearn/linear_model"
)

const (
	// DataEnvVar overrides the dataset path.
	DataEnvVar = "HEARTPREDICT_DATA"

	defaultDataPath = "heart.csv"
	fileMode        = 0600
)

// Config is the root document.
type Config struct {
	Data   DataConfig   `yaml:"data"`
	Log    LogConfig    `yaml:"log"`
	Model  ModelConfig  `yaml:"model"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
}

type DataConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ModelConfig struct {
	TestSize    float64 `yaml:"test_size"`
	RandomState int64   `yaml:"random_state"`
	Stratify    bool    `yaml:"stratify"`
	Scale       bool    `yaml:"scale"`
	Scaler      string  `yaml:"scaler"`
	C           float64 `yaml:"c"`
	Solver      string  `yaml:"solver"`
	MaxIter     int     `yaml:"max_iter"`
	Tol         float64 `yaml:"tol"`
	CVFolds     int     `yaml:"cv_folds"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CacheSize       int           `yaml:"cache_size"`
}

// StoreConfig configures the prediction history. An empty path disables it.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in settings.
func Default() *Config {
	opts := diagnosis.DefaultOptions()
	return &Config{
		Data: DataConfig{Path: defaultDataPath},
		Log:  LogConfig{Level: "info", Format: "console"},
		Model: ModelConfig{
			TestSize:    opts.TestSize,
			RandomState: opts.RandomState,
			Stratify:    opts.Stratify,
			Scale:       opts.Scale,
			Scaler:      opts.Scaler,
			C:           opts.C,
			Solver:      opts.Solver,
			MaxIter:     opts.MaxIter,
			Tol:         opts.Tol,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			CacheSize:       diagnosis.DefaultCacheSize,
		},
	}
}

// Load reads path on top of the defaults. An empty path returns the
// defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}
	if err := c.decode(b); err != nil {
		return nil, errors.Wrapf(err, "error parsing config file: %s", path)
	}
	return c, nil
}

// Parse reads a YAML document on top of the defaults.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := c.decode(b); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) decode(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Save writes c to path, creating the parent directory.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.Wrapf(err, "failed to create dir: %s", dir)
		}
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}

// Validate checks every value and returns the first problem found.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Data.Path) == "":
		return errors.NewValidationError("data.path", "must not be empty", c.Data.Path)
	case c.Model.TestSize <= 0 || c.Model.TestSize >= 1:
		return errors.NewValidationError("model.test_size", "must be in (0, 1)", c.Model.TestSize)
	case c.Model.Scaler != diagnosis.ScalerStandard && c.Model.Scaler != diagnosis.ScalerMinMax:
		return errors.NewValidationError("model.scaler", "must be standard or minmax", c.Model.Scaler)
	case c.Model.C <= 0:
		return errors.NewValidationError("model.c", "must be positive", c.Model.C)
	case c.Model.Solver != linear_model.SolverLBFGS && c.Model.Solver != linear_model.SolverGD:
		return errors.NewValidationError("model.solver", "must be lbfgs or gd", c.Model.Solver)
	case c.Model.MaxIter <= 0:
		return errors.NewValidationError("model.max_iter", "must be positive", c.Model.MaxIter)
	case c.Model.Tol <= 0:
		return errors.NewValidationError("model.tol", "must be positive", c.Model.Tol)
	case c.Model.CVFolds == 1 || c.Model.CVFolds < 0:
		return errors.NewValidationError("model.cv_folds", "must be 0 (disabled) or at least 2", c.Model.CVFolds)
	case c.Server.Addr == "":
		return errors.NewValidationError("server.addr", "must not be empty", c.Server.Addr)
	case c.Server.CacheSize < 0:
		return errors.NewValidationError("server.cache_size", "must not be negative", c.Server.CacheSize)
	}
	if _, err := log.ToLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != log.FormatConsole && c.Log.Format != log.FormatJSON {
		return errors.NewValidationError("log.format", "must be console or json", c.Log.Format)
	}
	return nil
}

// DiagnosisOptions converts the model section.
func (c *Config) DiagnosisOptions() diagnosis.Options {
	return diagnosis.Options{
		TestSize:    c.Model.TestSize,
		RandomState: c.Model.RandomState,
		Stratify:    c.Model.Stratify,
		Scale:       c.Model.Scale,
		Scaler:      c.Model.Scaler,
		C:           c.Model.C,
		Solver:      c.Model.Solver,
		MaxIter:     c.Model.MaxIter,
		Tol:         c.Model.Tol,
		CVFolds:     c.Model.CVFolds,
	}
}
