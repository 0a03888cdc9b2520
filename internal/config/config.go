// Package config loads the runtime configuration: default device and element type,
// logging, and host parallelism.
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/tensorcore/internal/backend/cpu"
	"github.com/born-ml/tensorcore/internal/parallel"
	"github.com/born-ml/tensorcore/internal/tensor"
)

// Config is the tensorcore configuration file.
type Config struct {
	Device    string          `yaml:"device"`
	DataType  string          `yaml:"dtype"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"` // text or json
	Parallel  parallel.Config `yaml:"parallel"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Device:    "cpu",
		DataType:  "float32",
		LogLevel:  "info",
		LogFormat: "text",
		Parallel:  parallel.DefaultConfig(),
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks every field can be resolved.
func (c Config) Validate() error {
	if _, _, err := c.Targets(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return errors.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	if c.Parallel.NumWorkers < 0 || c.Parallel.MinChunkSize < 0 {
		return errors.Errorf("parallel settings must not be negative: %+v", c.Parallel)
	}
	return nil
}

// Targets resolves the configured device and element type.
func (c Config) Targets() (tensor.Device, tensor.DataType, error) {
	device, err := tensor.ParseDevice(c.Device)
	if err != nil {
		return 0, 0, errors.Wrap(err, "device")
	}
	dtype, err := tensor.ParseDataType(c.DataType)
	if err != nil {
		return 0, 0, errors.Wrap(err, "dtype")
	}
	return device, dtype, nil
}

// Apply configures logger and routes the tensor logs to it, then installs the host
// parallelism settings.
func (c Config) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.Wrap(err, "log_level")
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	tensor.SetLogger(logger)

	cpu.SetParallelConfig(c.Parallel)
	return nil
}
