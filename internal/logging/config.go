package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the configuration for the logger.
type Config struct {
	// Level is the minimum log level to output (debug, info, warn, error)
	Level string `yaml:"level"`
	// Format is the output format (json, console)
	Format string `yaml:"format"`
	// Output is the output destination (stdout, stderr, or file path)
	Output string `yaml:"output"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Output: "stderr",
	}
}

// NewLogger creates a new zap logger with the given configuration.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	zcfg, err := zapConfig(cfg)
	if err != nil {
		return nil, err
	}
	return zcfg.Build()
}

func zapConfig(cfg *Config) (zap.Config, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := zap.ParseAtomicLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zap.Config{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zcfg zap.Config
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	case "console", "text":
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return zap.Config{}, fmt.Errorf("invalid log format %q", cfg.Format)
	}
	zcfg.Level = level

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}
	zcfg.OutputPaths = []string{output}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg, nil
}
