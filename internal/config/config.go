package config

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ieee0824/wfstdec/decoder"
)

const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultLMScale     = 1.0
	DefaultParallelism = 1
)

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("config: invalid")

// Config is the complete runtime configuration of the CLI and Recognizer.
type Config struct {
	Decoder decoder.Config `yaml:"decoder"`

	Graph         string `yaml:"graph"`          // binary or OpenFst text graph
	InputSymbols  string `yaml:"input_symbols"`  // text graphs only
	OutputSymbols string `yaml:"output_symbols"` // text graphs only
	LM            string `yaml:"lm"`             // ARPA file, optional

	LMScale       float64 `yaml:"lm_scale" validate:"gt=0"`
	OOVLog10Prob  float64 `yaml:"oov_log10_prob" validate:"lte=0"` // 0 disables
	AcousticScale float32 `yaml:"acoustic_scale" validate:"gt=0"`

	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat   string `yaml:"log_format" validate:"oneof=console json"`
	Parallelism int    `yaml:"parallelism" validate:"gte=1"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Decoder:       decoder.DefaultConfig(),
		LMScale:       DefaultLMScale,
		AcousticScale: 1.0,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		Parallelism:   DefaultParallelism,
	}
}

// Validate checks every field, including the nested decoder section.
func (c Config) Validate() error {
	if err := decoder.Validator().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Logger builds a zap logger honoring LogLevel and LogFormat.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	zc := zap.NewProductionConfig()
	if c.LogFormat == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
