package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "WFSTDEC_"

// Loader loads configuration from an optional YAML file and environment
// variables, in that order of precedence over the defaults. Tests can
// override Lookup and ReadFile to inject deterministic input.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load returns the validated configuration. path may be empty.
func (l Loader) Load(path string) (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	cfg := Default()
	if path != "" {
		raw, err := l.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := applyYAML(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyYAML(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (l Loader) applyEnv(cfg *Config) error {
	overrideString(l.Lookup, "GRAPH", &cfg.Graph)
	overrideString(l.Lookup, "INPUT_SYMBOLS", &cfg.InputSymbols)
	overrideString(l.Lookup, "OUTPUT_SYMBOLS", &cfg.OutputSymbols)
	overrideString(l.Lookup, "LM", &cfg.LM)
	overrideString(l.Lookup, "LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "LOG_FORMAT", &cfg.LogFormat)

	var err error
	setErr := func(e error) {
		if err == nil {
			err = e
		}
	}
	setErr(overrideFloat(l.Lookup, "LM_SCALE", &cfg.LMScale))
	setErr(overrideFloat(l.Lookup, "OOV_LOG10_PROB", &cfg.OOVLog10Prob))
	setErr(overrideFloat32(l.Lookup, "ACOUSTIC_SCALE", &cfg.AcousticScale))
	setErr(overrideInt(l.Lookup, "PARALLELISM", &cfg.Parallelism))
	setErr(overrideFloat32(l.Lookup, "BEAM", &cfg.Decoder.Beam))
	setErr(overrideFloat32(l.Lookup, "BEAM_DELTA", &cfg.Decoder.BeamDelta))
	setErr(overrideFloat32(l.Lookup, "HASH_RATIO", &cfg.Decoder.HashRatio))
	setErr(overrideInt(l.Lookup, "MAX_ACTIVE", &cfg.Decoder.MaxActive))
	setErr(overrideInt(l.Lookup, "MIN_ACTIVE", &cfg.Decoder.MinActive))
	setErr(overrideInt(l.Lookup, "TOKEN_POOL_REALLOC", &cfg.Decoder.TokenPoolRealloc))
	return err
}

func lookup(fn func(string) (string, bool), key string) (string, bool) {
	v, ok := fn(EnvPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func overrideString(fn func(string) (string, bool), key string, target *string) {
	if v, ok := lookup(fn, key); ok {
		*target = v
	}
}

func overrideInt(fn func(string) (string, bool), key string, target *int) error {
	v, ok := lookup(fn, key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	*target = n
	return nil
}

func overrideFloat(fn func(string) (string, bool), key string, target *float64) error {
	v, ok := lookup(fn, key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	*target = f
	return nil
}

func overrideFloat32(fn func(string) (string, bool), key string, target *float32) error {
	v, ok := lookup(fn, key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
	}
	*target = float32(f)
	return nil
}
