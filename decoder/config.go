package decoder

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Unlimited disables the max-active bound.
const Unlimited = math.MaxInt32

// Config holds beam search parameters.
type Config struct {
	// Beam is the log-cost pruning width.
	Beam float32 `json:"beam" yaml:"beam" validate:"gt=0"`
	// MaxActive caps survivors per frame, Unlimited for none.
	MaxActive int `json:"max_active" yaml:"max_active" validate:"gt=1"`
	// MinActive keeps at least this many tokens regardless of the beam.
	MinActive int `json:"min_active" yaml:"min_active" validate:"gte=0,ltfield=MaxActive"`
	// BeamDelta is slack added to the adaptive beam.
	BeamDelta float32 `json:"beam_delta" yaml:"beam_delta"`
	// HashRatio is index buckets per active token.
	HashRatio float32 `json:"hash_ratio" yaml:"hash_ratio" validate:"gte=1"`
	// TokenPoolRealloc is tokens per pool chunk.
	TokenPoolRealloc int `json:"token_pool_realloc" yaml:"token_pool_realloc" validate:"gte=1"`
}

// DefaultConfig returns reasonable default parameters.
func DefaultConfig() Config {
	return Config{
		Beam:             16.0,
		MaxActive:        Unlimited,
		MinActive:        20,
		BeamDelta:        0.5,
		HashRatio:        2.0,
		TokenPoolRealloc: 2048,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator used for configuration structs.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks hash_ratio >= 1, max_active > 1 and
// 0 <= min_active < max_active, plus a positive beam and pool chunk.
func (c Config) Validate() error {
	err := Validator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "ltfield":
		return fmt.Sprintf("%s (%v) must be less than %s", fe.Field(), fe.Value(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s (%v) must be > %s", fe.Field(), fe.Value(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s (%v) must be >= %s", fe.Field(), fe.Value(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
