// Package config loads deepwiki-md settings from an optional YAML file and
// DEEPWIKI_* environment variables, then validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/philipz/deepwiki-md-chrome-extension/core/diagram"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Engines a page can be converted with.
const (
	EngineTranscriber = "transcriber"
	EngineGeneric     = "generic"
)

var validate = validator.New()

// Config is the complete runtime configuration.
type Config struct {
	Debug     bool          `yaml:"debug"`
	OutputDir string        `yaml:"output_dir"`
	Engine    string        `yaml:"engine" validate:"oneof=transcriber generic"`
	Fetch     FetchConfig   `yaml:"fetch"`
	Diagram   DiagramConfig `yaml:"diagram"`
}

// FetchConfig controls HTTP retrieval.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	UserAgent string        `yaml:"user_agent" validate:"required"`
}

// DiagramConfig mirrors the reconstructor tolerances, in SVG user units.
type DiagramConfig struct {
	EdgeProximity          float64 `yaml:"edge_proximity" validate:"gt=0"`
	EdgeLabelProximity     float64 `yaml:"edge_label_proximity" validate:"gt=0"`
	NoteProximity          float64 `yaml:"note_proximity" validate:"gt=0"`
	NoteDedupeDistance     float64 `yaml:"note_dedupe_distance" validate:"gte=0"`
	DefaultClassSize       float64 `yaml:"default_class_size" validate:"gt=0"`
	LineTolerance          float64 `yaml:"line_tolerance" validate:"gte=0"`
	SelfMessageDistance    float64 `yaml:"self_message_distance" validate:"gt=0"`
	RowTolerance           float64 `yaml:"row_tolerance" validate:"gte=0"`
	DividerMargin          float64 `yaml:"divider_margin" validate:"gte=0"`
	DividerLookahead       float64 `yaml:"divider_lookahead" validate:"gte=0"`
	ParticipantLineGap     float64 `yaml:"participant_line_gap" validate:"gt=0"`
	StateEndpointTolerance float64 `yaml:"state_endpoint_tolerance" validate:"gt=0"`
	StateLabelProximity    float64 `yaml:"state_label_proximity" validate:"gt=0"`
	EndStateRadius         float64 `yaml:"end_state_radius" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	d := diagram.DefaultConfig()
	return Config{
		Engine: EngineTranscriber,
		Fetch: FetchConfig{
			Timeout:   30 * time.Second,
			UserAgent: "deepwiki-md/1.0 (https://github.com/philipz/deepwiki-md-chrome-extension)",
		},
		Diagram: DiagramConfig{
			EdgeProximity:          d.EdgeProximity,
			EdgeLabelProximity:     d.EdgeLabelProximity,
			NoteProximity:          d.NoteProximity,
			NoteDedupeDistance:     d.NoteDedupeDistance,
			DefaultClassSize:       d.DefaultClassSize,
			LineTolerance:          d.LineTolerance,
			SelfMessageDistance:    d.SelfMessageDistance,
			RowTolerance:           d.RowTolerance,
			DividerMargin:          d.DividerMargin,
			DividerLookahead:       d.DividerLookahead,
			ParticipantLineGap:     d.ParticipantLineGap,
			StateEndpointTolerance: d.StateEndpointTolerance,
			StateLabelProximity:    d.StateLabelProximity,
			EndStateRadius:         d.EndStateRadius,
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Debug = envBool("DEEPWIKI_DEBUG", c.Debug)
	c.OutputDir = envOr("DEEPWIKI_OUTPUT_DIR", c.OutputDir)
	c.Engine = envOr("DEEPWIKI_ENGINE", c.Engine)
	c.Fetch.Timeout = envDuration("DEEPWIKI_FETCH_TIMEOUT", c.Fetch.Timeout)
	c.Fetch.UserAgent = envOr("DEEPWIKI_USER_AGENT", c.Fetch.UserAgent)
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// DiagramConfig converts the tolerances into reconstructor settings.
func (c Config) DiagramConfig(logger *zap.Logger) diagram.Config {
	d := c.Diagram
	return diagram.Config{
		Debug:                  c.Debug,
		Logger:                 logger,
		EdgeProximity:          d.EdgeProximity,
		EdgeLabelProximity:     d.EdgeLabelProximity,
		NoteProximity:          d.NoteProximity,
		NoteDedupeDistance:     d.NoteDedupeDistance,
		DefaultClassSize:       d.DefaultClassSize,
		LineTolerance:          d.LineTolerance,
		SelfMessageDistance:    d.SelfMessageDistance,
		RowTolerance:           d.RowTolerance,
		DividerMargin:          d.DividerMargin,
		DividerLookahead:       d.DividerLookahead,
		ParticipantLineGap:     d.ParticipantLineGap,
		StateEndpointTolerance: d.StateEndpointTolerance,
		StateLabelProximity:    d.StateLabelProximity,
		EndStateRadius:         d.EndStateRadius,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
