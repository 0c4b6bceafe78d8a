package diagram

import "go.uber.org/zap"

// Config carries the logger and every geometric tolerance used by the
// reconstructors. The zero value is not useful; start from DefaultConfig.
type Config struct {
	// Debug enables per-element trace logging.
	Debug  bool
	Logger *zap.Logger

	// Flowchart.
	EdgeProximity      float64 // max endpoint-to-node distance for geometric edge matching
	EdgeLabelProximity float64 // max label-centre to path-centre distance

	// Class diagram.
	NoteProximity      float64 // max note-to-path-start distance; class side allows twice this
	NoteDedupeDistance float64
	DefaultClassSize   float64

	// Sequence diagram.
	LineTolerance       float64 // shared-endpoint tolerance for block frame lines
	SelfMessageDistance float64
	RowTolerance        float64 // block labels within this many px of y share a row
	DividerMargin       float64
	DividerLookahead    float64
	ParticipantLineGap  float64 // max y gap between stacked lines of one actor label

	// State diagram.
	StateEndpointTolerance float64
	StateLabelProximity    float64
	EndStateRadius         float64
}

// DefaultConfig returns the tolerances tuned against the Mermaid renderer.
func DefaultConfig() Config {
	return Config{
		Logger:                 zap.NewNop(),
		EdgeProximity:          200,
		EdgeLabelProximity:     150,
		NoteProximity:          50,
		NoteDedupeDistance:     10,
		DefaultClassSize:       200,
		LineTolerance:          2,
		SelfMessageDistance:    20,
		RowTolerance:           5,
		DividerMargin:          5,
		DividerLookahead:       40,
		ParticipantLineGap:     20,
		StateEndpointTolerance: 5,
		StateLabelProximity:    150,
		EndStateRadius:         7,
	}
}

func (c Config) log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// trace logs at debug level only when Debug is set.
func (c Config) trace(msg string, fields ...zap.Field) {
	if c.Debug {
		c.log().Debug(msg, fields...)
	}
}
