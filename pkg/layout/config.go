package layout

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Direction is the axis along which story depth grows.
type Direction string

const (
	LeftToRight Direction = "left-to-right"
	RightToLeft Direction = "right-to-left"
	TopToBottom Direction = "top-to-bottom"
	BottomToTop Direction = "bottom-to-top"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case LeftToRight, RightToLeft, TopToBottom, BottomToTop:
		return true
	}
	return false
}

// horizontal reports whether depth runs along the x axis.
func (d Direction) horizontal() bool {
	return d == LeftToRight || d == RightToLeft
}

// Config tunes the simulation. Keys match the JSON/YAML/mapstructure names
// accepted by UpdateConfig.
type Config struct {
	Width     float64   `mapstructure:"width" json:"width" yaml:"width"`
	Height    float64   `mapstructure:"height" json:"height" yaml:"height"`
	Padding   float64   `mapstructure:"padding" json:"padding" yaml:"padding"`
	Direction Direction `mapstructure:"direction" json:"direction" yaml:"direction"`

	IdealEdgeLength      float64 `mapstructure:"idealEdgeLength" json:"idealEdgeLength" yaml:"idealEdgeLength"`
	RepulsionStrength    float64 `mapstructure:"repulsionStrength" json:"repulsionStrength" yaml:"repulsionStrength"`
	AttractionStrength   float64 `mapstructure:"attractionStrength" json:"attractionStrength" yaml:"attractionStrength"`
	CenteringStrength    float64 `mapstructure:"centeringStrength" json:"centeringStrength" yaml:"centeringStrength"`
	HierarchicalStrength float64 `mapstructure:"hierarchicalStrength" json:"hierarchicalStrength" yaml:"hierarchicalStrength"`
	MinNodeDistance      float64 `mapstructure:"minNodeDistance" json:"minNodeDistance" yaml:"minNodeDistance"`

	Damping              float64 `mapstructure:"damping" json:"damping" yaml:"damping"`
	MaxVelocity          float64 `mapstructure:"maxVelocity" json:"maxVelocity" yaml:"maxVelocity"`
	MaxIterations        int     `mapstructure:"maxIterations" json:"maxIterations" yaml:"maxIterations"`
	ConvergenceThreshold float64 `mapstructure:"convergenceThreshold" json:"convergenceThreshold" yaml:"convergenceThreshold"`
	InitialJitter        float64 `mapstructure:"initialJitter" json:"initialJitter" yaml:"initialJitter"`

	NodeWidth  float64 `mapstructure:"nodeWidth" json:"nodeWidth" yaml:"nodeWidth"`
	NodeHeight float64 `mapstructure:"nodeHeight" json:"nodeHeight" yaml:"nodeHeight"`
}

// DefaultConfig returns the tuning used by the story editor canvas.
func DefaultConfig() Config {
	return Config{
		Width:                1200,
		Height:               800,
		Padding:              50,
		Direction:            LeftToRight,
		IdealEdgeLength:      200,
		RepulsionStrength:    5000,
		AttractionStrength:   0.01,
		CenteringStrength:    0.001,
		HierarchicalStrength: 0.05,
		MinNodeDistance:      50,
		Damping:              0.95,
		MaxVelocity:          50,
		MaxIterations:        500,
		ConvergenceThreshold: 0.01,
		InitialJitter:        100,
		NodeWidth:            150,
		NodeHeight:           60,
	}
}

// Validate rejects configurations the simulation cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Padding < 0:
		return fmt.Errorf("padding must not be negative")
	case c.Width <= 2*c.Padding || c.Height <= 2*c.Padding:
		return fmt.Errorf("canvas %gx%g leaves no room inside padding %g", c.Width, c.Height, c.Padding)
	case !c.Direction.Valid():
		return fmt.Errorf("unknown direction %q", c.Direction)
	case c.Damping <= 0 || c.Damping > 1:
		return fmt.Errorf("damping must be in (0, 1], got %g", c.Damping)
	case c.MaxVelocity <= 0:
		return fmt.Errorf("maxVelocity must be positive")
	case c.MaxIterations <= 0:
		return fmt.Errorf("maxIterations must be positive")
	case c.ConvergenceThreshold < 0:
		return fmt.Errorf("convergenceThreshold must not be negative")
	case c.NodeWidth <= 0 || c.NodeHeight <= 0:
		return fmt.Errorf("default node size must be positive")
	}
	return nil
}

// Merge applies the supplied keys onto a copy of c. Unknown keys are an
// error; loosely typed input such as "300" for a number is accepted.
func (c Config) Merge(changes map[string]any) (Config, error) {
	merged := c
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &merged,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return c, err
	}
	if err := dec.Decode(changes); err != nil {
		return c, fmt.Errorf("layout config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return c, fmt.Errorf("layout config: %w", err)
	}
	return merged, nil
}
