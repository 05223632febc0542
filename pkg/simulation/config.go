package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/lao-tseu-is-alive/go-flock-simulation/pkg/spatial"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

//go:embed flock.schema.json
var schemaJSON string

const schemaURL = "flock.schema.json"

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString(schemaURL, schemaJSON)
})

type Config struct {
	// World Dimensions
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`

	// Population
	NumAgents          int     `json:"numAgents"`
	InitialVelocityMin float64 `json:"initialVelocityMin"` // per component
	InitialVelocityMax float64 `json:"initialVelocityMax"`

	// Neighbour discovery
	SightRadius float64 `json:"sightRadius"` // How far can they see?
	CellSize    float64 `json:"cellSize"`    // Fixed for the lifetime of the index

	// Flocking weights
	RepelWeight    float64 `json:"repelWeight"`    // Separation strength
	AlignWeight    float64 `json:"alignWeight"`    // Alignment strength
	CohesionWeight float64 `json:"cohesionWeight"` // Cohesion strength

	// Speed limits
	MinSpeed float64 `json:"minSpeed"`
	MaxSpeed float64 `json:"maxSpeed"`

	// Policies
	BoundsPolicy string `json:"boundsPolicy"` // clamp | reject
	FramePolicy  string `json:"framePolicy"`  // double-buffer | sequential
	Workers      int    `json:"workers"`      // 0 means GOMAXPROCS
	Seed         uint64 `json:"seed"`         // 0 means time based

	// Rendering
	SpriteScale        float64 `json:"spriteScale"`
	DisplayGrid        bool    `json:"displayGrid"`
	DisplaySightRadius bool    `json:"displaySightRadius"`
}

func DefaultConfig() *Config {
	return &Config{
		WorldWidth:         1000,
		WorldHeight:        600,
		NumAgents:          10000,
		InitialVelocityMin: 0,
		InitialVelocityMax: 100,
		SightRadius:        20,
		CellSize:           20,
		RepelWeight:        7.5,
		AlignWeight:        0.045,
		CohesionWeight:     0.03,
		MinSpeed:           15,
		MaxSpeed:           150,
		BoundsPolicy:       spatial.Clamp.String(),
		FramePolicy:        DoubleBuffer.String(),
		SpriteScale:        0.5,
	}
}

// Validate checks the constraints the schema cannot express.
func (c *Config) Validate() error {
	var errs []error
	if !(c.WorldWidth > 0) || !(c.WorldHeight > 0) {
		errs = append(errs, fmt.Errorf("world must have a positive size, got %vx%v", c.WorldWidth, c.WorldHeight))
	}
	if c.NumAgents < 0 {
		errs = append(errs, fmt.Errorf("numAgents must not be negative, got %d", c.NumAgents))
	}
	if !(c.SightRadius > 0) {
		errs = append(errs, fmt.Errorf("sightRadius must be positive, got %v", c.SightRadius))
	}
	if !(c.CellSize > 0) {
		errs = append(errs, fmt.Errorf("cellSize must be positive, got %v", c.CellSize))
	}
	if c.MinSpeed < 0 || c.MinSpeed > c.MaxSpeed {
		errs = append(errs, fmt.Errorf("speed limits must satisfy 0 <= minSpeed <= maxSpeed, got [%v, %v]", c.MinSpeed, c.MaxSpeed))
	}
	if c.InitialVelocityMin > c.InitialVelocityMax {
		errs = append(errs, fmt.Errorf("initialVelocityMin %v is above initialVelocityMax %v", c.InitialVelocityMin, c.InitialVelocityMax))
	}
	if !(c.SpriteScale > 0) {
		errs = append(errs, fmt.Errorf("spriteScale must be positive, got %v", c.SpriteScale))
	}
	if _, err := spatial.ParseBoundsPolicy(c.BoundsPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseFramePolicy(c.FramePolicy); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConfig reads a JSON file, validates it against the embedded schema and
// merges it over DefaultConfig: keys missing from the file keep their default.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := cfg.merge(b); err != nil {
		return nil, fmt.Errorf("config %s: %w", configFile, err)
	}
	return cfg, nil
}

// LoadConfigOrDefault is LoadConfig, except that an empty path gives DefaultConfig.
func LoadConfigOrDefault(configFile string) (*Config, error) {
	if configFile == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(configFile)
}

// ErrNotLive is returned for overrides of a setting that is fixed once the
// world is built (its size, the index, the policies, the population).
var ErrNotLive = errors.New("setting cannot change while the world runs")

// liveKeys are the settings Simulator.Retune applies to a running world.
var liveKeys = map[string]bool{
	"sightRadius":    true,
	"repelWeight":    true,
	"alignWeight":    true,
	"cohesionWeight": true,
	"minSpeed":       true,
	"maxSpeed":       true,
}

// CheckLiveOverrides refuses every key of overrides a running world would ignore.
func CheckLiveOverrides(overrides *structpb.Struct) error {
	var errs []error
	for _, k := range slices.Sorted(maps.Keys(overrides.GetFields())) {
		if !liveKeys[k] {
			errs = append(errs, fmt.Errorf("%s: %w", k, ErrNotLive))
		}
	}
	return errors.Join(errs...)
}

// ApplyOverrides merges a partial configuration carried by a protobuf Struct,
// the form tuning updates travel in between the UI and the world actor.
// Only the live settings may be overridden. The config is left untouched when
// the overrides are invalid.
func (c *Config) ApplyOverrides(overrides *structpb.Struct) error {
	if err := CheckLiveOverrides(overrides); err != nil {
		return fmt.Errorf("overrides: %w", err)
	}
	b, err := protojson.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("failed to encode overrides: %w", err)
	}
	next := *c
	if err := next.merge(b); err != nil {
		return fmt.Errorf("overrides: %w", err)
	}
	*c = next
	return nil
}

func (c *Config) merge(b []byte) error {
	sch, err := compileSchema()
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := json.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return c.Validate()
}
