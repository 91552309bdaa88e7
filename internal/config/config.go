// Package config handles engine configuration loading and management.
package config

import (
	"github.com/helioforge/terrastream/internal/engine/lod"
	"github.com/helioforge/terrastream/internal/engine/quadtree"
	"github.com/helioforge/terrastream/internal/engine/streaming"
	"github.com/helioforge/terrastream/internal/engine/terrain"
)

// Config holds all engine settings.
type Config struct {
	Generation terrain.GenerationConfig `yaml:"generation"`
	QuadTree   quadtree.Config          `yaml:"quadtree"`
	Streaming  streaming.Config         `yaml:"streaming"`
	Transition lod.Config               `yaml:"transitions"`
	Simulation SimulationConfig         `yaml:"simulation"`
	Logging    LoggingConfig            `yaml:"logging"`
}

// SimulationConfig holds settings for the terrainsim demo loop.
type SimulationConfig struct {
	DurationSec  float64 `yaml:"duration_sec"`  // 0 = run until interrupted
	TickRate     float64 `yaml:"tick_rate"`     // updates per second
	ViewerSpeed  float32 `yaml:"viewer_speed"`  // world units per second
	ViewerHeight float32 `yaml:"viewer_height"` // above terrain base
	OrbitRadius  float32 `yaml:"orbit_radius"`  // viewer flight path radius
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Generation: terrain.DefaultGenerationConfig(),
		QuadTree:   quadtree.DefaultConfig(),
		Streaming:  streaming.DefaultConfig(),
		Transition: lod.DefaultConfig(),
		Simulation: SimulationConfig{
			DurationSec:  30,
			TickRate:     60,
			ViewerSpeed:  400,
			ViewerHeight: 500,
			OrbitRadius:  2000,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
