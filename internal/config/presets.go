package config

import (
	"sort"

	"github.com/san-kum/arena/internal/physics"
)

var unitCraft = physics.Props{Mass: 1, Inertia: 0.25, Radius: 1, DragArea: 1}

// Presets are named scenarios. Each call builds a fresh Config.
var Presets = map[string]func() *Config{
	// 30 craft dropped on top of each other, all thrusting and turning.
	"sandbox": DefaultConfig,

	// Two craft overlapping head-on and nothing else.
	"pair": func() *Config {
		cfg := DefaultConfig()
		cfg.Controller = "none"
		cfg.Duration = 2
		cfg.RecordEvery = 1
		cfg.Arena = ArenaConfig{Kind: ArenaOpen, Width: 20, Height: 20}
		cfg.Bodies = []BodyConfig{
			{X: 9.25, Y: 10, Props: unitCraft},
			{X: 10.75, Y: 10, Props: unitCraft},
		}
		return cfg
	},

	// A small fleet steering around a pillar to the far corner.
	"race": func() *Config {
		cfg := DefaultConfig()
		cfg.Controller = "seek"
		cfg.Duration = 30
		cfg.Spawn.Count = 8
		cfg.Spawn.CenterX, cfg.Spawn.CenterY, cfg.Spawn.HalfSize = 8, 8, 4
		cfg.Arena = ArenaConfig{
			Kind: ArenaBox, Width: 50, Height: 50, Resolution: 2,
			Obstacles: []ObstacleConfig{{X: 25, Y: 25, Radius: 5}},
		}
		cfg.Control = ControlConfig{Thrust: 30, MaxTorque: 10, TargetX: 42, TargetY: 42, Kp: 4, Kd: 1.5}
		return cfg
	},

	// Uncontrolled craft coasting to a stop in open space.
	"drift": func() *Config {
		cfg := DefaultConfig()
		cfg.Controller = "none"
		cfg.Duration = 30
		cfg.Spawn.Count = 10
		cfg.Spawn.CenterX, cfg.Spawn.CenterY, cfg.Spawn.HalfSize = 50, 50, 20
		cfg.Spawn.MaxSpeed, cfg.Spawn.MaxSpin = 5, 2
		cfg.Arena = ArenaConfig{Kind: ArenaOpen, Width: 100, Height: 100}
		return cfg
	},

	// Every craft mashing keys at random, like a lobby of idle players.
	"scramble": func() *Config {
		cfg := DefaultConfig()
		cfg.Controller = "random"
		cfg.Spawn.Count = 20
		cfg.Spawn.HalfSize = 8
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
