// Package config loads viewer settings from a JSON file and command-line
// flags. Flags override the file, the file overrides the defaults.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// DefaultPath is read when -config is not given. A missing file is not an
// error.
const DefaultPath = "planetview.json"

type Settings struct {
	Window    WindowSettings    `json:"window"`
	Bake      BakeSettings      `json:"bake"`
	Planet    PlanetSettings    `json:"planet"`
	Approach  ApproachSettings  `json:"approach"`
	Controls  ControlsSettings  `json:"controls"`
	Telemetry TelemetrySettings `json:"telemetry"`
	Export    ExportSettings    `json:"export"`
}

type WindowSettings struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Title      string `json:"title"`
	VSync      bool   `json:"vsync"`
	Fullscreen bool   `json:"fullscreen"`
}

type BakeSettings struct {
	Resolution int   `json:"resolution"`
	Seed       int64 `json:"seed"`
}

type PlanetSettings struct {
	Radius    float32 `json:"radius"`
	Segments  int     `json:"segments"`
	Relief    float32 `json:"relief"`
	BumpScale float32 `json:"bumpScale"`
}

type ApproachSettings struct {
	Tolerance       float32 `json:"tolerance"`
	NearDistance    float32 `json:"nearDistance"`
	InitialDistance float32 `json:"initialDistance"`
}

type ControlsSettings struct {
	AutoRotate      bool    `json:"autoRotate"`
	AutoRotateSpeed float32 `json:"autoRotateSpeed"`
	DampingFactor   float32 `json:"dampingFactor"`
	ZoomSpeed       float32 `json:"zoomSpeed"`
	MinDistance     float32 `json:"minDistance"`
	MaxDistance     float32 `json:"maxDistance"`
}

// InRange reports whether the orbit can reach distance d.
func (c ControlsSettings) InRange(d float32) bool {
	return d >= c.MinDistance && d <= c.MaxDistance
}

// Clamp limits d to the reachable orbit distances.
func (c ControlsSettings) Clamp(d float32) float32 {
	return min(max(d, c.MinDistance), c.MaxDistance)
}

type TelemetrySettings struct {
	// Addr is the WebSocket listen address; empty disables telemetry.
	Addr string `json:"addr"`
	// Every publishes a snapshot every N frames.
	Every int `json:"every"`
}

type ExportSettings struct {
	// Dir receives face PNGs and planet.glb after baking; empty disables export.
	Dir string `json:"dir"`
}

func Defaults() Settings {
	return Settings{
		Window: WindowSettings{
			Width:  1280,
			Height: 720,
			Title:  "Planet",
			VSync:  true,
		},
		Bake: BakeSettings{
			Resolution: 1024,
		},
		Planet: PlanetSettings{
			Radius:    10,
			Segments:  64,
			Relief:    0.15,
			BumpScale: 0.05,
		},
		Approach: ApproachSettings{
			Tolerance:       0.1,
			NearDistance:    40,
			InitialDistance: 60,
		},
		Controls: ControlsSettings{
			AutoRotate:      true,
			AutoRotateSpeed: 3.01,
			DampingFactor:   0.1,
			ZoomSpeed:       0.5,
			MinDistance:     11,
			MaxDistance:     500,
		},
		Telemetry: TelemetrySettings{
			Every: 6,
		},
	}
}

// Load reads path on top of the defaults. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Defaults()
	if err := s.merge(path); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Settings) merge(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("No %s found, using defaults", path)
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(s); err != nil {
		return fmt.Errorf("error parsing %s: %w", path, err)
	}
	return nil
}

// Save writes s as indented JSON.
func (s Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// RegisterFlags binds command-line flags to the fields of s.
func (s *Settings) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&s.Window.Width, "width", s.Window.Width, "window width")
	fs.IntVar(&s.Window.Height, "height", s.Window.Height, "window height")
	fs.BoolVar(&s.Window.VSync, "vsync", s.Window.VSync, "wait for vertical sync")
	fs.BoolVar(&s.Window.Fullscreen, "fullscreen", s.Window.Fullscreen, "use the primary monitor")

	fs.IntVar(&s.Bake.Resolution, "resolution", s.Bake.Resolution, "baked face resolution in pixels")
	fs.Int64Var(&s.Bake.Seed, "seed", s.Bake.Seed, "procedural pattern seed")

	fs.IntVar(&s.Planet.Segments, "segments", s.Planet.Segments, "grid cells per face side")
	float32Var(fs, &s.Planet.Relief, "relief", "surface displacement")

	float32Var(fs, &s.Approach.Tolerance, "tolerance", "approach tolerance")
	float32Var(fs, &s.Approach.NearDistance, "near", "distance approached on pick")
	float32Var(fs, &s.Approach.InitialDistance, "initial", "distance approached at start-up")

	fs.BoolVar(&s.Controls.AutoRotate, "autorotate", s.Controls.AutoRotate, "spin the camera when idle")

	fs.StringVar(&s.Telemetry.Addr, "telemetry", s.Telemetry.Addr, "WebSocket listen address, e.g. :8080")
	fs.StringVar(&s.Export.Dir, "export", s.Export.Dir, "write baked faces and planet.glb to this directory")
}

type float32Value struct{ p *float32 }

func (v float32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return fmt.Sprint(*v.p)
}

func (v float32Value) Set(s string) error {
	var f float32
	if _, err := fmt.Sscan(s, &f); err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*v.p = f
	return nil
}

func float32Var(fs *flag.FlagSet, p *float32, name, usage string) {
	fs.Var(float32Value{p}, name, usage)
}

// Parse resolves the settings for args: defaults, then the -config file,
// then the remaining flags.
func Parse(name string, args []string, output io.Writer) (Settings, error) {
	path, err := configPath(name, args)
	if err != nil {
		return Settings{}, err
	}

	s, err := Load(path)
	if err != nil {
		return s, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.String("config", DefaultPath, "settings file")
	s.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// configPath finds -config without applying any other flag.
func configPath(name string, args []string) (string, error) {
	var scratch Settings
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	path := fs.String("config", DefaultPath, "settings file")
	scratch.RegisterFlags(fs)
	// -h is reported by the second pass, which prints the usage.
	if err := fs.Parse(args); err != nil && !errors.Is(err, flag.ErrHelp) {
		return "", err
	}
	return *path, nil
}

// Validate rejects settings the viewer cannot start with.
func (s Settings) Validate() error {
	switch {
	case s.Window.Width <= 0 || s.Window.Height <= 0:
		return fmt.Errorf("invalid window size %dx%d", s.Window.Width, s.Window.Height)
	case s.Bake.Resolution <= 0:
		return fmt.Errorf("invalid bake resolution %d", s.Bake.Resolution)
	case s.Planet.Radius <= 0:
		return fmt.Errorf("invalid planet radius %v", s.Planet.Radius)
	case s.Planet.Segments <= 0:
		return fmt.Errorf("invalid planet segments %d", s.Planet.Segments)
	case s.Approach.Tolerance <= 0:
		return fmt.Errorf("invalid approach tolerance %v", s.Approach.Tolerance)
	case s.Controls.MinDistance > s.Controls.MaxDistance:
		return fmt.Errorf("controls: min distance %v above max %v", s.Controls.MinDistance, s.Controls.MaxDistance)
	case !s.Controls.InRange(s.Approach.NearDistance):
		return fmt.Errorf("approach: near distance %v outside [%v, %v]", s.Approach.NearDistance, s.Controls.MinDistance, s.Controls.MaxDistance)
	case !s.Controls.InRange(s.Approach.InitialDistance):
		return fmt.Errorf("approach: initial distance %v outside [%v, %v]", s.Approach.InitialDistance, s.Controls.MinDistance, s.Controls.MaxDistance)
	}
	return nil
}
