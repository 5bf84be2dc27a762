// Package app wires the baker, planet, orbit controls and approach
// controller into one frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"planetview/approach"
	"planetview/bake"
	"planetview/config"
	"planetview/controls"
	"planetview/core"
	"planetview/export"
	"planetview/pick"
	"planetview/planet"
	"planetview/scene"
	"planetview/telemetry"
)

// Renderer draws the scene context into the current surface.
type Renderer interface {
	// Upload sends a CPU texture to the GPU; textures with a GLID are skipped.
	Upload(tex *scene.Texture) error
	Render(ctx *scene.Context) error
}

// Surface is the window the app presents into.
type Surface interface {
	Size() (width, height int)
	PollEvents()
	SwapBuffers()
	ShouldClose() bool
}

// Publisher receives a snapshot every few frames.
type Publisher interface {
	Publish(s telemetry.Snapshot)
}

type Deps struct {
	GPU       bake.GPU
	Materials bake.MaterialSource // nil uses bake.ProceduralMaterials with the configured seed
	Renderer  Renderer
	Surface   Surface
	Settings  config.Settings
	Logger    *log.Logger

	// Optional.
	Publisher Publisher
	Commands  <-chan telemetry.Command
	Clock     core.Clock
}

// App owns all frame-loop state. Every method must be called from the
// goroutine that runs the loop.
type App struct {
	deps   Deps
	logger *log.Logger

	Scene    *scene.Context
	Planet   *planet.Planet
	Faces    []bake.BakedFace
	Controls *controls.OrbitControls
	Approach *approach.Controller

	click    pick.ClickDetector
	orbit    orbitUpdater
	last     approach.Result
	lastMode approach.Mode
	booted   bool
}

func New(deps Deps) (*App, error) {
	if deps.GPU == nil || deps.Renderer == nil || deps.Surface == nil {
		return nil, errors.New("app: GPU, Renderer and Surface are required")
	}
	if err := deps.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if deps.Materials == nil {
		deps.Materials = bake.ProceduralMaterials{Seed: deps.Settings.Bake.Seed}
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	w, h := deps.Surface.Size()
	aspect := float32(16.0 / 9.0)
	if w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	ctx := scene.NewContext(aspect)

	orbit := controls.NewOrbitControls(ctx.Camera, ctx.Anchor(), OrbitConfig(deps.Settings.Controls))
	if h > 0 {
		orbit.ViewportHeight = float32(h)
	}

	a := &App{
		deps:     deps,
		logger:   logger,
		Scene:    ctx,
		Controls: orbit,
		Approach: approach.NewController(deps.Settings.Approach.Tolerance),
		orbit:    orbitUpdater{orbit},
		lastMode: approach.ModeFree,
	}
	orbit.On(controls.EventStart, func(controls.Event) {
		a.Approach.ClearTarget()
	})
	return a, nil
}

// OrbitConfig maps the controls settings onto controls.Config.
func OrbitConfig(s config.ControlsSettings) controls.Config {
	cfg := controls.DefaultConfig()
	cfg.AutoRotate = s.AutoRotate
	cfg.AutoRotateSpeed = s.AutoRotateSpeed
	cfg.DampingFactor = s.DampingFactor
	cfg.ZoomSpeed = s.ZoomSpeed
	cfg.MinDistance = s.MinDistance
	cfg.MaxDistance = s.MaxDistance
	return cfg
}

// PlanetOptions maps the planet settings onto planet.Options.
func PlanetOptions(s config.PlanetSettings) planet.Options {
	opts := planet.DefaultOptions()
	opts.Radius = s.Radius
	opts.Segments = s.Segments
	opts.Relief = s.Relief
	opts.BumpScale = s.BumpScale
	return opts
}

// Boot bakes the six faces, builds the planet, uploads its textures and
// starts the initial approach. It must finish before the first Frame.
func (a *App) Boot() error {
	s := a.deps.Settings

	baker := bake.NewBaker(a.deps.GPU, a.deps.Materials)
	baker.Logger = a.logger
	faces, err := baker.Bake(s.Bake.Resolution)
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	a.Faces = faces

	p, err := planet.Build(a.Scene, faces, PlanetOptions(s.Planet))
	if err != nil {
		return fmt.Errorf("boot: %w", err)
	}
	a.Planet = p

	for _, tex := range a.Scene.Textures() {
		if err := a.deps.Renderer.Upload(tex); err != nil {
			return fmt.Errorf("boot: upload %s: %w", tex.Name, err)
		}
	}

	if s.Export.Dir != "" {
		if err := export.WriteAll(s.Export.Dir, p, faces); err != nil {
			a.logger.Printf("export to %s failed: %v", s.Export.Dir, err)
		} else {
			a.logger.Printf("Exported faces and %s to %s", export.GLBName, s.Export.Dir)
		}
	}

	a.Approach.SetTarget(s.Approach.InitialDistance)
	a.booted = true
	a.logger.Printf("Planet ready: %d faces at %dx%d, approaching %.1f",
		len(faces), s.Bake.Resolution, s.Bake.Resolution, s.Approach.InitialDistance)
	return nil
}

// PointerDown, PointerMove and PointerUp take window coordinates of the
// primary button; touch input maps onto the same calls.
func (a *App) PointerDown(x, y float32) {
	a.click.Down(x, y)
	a.Controls.PointerDown(x, y)
}

func (a *App) PointerMove(x, y float32) {
	a.click.Move(x, y)
	a.Controls.PointerMove(x, y)
}

func (a *App) PointerUp(x, y float32) {
	a.Controls.PointerUp()
	if a.click.Up(x, y) {
		a.Pick(x, y)
	}
}

func (a *App) Wheel(delta float32) {
	a.Controls.Wheel(delta)
}

// Resize updates the camera aspect and pointer scaling.
func (a *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	a.Scene.Camera.UpdateAspectRatio(float32(width), float32(height))
	a.Controls.ViewportHeight = float32(height)
}

// Pick casts a ray through window point (x, y) and, if it hits the planet,
// approaches the near distance. It reports whether the planet was hit.
func (a *App) Pick(x, y float32) bool {
	if a.Planet == nil {
		return false
	}
	w, h := a.deps.Surface.Size()
	if w <= 0 || h <= 0 {
		return false
	}
	ray := pick.ScreenToRay(x, y, float32(w), float32(h), a.Scene.Camera)
	hit, ok := a.Planet.Raycast(ray)
	if !ok {
		return false
	}
	a.logger.Printf("Picked %s at distance %.2f", hit.Node.Name, hit.Distance)
	a.Approach.SetTarget(a.deps.Settings.Approach.NearDistance)
	return true
}

// Frame runs one iteration: input, commands, approach step, telemetry and
// render. It returns core.ErrStop when the surface asks to close.
func (a *App) Frame(info core.FrameInfo) error {
	if !a.booted {
		return errors.New("app: Frame before Boot")
	}
	a.deps.Surface.PollEvents()
	if a.deps.Surface.ShouldClose() {
		return core.ErrStop
	}

	a.applyCommands()

	res := a.Approach.Step(a.Scene.Camera.Position, a.Scene.Anchor(), a.orbit)
	a.last = res
	if res.Mode != a.lastMode {
		a.logger.Printf("approach: %s -> %s at distance %.2f", a.lastMode, res.Mode, res.Distance)
		a.lastMode = res.Mode
	}
	a.publish(info, res)

	if err := a.deps.Renderer.Render(a.Scene); err != nil {
		return err
	}
	a.deps.Surface.SwapBuffers()
	return nil
}

func (a *App) applyCommands() {
	if a.deps.Commands == nil {
		return
	}
	for {
		select {
		case cmd := <-a.deps.Commands:
			switch cmd.Kind {
			case telemetry.CommandSetTarget:
				target := a.deps.Settings.Controls.Clamp(cmd.Target)
				if target != cmd.Target {
					a.logger.Printf("target %v clamped to %v", cmd.Target, target)
				}
				a.Approach.SetTarget(target)
			case telemetry.CommandClearTarget:
				a.Approach.ClearTarget()
			}
		default:
			return
		}
	}
}

func (a *App) publish(info core.FrameInfo, res approach.Result) {
	if a.deps.Publisher == nil {
		return
	}
	every := uint64(a.deps.Settings.Telemetry.Every)
	if every == 0 {
		every = 1
	}
	if info.Index%every != 0 {
		return
	}
	a.deps.Publisher.Publish(telemetry.Snapshot{
		Frame:     info.Index,
		Mode:      res.Mode.String(),
		Distance:  res.Distance,
		Target:    res.Target,
		HasTarget: res.HasTarget,
		Factor:    res.Factor,
	})
}

// LastStep returns the result of the most recent approach step.
func (a *App) LastStep() approach.Result {
	return a.last
}

// Run drives Frame from a core.Loop until ctx is cancelled or the surface
// closes.
func (a *App) Run(ctx context.Context) error {
	loop := core.Loop{Clock: a.deps.Clock, MaxDelta: 0.1}
	return loop.Run(ctx, a.Frame)
}

// orbitUpdater adapts OrbitControls to approach.Updater.
type orbitUpdater struct {
	c *controls.OrbitControls
}

func (o orbitUpdater) Update()                     { o.c.Update() }
func (o orbitUpdater) UpdateScaled(factor float32) { o.c.UpdateScaled(factor) }
