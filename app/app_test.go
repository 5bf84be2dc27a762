package app

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"planetview/approach"
	"planetview/bake"
	"planetview/bake/baketest"
	"planetview/config"
	"planetview/core"
	"planetview/scene"
	"planetview/telemetry"
)

type fakeRenderer struct {
	uploads int
	renders int
	err     error
}

func (r *fakeRenderer) Upload(tex *scene.Texture) error {
	r.uploads++
	return nil
}

func (r *fakeRenderer) Render(ctx *scene.Context) error {
	r.renders++
	return r.err
}

type fakeSurface struct {
	width, height int
	closeAfter    int // polls before ShouldClose turns true; 0 = never
	polls         int
	swaps         int
}

func (s *fakeSurface) Size() (int, int) { return s.width, s.height }
func (s *fakeSurface) PollEvents()      { s.polls++ }
func (s *fakeSurface) SwapBuffers()     { s.swaps++ }
func (s *fakeSurface) ShouldClose() bool {
	return s.closeAfter > 0 && s.polls > s.closeAfter
}

type fakePublisher struct {
	snapshots []telemetry.Snapshot
}

func (p *fakePublisher) Publish(s telemetry.Snapshot) { p.snapshots = append(p.snapshots, s) }

func testSettings() config.Settings {
	s := config.Defaults()
	s.Bake.Resolution = 8
	s.Planet.Segments = 4
	s.Controls.AutoRotate = false
	return s
}

type fixture struct {
	app      *App
	gpu      *baketest.GPU
	renderer *fakeRenderer
	surface  *fakeSurface
}

func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		gpu:      baketest.New(),
		renderer: &fakeRenderer{},
		surface:  &fakeSurface{width: 1280, height: 720},
	}
	deps := Deps{
		GPU:      f.gpu,
		Renderer: f.renderer,
		Surface:  f.surface,
		Settings: testSettings(),
		Logger:   log.New(io.Discard, "", 0),
	}
	if mutate != nil {
		mutate(&deps)
	}
	a, err := New(deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.app = a
	return f
}

func (f *fixture) boot(t *testing.T) {
	t.Helper()
	if err := f.app.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}
}

func (f *fixture) frames(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := f.app.Frame(core.FrameInfo{Index: uint64(i)}); err != nil {
			t.Fatalf("Frame %d: %v", i, err)
		}
	}
}

func TestBootBuildsPlanetAndTargetsInitialDistance(t *testing.T) {
	f := newFixture(t, nil)
	f.boot(t)

	if len(f.app.Faces) != bake.FaceCount || f.app.Planet == nil {
		t.Fatal("expected six faces and a planet")
	}
	if target, ok := f.app.Approach.Target(); !ok || target != 60 {
		t.Errorf("initial target: expected 60, got %v (set=%v)", target, ok)
	}
	// Six baked color textures plus six bump textures.
	if f.renderer.uploads != 2*bake.FaceCount {
		t.Errorf("uploads: expected %d, got %d", 2*bake.FaceCount, f.renderer.uploads)
	}
	if f.gpu.Restores != bake.FaceCount {
		t.Errorf("default surface restored %d times, expected %d", f.gpu.Restores, bake.FaceCount)
	}
}

func TestBootPropagatesBakeFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.gpu.FailReadAt = 0
	err := f.app.Boot()
	if !errors.Is(err, bake.ErrRenderTargetUnavailable) {
		t.Fatalf("expected ErrRenderTargetUnavailable, got %v", err)
	}
	if err := f.app.Frame(core.FrameInfo{}); err == nil {
		t.Error("Frame should refuse to run after a failed boot")
	}
}

func TestFramesEaseToInitialDistance(t *testing.T) {
	f := newFixture(t, nil)
	f.boot(t)

	prev := f.app.Scene.Camera.DistanceTo(f.app.Scene.Anchor())
	for i := 0; i < 600; i++ {
		if err := f.app.Frame(core.FrameInfo{Index: uint64(i)}); err != nil {
			t.Fatal(err)
		}
		d := f.app.Scene.Camera.DistanceTo(f.app.Scene.Anchor())
		if d > prev+1e-3 {
			t.Fatalf("frame %d: distance grew from %v to %v", i, prev, d)
		}
		prev = d
		if f.app.LastStep().Mode == approach.ModeSettled {
			break
		}
	}
	if f.app.LastStep().Mode != approach.ModeSettled {
		t.Fatalf("did not settle, distance %v", prev)
	}
	if prev < 60-0.1 || prev > 60+0.1 {
		t.Errorf("settled at %v, expected 60±0.1", prev)
	}
	if f.renderer.renders == 0 || f.surface.swaps != f.renderer.renders {
		t.Errorf("expected one swap per render, got %d renders and %d swaps", f.renderer.renders, f.surface.swaps)
	}
}

func TestClickOnPlanetApproachesNear(t *testing.T) {
	f := newFixture(t, nil)
	f.boot(t)

	f.app.PointerDown(640, 360)
	if _, ok := f.app.Approach.Target(); ok {
		t.Error("pointer down should clear the target")
	}
	f.app.PointerUp(640, 360)
	if target, ok := f.app.Approach.Target(); !ok || target != 40 {
		t.Errorf("click on planet: expected target 40, got %v (set=%v)", target, ok)
	}
}

func TestDragDoesNotPick(t *testing.T) {
	f := newFixture(t, nil)
	f.boot(t)

	f.app.PointerDown(640, 360)
	f.app.PointerMove(700, 360)
	f.app.PointerUp(700, 360)
	if _, ok := f.app.Approach.Target(); ok {
		t.Error("a drag should leave the target cleared")
	}
}

func TestClickOnSkyDoesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.boot(t)

	if f.app.Pick(5, 5) {
		t.Error("corner click should miss the planet")
	}
	if target, _ := f.app.Approach.Target(); target != 60 {
		t.Errorf("target: expected 60 to be kept, got %v", target)
	}
}

func TestWheelClearsTarget(t *testing.T) {
	f := newFixture(t, nil)
	f.boot(t)
	f.app.Wheel(1)
	if _, ok := f.app.Approach.Target(); ok {
		t.Error("wheel should clear the target")
	}
	f.frames(t, 1)
	if f.app.LastStep().Mode != approach.ModeFree {
		t.Errorf("Mode: expected free, got %s", f.app.LastStep().Mode)
	}
}

func TestCommandsApplyOnFrame(t *testing.T) {
	commands := make(chan telemetry.Command, 4)
	f := newFixture(t, func(d *Deps) { d.Commands = commands })
	f.boot(t)

	commands <- telemetry.Command{Kind: telemetry.CommandSetTarget, Target: 25}
	if target, _ := f.app.Approach.Target(); target != 60 {
		t.Fatal("command applied before the frame ran")
	}
	f.frames(t, 1)
	if target, _ := f.app.Approach.Target(); target != 25 {
		t.Errorf("target: expected 25, got %v", target)
	}

	commands <- telemetry.Command{Kind: telemetry.CommandClearTarget}
	f.frames(t, 1)
	if _, ok := f.app.Approach.Target(); ok {
		t.Error("clear command did not clear the target")
	}
}

func TestPublishEveryNFrames(t *testing.T) {
	pub := &fakePublisher{}
	f := newFixture(t, func(d *Deps) {
		d.Publisher = pub
		d.Settings.Telemetry.Every = 3
	})
	f.boot(t)
	f.frames(t, 7)

	if len(pub.snapshots) != 3 {
		t.Fatalf("snapshots: expected 3 (frames 0, 3, 6), got %d", len(pub.snapshots))
	}
	first := pub.snapshots[0]
	if first.Mode != "converging" || first.Target != 60 || !first.HasTarget || first.Factor != 0.99 {
		t.Errorf("unexpected first snapshot %+v", first)
	}
	if pub.snapshots[2].Frame != 6 {
		t.Errorf("Frame: expected 6, got %d", pub.snapshots[2].Frame)
	}
}

func TestRunStopsWhenSurfaceCloses(t *testing.T) {
	f := newFixture(t, nil)
	f.surface.closeAfter = 5
	f.boot(t)
	if err := f.app.Run(context.Background()); err != nil {
		t.Fatalf("Run: expected nil, got %v", err)
	}
	if f.renderer.renders != 5 {
		t.Errorf("renders: expected 5, got %d", f.renderer.renders)
	}
}

func TestRunPropagatesRenderError(t *testing.T) {
	f := newFixture(t, nil)
	f.boot(t)
	boom := errors.New("device lost")
	f.renderer.err = boom
	if err := f.app.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected the render error, got %v", err)
	}
}

func TestResize(t *testing.T) {
	f := newFixture(t, nil)
	f.app.Resize(800, 800)
	if f.app.Scene.Camera.AspectRatio != 1 {
		t.Errorf("AspectRatio: expected 1, got %v", f.app.Scene.Camera.AspectRatio)
	}
	if f.app.Controls.ViewportHeight != 800 {
		t.Errorf("ViewportHeight: expected 800, got %v", f.app.Controls.ViewportHeight)
	}
}

func TestBootExports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	f := newFixture(t, func(d *Deps) { d.Settings.Export.Dir = dir })
	f.boot(t)
	if _, err := os.Stat(filepath.Join(dir, "planet.glb")); err != nil {
		t.Errorf("expected planet.glb: %v", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Deps{Settings: testSettings()}); err == nil {
		t.Error("expected an error without GPU, renderer and surface")
	}
}

func TestCameraStartsOnAxis(t *testing.T) {
	f := newFixture(t, nil)
	if !f.app.Scene.Camera.Position.ApproxEqual(mgl32.Vec3{0, 0, 130}) {
		t.Errorf("camera: expected (0,0,130), got %v", f.app.Scene.Camera.Position)
	}
}

func TestCommandTargetClampedToOrbitRange(t *testing.T) {
	commands := make(chan telemetry.Command, 1)
	f := newFixture(t, func(d *Deps) { d.Commands = commands })
	f.boot(t)

	commands <- telemetry.Command{Kind: telemetry.CommandSetTarget, Target: 5}
	f.frames(t, 1)
	if target, _ := f.app.Approach.Target(); target != 11 {
		t.Fatalf("target: expected 11 (min distance), got %v", target)
	}

	for i := 0; i < 2000 && f.app.LastStep().Mode != approach.ModeSettled; i++ {
		if err := f.app.Frame(core.FrameInfo{Index: uint64(i + 1)}); err != nil {
			t.Fatal(err)
		}
	}
	if f.app.LastStep().Mode != approach.ModeSettled {
		t.Errorf("did not settle, last step %+v", f.app.LastStep())
	}
}
