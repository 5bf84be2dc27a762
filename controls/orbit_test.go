package controls

import (
	stdmath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"planetview/scene"
)

func newTestControls(z float32, autoRotate bool) *OrbitControls {
	cam := scene.NewCamera(50, 16.0/9.0, 0.1, 1000)
	cam.SetPosition(mgl32.Vec3{0, 0, z})
	cfg := DefaultConfig()
	cfg.AutoRotate = autoRotate
	return NewOrbitControls(cam, mgl32.Vec3{}, cfg)
}

func azimuth(c *OrbitControls) float64 {
	p := c.Camera.Position.Sub(c.Target)
	return stdmath.Atan2(float64(p.X()), float64(p.Z()))
}

func TestPointerDownDispatchesStart(t *testing.T) {
	c := newTestControls(130, false)
	var kinds []EventKind
	c.On(EventStart, func(e Event) { kinds = append(kinds, e.Kind) })
	c.On(EventEnd, func(e Event) { kinds = append(kinds, e.Kind) })

	c.PointerDown(10, 10)
	if !c.Rotating() {
		t.Error("expected a drag in progress")
	}
	c.PointerUp()
	c.PointerUp()

	if len(kinds) != 2 || kinds[0] != EventStart || kinds[1] != EventEnd {
		t.Errorf("events: expected [start end], got %v", kinds)
	}
}

func TestWheelDispatchesStartAndDollies(t *testing.T) {
	c := newTestControls(130, false)
	starts := 0
	c.On(EventStart, func(Event) { starts++ })

	c.Wheel(1)
	if starts != 1 {
		t.Errorf("starts: expected 1, got %d", starts)
	}
	c.Update()
	expected := 130 * float32(stdmath.Pow(0.95, 0.5))
	if d := c.Distance(); !mgl32.FloatEqualThreshold(d, expected, 1e-4) {
		t.Errorf("distance after wheel: expected %v, got %v", expected, d)
	}

	// The dolly applies to one frame only.
	c.Update()
	if d := c.Distance(); !mgl32.FloatEqualThreshold(d, expected, 1e-4) {
		t.Errorf("distance drifted on the next frame: %v", d)
	}

	c.Wheel(-1)
	c.Update()
	if d := c.Distance(); !mgl32.FloatEqualThreshold(d, 130, 1e-4) {
		t.Errorf("distance after wheel back: expected 130, got %v", d)
	}
}

func TestUpdateScaledAppliesFactor(t *testing.T) {
	c := newTestControls(130, false)
	if !c.UpdateScaled(0.99) {
		t.Error("expected the camera to move")
	}
	if d := c.Distance(); !mgl32.FloatEqualThreshold(d, 128.7, 1e-4) {
		t.Errorf("distance: expected 128.7, got %v", d)
	}
	if c.Camera.Target != c.Target {
		t.Errorf("camera target: expected %v, got %v", c.Target, c.Camera.Target)
	}
}

func TestUpdateWithoutInputDoesNotMove(t *testing.T) {
	c := newTestControls(130, false)
	changes := 0
	c.On(EventChange, func(Event) { changes++ })
	if c.Update() {
		t.Error("expected no movement")
	}
	if changes != 0 {
		t.Errorf("changes: expected 0, got %d", changes)
	}
}

func TestDampingDecaysRotation(t *testing.T) {
	c := newTestControls(130, false)
	c.PointerDown(0, 0)
	c.PointerMove(72, 0)
	c.PointerUp()

	prev := azimuth(c)
	lastStep := stdmath.Inf(1)
	for i := 0; i < 20; i++ {
		c.Update()
		a := azimuth(c)
		step := stdmath.Abs(a - prev)
		if step <= 0 {
			t.Fatalf("frame %d: camera stopped early", i)
		}
		if step >= lastStep {
			t.Fatalf("frame %d: step %v did not decay from %v", i, step, lastStep)
		}
		lastStep, prev = step, a
	}
	if d := c.Distance(); !mgl32.FloatEqualThreshold(d, 130, 1e-3) {
		t.Errorf("rotation changed the radius to %v", d)
	}
}

func TestDistanceClamp(t *testing.T) {
	c := newTestControls(12, false)
	for i := 0; i < 10; i++ {
		c.Wheel(1)
	}
	c.Update()
	if d := c.Distance(); !mgl32.FloatEqualThreshold(d, 11, 1e-4) {
		t.Errorf("min clamp: expected 11, got %v", d)
	}

	c = newTestControls(490, false)
	for i := 0; i < 10; i++ {
		c.Wheel(-1)
	}
	c.Update()
	if d := c.Distance(); !mgl32.FloatEqualThreshold(d, 500, 1e-4) {
		t.Errorf("max clamp: expected 500, got %v", d)
	}
}

func TestAutoRotateKeepsRadius(t *testing.T) {
	c := newTestControls(130, true)
	start := azimuth(c)
	for i := 0; i < 60; i++ {
		c.Update()
	}
	if azimuth(c) == start {
		t.Error("auto-rotate did not change the azimuth")
	}
	if d := c.Distance(); !mgl32.FloatEqualThreshold(d, 130, 1e-3) {
		t.Errorf("radius: expected 130, got %v", d)
	}
}

func TestAutoRotatePausesDuringDrag(t *testing.T) {
	c := newTestControls(130, true)
	c.PointerDown(0, 0)
	start := c.Camera.Position
	c.Update()
	if c.Camera.Position.Sub(start).Len() > 1e-4 {
		t.Errorf("camera moved during a still drag: %v -> %v", start, c.Camera.Position)
	}
}

func TestPanDisabledByDefault(t *testing.T) {
	c := newTestControls(130, false)
	c.Pan(50, 50)
	if c.Target != (mgl32.Vec3{}) {
		t.Errorf("target moved to %v", c.Target)
	}
}
