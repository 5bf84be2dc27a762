// Package controls implements drag-to-orbit camera controls with damping,
// auto-rotation and wheel dolly around a fixed target.
package controls

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"planetview/scene"
)

// EventKind identifies an interaction event.
type EventKind int

const (
	// EventStart fires when the user grabs the view (pointer down or wheel).
	EventStart EventKind = iota
	// EventChange fires from Update when the camera moved.
	EventChange
	// EventEnd fires when the interaction that started with EventStart ends.
	EventEnd
)

type Event struct {
	Kind     EventKind
	Controls *OrbitControls
}

type Listener func(Event)

// Config holds the tunable behaviour of OrbitControls.
type Config struct {
	EnableDamping   bool
	DampingFactor   float32
	AutoRotate      bool
	AutoRotateSpeed float32 // revolutions per minute at 60 fps
	RotateSpeed     float32
	ZoomSpeed       float32
	EnableRotate    bool
	EnableZoom      bool
	EnablePan       bool
	MinDistance     float32
	MaxDistance     float32
	MinPolarAngle   float32
	MaxPolarAngle   float32
}

// DefaultConfig returns the planet viewer settings.
func DefaultConfig() Config {
	return Config{
		EnableDamping:   true,
		DampingFactor:   0.1,
		AutoRotate:      true,
		AutoRotateSpeed: 3.01,
		RotateSpeed:     1,
		ZoomSpeed:       0.5,
		EnableRotate:    true,
		EnableZoom:      true,
		EnablePan:       false,
		MinDistance:     11,
		MaxDistance:     500,
		MinPolarAngle:   0,
		MaxPolarAngle:   stdmath.Pi,
	}
}

// polarEpsilon keeps the camera off the poles, where the view is undefined.
const polarEpsilon = 1e-6

// spherical coordinates around the target, Y up: Theta is the azimuth from
// +Z toward +X, Phi the polar angle from +Y.
type spherical struct {
	Radius float32
	Theta  float32
	Phi    float32
}

func sphericalFromOffset(v mgl32.Vec3) spherical {
	r := v.Len()
	if r == 0 {
		return spherical{}
	}
	return spherical{
		Radius: r,
		Theta:  float32(stdmath.Atan2(float64(v.X()), float64(v.Z()))),
		Phi:    float32(stdmath.Acos(float64(mgl32.Clamp(v.Y()/r, -1, 1)))),
	}
}

func (s spherical) offset() mgl32.Vec3 {
	sinPhi := float32(stdmath.Sin(float64(s.Phi)))
	return mgl32.Vec3{
		s.Radius * sinPhi * float32(stdmath.Sin(float64(s.Theta))),
		s.Radius * float32(stdmath.Cos(float64(s.Phi))),
		s.Radius * sinPhi * float32(stdmath.Cos(float64(s.Theta))),
	}
}

type state int

const (
	stateNone state = iota
	stateRotate
)

// OrbitControls moves a camera on a sphere around Target. Pointer and wheel
// handlers only accumulate deltas; the camera moves in Update.
type OrbitControls struct {
	Config
	Camera *scene.Camera
	Target mgl32.Vec3

	// ViewportHeight converts pointer pixels to rotation angles.
	ViewportHeight float32

	sphericalDelta spherical
	scale          float32
	state          state
	rotateStart    mgl32.Vec2

	lastPosition mgl32.Vec3
	listeners    map[EventKind][]Listener
}

func NewOrbitControls(camera *scene.Camera, target mgl32.Vec3, cfg Config) *OrbitControls {
	c := &OrbitControls{
		Config:         cfg,
		Camera:         camera,
		Target:         target,
		ViewportHeight: 720,
		scale:          1,
		listeners:      make(map[EventKind][]Listener),
	}
	camera.LookAt(target)
	c.lastPosition = camera.Position
	return c
}

// On registers fn for events of the given kind.
func (c *OrbitControls) On(kind EventKind, fn Listener) {
	c.listeners[kind] = append(c.listeners[kind], fn)
}

func (c *OrbitControls) dispatch(kind EventKind) {
	for _, fn := range c.listeners[kind] {
		fn(Event{Kind: kind, Controls: c})
	}
}

// Distance is the current camera-target distance.
func (c *OrbitControls) Distance() float32 {
	return c.Camera.Position.Sub(c.Target).Len()
}

// Rotating reports whether a pointer drag is in progress.
func (c *OrbitControls) Rotating() bool {
	return c.state == stateRotate
}

// Update applies accumulated input with the configured damping.
func (c *OrbitControls) Update() bool {
	return c.UpdateScaled(1)
}

// UpdateScaled is Update with an extra multiplier on the orbit radius for this
// frame only. It reports whether the camera moved.
func (c *OrbitControls) UpdateScaled(factor float32) bool {
	s := sphericalFromOffset(c.Camera.Position.Sub(c.Target))

	if c.AutoRotate && c.state == stateNone {
		c.rotateLeft(c.autoRotationAngle())
	}

	if c.EnableDamping {
		s.Theta += c.sphericalDelta.Theta * c.DampingFactor
		s.Phi += c.sphericalDelta.Phi * c.DampingFactor
	} else {
		s.Theta += c.sphericalDelta.Theta
		s.Phi += c.sphericalDelta.Phi
	}

	s.Phi = mgl32.Clamp(s.Phi, c.MinPolarAngle, c.MaxPolarAngle)
	s.Phi = mgl32.Clamp(s.Phi, polarEpsilon, stdmath.Pi-polarEpsilon)

	s.Radius *= c.scale * factor
	s.Radius = mgl32.Clamp(s.Radius, c.MinDistance, c.MaxDistance)

	position := c.Target.Add(s.offset())
	c.Camera.SetPosition(position)
	c.Camera.LookAt(c.Target)

	if c.EnableDamping {
		c.sphericalDelta.Theta *= 1 - c.DampingFactor
		c.sphericalDelta.Phi *= 1 - c.DampingFactor
	} else {
		c.sphericalDelta = spherical{}
	}
	c.scale = 1

	// Re-deriving spherical coordinates each frame jitters in the last bits.
	moved := position.Sub(c.lastPosition).Len() > 1e-6*s.Radius
	c.lastPosition = position
	if moved {
		c.dispatch(EventChange)
	}
	return moved
}

func (c *OrbitControls) autoRotationAngle() float32 {
	return 2 * stdmath.Pi / 60 / 60 * c.AutoRotateSpeed
}

func (c *OrbitControls) rotateLeft(angle float32) {
	c.sphericalDelta.Theta -= angle
}

func (c *OrbitControls) rotateUp(angle float32) {
	c.sphericalDelta.Phi -= angle
}

// PointerDown starts a rotation drag at window coordinates (x, y).
func (c *OrbitControls) PointerDown(x, y float32) {
	if !c.EnableRotate {
		return
	}
	c.state = stateRotate
	c.rotateStart = mgl32.Vec2{x, y}
	c.dispatch(EventStart)
}

// PointerMove accumulates rotation while a drag is active.
func (c *OrbitControls) PointerMove(x, y float32) {
	if c.state != stateRotate {
		return
	}
	end := mgl32.Vec2{x, y}
	delta := end.Sub(c.rotateStart).Mul(c.RotateSpeed)
	h := c.ViewportHeight
	if h <= 0 {
		h = 1
	}
	c.rotateLeft(2 * stdmath.Pi * delta.X() / h)
	c.rotateUp(2 * stdmath.Pi * delta.Y() / h)
	c.rotateStart = end
}

// PointerUp ends a drag.
func (c *OrbitControls) PointerUp() {
	if c.state == stateNone {
		return
	}
	c.state = stateNone
	c.dispatch(EventEnd)
}

// Wheel dollies the camera; positive delta (wheel away from the user) moves
// it closer.
func (c *OrbitControls) Wheel(delta float32) {
	if !c.EnableZoom || delta == 0 {
		return
	}
	c.dispatch(EventStart)
	zoom := float32(stdmath.Pow(0.95, float64(c.ZoomSpeed)))
	if delta > 0 {
		c.scale *= zoom
	} else {
		c.scale /= zoom
	}
	c.dispatch(EventEnd)
}

// Pan is accepted for input symmetry and ignored unless EnablePan is set;
// the viewer keeps the planet centred.
func (c *OrbitControls) Pan(dx, dy float32) {
	if !c.EnablePan {
		return
	}
	right := c.Camera.Forward().Cross(c.Camera.Up).Normalize()
	up := right.Cross(c.Camera.Forward())
	k := c.Distance() / c.ViewportHeight
	shift := right.Mul(-dx * k).Add(up.Mul(dy * k))
	c.Target = c.Target.Add(shift)
	c.Camera.SetPosition(c.Camera.Position.Add(shift))
}
