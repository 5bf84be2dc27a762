// Package approach eases the orbit radius toward a target distance, one
// bounded multiplicative step per frame.
package approach

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultTolerance = 0.1
	// NearDistance is the target set when the user picks the planet.
	NearDistance = 40
	// InitialDistance is the target the viewer starts with.
	InitialDistance = 60

	MinFactor = 0.99
	MaxFactor = 1.01

	// Epsilon is the distance below which the camera is treated as sitting
	// on the anchor; no factor is computed there.
	Epsilon = 1e-6
)

// Mode is the controller state observed by a step.
type Mode int

const (
	ModeFree Mode = iota
	ModeConverging
	ModeSettled
	ModeDegenerate
)

func (m Mode) String() string {
	switch m {
	case ModeFree:
		return "free"
	case ModeConverging:
		return "converging"
	case ModeSettled:
		return "settled"
	case ModeDegenerate:
		return "degenerate"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Updater is the orbit-interaction system driven by the controller.
type Updater interface {
	// Update advances one frame with the system's own inertia.
	Update()
	// UpdateScaled advances one frame and multiplies the orbit radius by
	// factor for this frame only.
	UpdateScaled(factor float32)
}

// Result describes what one Step did.
type Result struct {
	Mode      Mode
	Distance  float32
	Target    float32
	HasTarget bool
	Factor    float32 // 1 when a plain update was issued
	Scaled    bool
}

// Controller holds the approach state. The zero value has no target and a
// zero tolerance; use NewController.
type Controller struct {
	Tolerance float32

	target    float32
	hasTarget bool
}

func NewController(tolerance float32) *Controller {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Controller{Tolerance: tolerance}
}

// SetTarget starts approaching distance d.
func (c *Controller) SetTarget(d float32) {
	c.target = d
	c.hasTarget = true
}

// ClearTarget returns the controller to free orbiting.
func (c *Controller) ClearTarget() {
	c.target = 0
	c.hasTarget = false
}

// Target returns the current target and whether one is set.
func (c *Controller) Target() (float32, bool) {
	return c.target, c.hasTarget
}

// Classify reports the mode for a camera at the given distance from the
// anchor, without side effects.
func (c *Controller) Classify(distance float32) Mode {
	if !c.hasTarget {
		return ModeFree
	}
	if distance < Epsilon {
		return ModeDegenerate
	}
	dx := distance - c.target
	if dx < 0 {
		dx = -dx
	}
	if dx < c.Tolerance {
		return ModeSettled
	}
	return ModeConverging
}

// Factor returns the radius multiplier that moves a camera at distance
// toward target: max(0.99, 1-dx/d) when too far, min(1.01, 1-dx/d) when too
// close. distance must be positive.
func Factor(distance, target float32) float32 {
	dx := distance - target
	f := 1 - dx/distance
	if dx > 0 {
		if f < MinFactor {
			return MinFactor
		}
		return f
	}
	if f > MaxFactor {
		return MaxFactor
	}
	return f
}

// Step runs the controller for one frame: it measures the camera-anchor
// distance and calls exactly one of orbit.Update or orbit.UpdateScaled. The
// target is only changed by SetTarget and ClearTarget.
func (c *Controller) Step(camera, anchor mgl32.Vec3, orbit Updater) Result {
	d := camera.Sub(anchor).Len()
	res := Result{
		Mode:      c.Classify(d),
		Distance:  d,
		Target:    c.target,
		HasTarget: c.hasTarget,
		Factor:    1,
	}

	if res.Mode != ModeConverging {
		orbit.Update()
		return res
	}

	res.Factor = Factor(d, c.target)
	res.Scaled = true
	orbit.UpdateScaled(res.Factor)
	return res
}
