package pick

// ClickDetector separates clicks from drags: a press followed by a release
// counts as a click only if the pointer travelled no farther than Slop pixels
// in between. The zero value treats any movement as a drag.
type ClickDetector struct {
	Slop float32

	pressed bool
	moved   bool
	startX  float32
	startY  float32
}

// Down records a button press at (x, y).
func (c *ClickDetector) Down(x, y float32) {
	c.pressed = true
	c.moved = false
	c.startX, c.startY = x, y
}

// Move marks the gesture as a drag once it leaves the slop radius.
func (c *ClickDetector) Move(x, y float32) {
	if !c.pressed || c.moved {
		return
	}
	dx, dy := x-c.startX, y-c.startY
	if dx*dx+dy*dy > c.Slop*c.Slop {
		c.moved = true
	}
}

// Up ends the gesture at (x, y) and reports whether it was a click.
func (c *ClickDetector) Up(x, y float32) bool {
	if !c.pressed {
		return false
	}
	c.Move(x, y)
	c.pressed = false
	return !c.moved
}
