package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"planetview/core"
)

// LightType selects how a Light contributes to surface shading.
type LightType int

const (
	LightDirectional LightType = iota
	LightPoint
)

// Light represents a light source
type Light struct {
	Type      LightType
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     core.Color
	Intensity float32
}

// DrawItem is one mesh to render with its world transform.
type DrawItem struct {
	Node  *Node
	Mesh  *Mesh
	Model mgl32.Mat4
}

// Context carries everything a frame needs: the scene graph, the planet
// anchor, the camera, lights and the shared material registry. It is passed
// explicitly to the components that need it.
type Context struct {
	Root       *Node
	PlanetRoot *Node
	Camera     *Camera

	Ambient    core.Color
	Lights     []*Light
	Background core.Color
	// BackgroundTexture is an optional equirectangular sky image.
	BackgroundTexture *Texture

	Materials map[string]*Material
}

// Defaults used by NewContext.
const (
	CameraFOV      = 50
	CameraNear     = 0.1
	CameraFar      = 1000
	CameraStartZ   = 130
	AmbientLevel   = 0.1
	SunIntensity   = 0.2
	SunDistance    = 100
	PlanetRootName = "PlanetRoot"
)

// NewContext builds the default viewer scene: dim white ambient light, a
// point "sun" on the -X axis, and a perspective camera on +Z looking at the
// planet root at the origin.
func NewContext(aspect float32) *Context {
	root := NewNode("Root")
	planetRoot := NewNode(PlanetRootName)
	root.AddChild(planetRoot)

	cam := NewCamera(CameraFOV, aspect, CameraNear, CameraFar)
	cam.SetPosition(mgl32.Vec3{0, 0, CameraStartZ})
	cam.LookAt(planetRoot.WorldPosition())

	return &Context{
		Root:       root,
		PlanetRoot: planetRoot,
		Camera:     cam,
		Ambient:    core.ColorWhite.Scale(AmbientLevel),
		Lights: []*Light{{
			Type:      LightPoint,
			Position:  mgl32.Vec3{-SunDistance, 0, 0},
			Color:     core.ColorWhite,
			Intensity: SunIntensity,
		}},
		Background: core.ColorBlack,
		Materials:  make(map[string]*Material),
	}
}

// Anchor is the world-space point the camera orbits and approaches.
func (c *Context) Anchor() mgl32.Vec3 {
	return c.PlanetRoot.WorldPosition()
}

// RegisterMaterial stores m under its name, replacing any previous entry.
func (c *Context) RegisterMaterial(m *Material) {
	c.Materials[m.Name] = m
}

// Material returns the registered material with the given name, or nil.
func (c *Context) Material(name string) *Material {
	return c.Materials[name]
}

// Textures returns every texture referenced by registered materials plus the
// background, without duplicates.
func (c *Context) Textures() []*Texture {
	seen := make(map[*Texture]bool)
	var out []*Texture
	add := func(t *Texture) {
		if t != nil && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	add(c.BackgroundTexture)
	for _, m := range c.Materials {
		add(m.AlbedoTexture)
		add(m.BumpTexture)
	}
	return out
}

// DrawList returns the visible meshes in traversal order. Hidden nodes hide
// their whole subtree.
func (c *Context) DrawList() []DrawItem {
	var items []DrawItem
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil {
			items = append(items, DrawItem{Node: n, Mesh: n.Mesh, Model: n.WorldMatrix()})
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(c.Root)
	return items
}
