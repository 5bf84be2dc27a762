// Package planet assembles the renderable planet from baked faces: six
// displaced cube-sphere patches and an atmospheric glow shell.
package planet

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"planetview/bake"
	"planetview/core"
	"planetview/pick"
	"planetview/scene"
)

var (
	ErrFaceCount = errors.New("planet: need exactly six baked faces")
	ErrFaceSize  = errors.New("planet: baked face has the wrong buffer size")
	ErrFaceOrder = errors.New("planet: baked faces out of order")
)

// Options controls the planet geometry and materials.
type Options struct {
	Radius    float32
	Segments  int     // grid cells per face side
	Relief    float32 // radial displacement at full height, centred on Radius
	BumpScale float32

	GlowScale       float32 // shell radius as a multiple of Radius
	GlowSegments    int
	GlowCoefficient float32
	GlowPower       float32
	GlowColor       core.Color
}

func DefaultOptions() Options {
	return Options{
		Radius:          10,
		Segments:        64,
		Relief:          0.15,
		BumpScale:       0.05,
		GlowScale:       1.2,
		GlowSegments:    32,
		GlowCoefficient: 0.4,
		GlowPower:       8,
		GlowColor:       core.ColorCyan,
	}
}

const (
	AtmosphereName = "Atmosphere"
	faceNodeFormat = "PlanetFace%d"
)

// Planet is the built scene subtree.
type Planet struct {
	Options    Options
	Root       *scene.Node
	Faces      []*scene.Node
	Atmosphere *scene.Node
	Materials  []*scene.Material
}

// Build validates faces, creates one surface node per face plus the glow
// shell, and attaches them to ctx.PlanetRoot. Surface materials are
// registered in ctx. faces must not be modified afterwards; the bump
// textures share their buffers.
func Build(ctx *scene.Context, faces []bake.BakedFace, opts Options) (*Planet, error) {
	if err := validate(faces); err != nil {
		return nil, err
	}

	p := &Planet{Options: opts, Root: ctx.PlanetRoot}
	for _, f := range faces {
		node, mat, err := buildFace(f, opts)
		if err != nil {
			return nil, err
		}
		ctx.RegisterMaterial(mat)
		p.Root.AddChild(node)
		p.Faces = append(p.Faces, node)
		p.Materials = append(p.Materials, mat)
	}

	glow := scene.CreateSphere(opts.Radius*opts.GlowScale, opts.GlowSegments, opts.GlowSegments)
	glow.Name = AtmosphereName
	glow.Material = scene.NewAtmosphereMaterial(opts.GlowCoefficient, opts.GlowPower, opts.GlowColor)
	ctx.RegisterMaterial(glow.Material)
	p.Atmosphere = scene.NewMeshNode(AtmosphereName, glow)
	p.Root.AddChild(p.Atmosphere)
	p.Materials = append(p.Materials, glow.Material)

	return p, nil
}

func validate(faces []bake.BakedFace) error {
	if len(faces) != bake.FaceCount {
		return fmt.Errorf("%w: got %d", ErrFaceCount, len(faces))
	}
	for i, f := range faces {
		if f.Face != bake.Face(i) {
			return fmt.Errorf("%w: index %d holds face %s", ErrFaceOrder, i, f.Face)
		}
		if f.Resolution <= 0 || len(f.Height) != f.Resolution*f.Resolution*4 {
			return fmt.Errorf("%w: face %s has %d bytes at resolution %d",
				ErrFaceSize, f.Face, len(f.Height), f.Resolution)
		}
	}
	return nil
}

func buildFace(f bake.BakedFace, opts Options) (*scene.Node, *scene.Material, error) {
	var height scene.HeightFunc
	if opts.Relief != 0 {
		height = func(_ mgl32.Vec3, s, t float32) float32 {
			return opts.Relief * (SampleHeight(f, s, t) - 0.5)
		}
	}
	mesh, err := scene.CreateCubeSphereFace(int(f.Face), opts.Radius, opts.Segments, height)
	if err != nil {
		return nil, nil, err
	}

	bump, err := scene.NewTextureFromRGBA(fmt.Sprintf("PlanetBump%d", f.Face), f.Resolution, f.Resolution, f.Height)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFaceSize, err)
	}
	mat := scene.NewSurfaceMaterial(fmt.Sprintf("PlanetSurface%d", f.Face), f.ColorTexture, bump, opts.BumpScale)
	mesh.Material = mat

	return scene.NewMeshNode(fmt.Sprintf(faceNodeFormat, f.Face), mesh), mat, nil
}

// SampleHeight returns the red channel of f at face coordinates (s, t) in
// [0,1], bilinearly filtered between texel centres and scaled to [0,1].
// t = 0 is the bottom row.
func SampleHeight(f bake.BakedFace, s, t float32) float32 {
	res := f.Resolution
	if res == 1 {
		return float32(f.HeightAt(0, 0)) / 255
	}
	x := mgl32.Clamp(s, 0, 1) * float32(res-1)
	y := mgl32.Clamp(t, 0, 1) * float32(res-1)
	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, res-1), min(y0+1, res-1)
	fx, fy := x-float32(x0), y-float32(y0)

	h00 := float32(f.HeightAt(x0, y0))
	h10 := float32(f.HeightAt(x1, y0))
	h01 := float32(f.HeightAt(x0, y1))
	h11 := float32(f.HeightAt(x1, y1))

	bottom := h00 + (h10-h00)*fx
	top := h01 + (h11-h01)*fx
	return (bottom + (top-bottom)*fy) / 255
}

// BoundingRadius is the largest distance from the planet centre a surface
// vertex can have.
func (p *Planet) BoundingRadius() float32 {
	r := p.Options.Relief
	if r < 0 {
		r = -r
	}
	return p.Options.Radius + r/2
}

// Raycast tests ray against the surface patches only; the glow shell is
// never hit.
func (p *Planet) Raycast(ray pick.Ray) (pick.Hit, bool) {
	if !p.Root.Visible {
		return pick.Hit{}, false
	}
	if _, ok := pick.IntersectSphere(ray, p.Root.WorldPosition(), p.BoundingRadius()); !ok {
		return pick.Hit{}, false
	}
	return pick.RaycastNodes(ray, p.Faces)
}

// SetVisible shows or hides the whole planet, glow included. A hidden
// planet cannot be picked.
func (p *Planet) SetVisible(v bool) {
	p.Root.Visible = v
}
