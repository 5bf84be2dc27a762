// Package baketest provides an in-memory bake.GPU for tests.
package baketest

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"planetview/bake"
	"planetview/scene"
)

// ErrContextLost is what the fake returns when FailReadAt or FailCreateAt fire.
var ErrContextLost = errors.New("baketest: context lost")

// GPU rasterizes procedural materials on the CPU with a deterministic
// pattern derived from the face index and seed.
type GPU struct {
	MaxSize int

	// FailCreateAt / FailReadAt make the Nth call (0-based) fail; -1 disables.
	FailCreateAt int
	FailReadAt   int

	Created   int
	Renders   int
	Reads     int
	Restores  int
	Released  int
	Discarded int
	Deleted   int

	// Bound is true while a target is the active surface.
	Bound bool

	nextID uint32
}

func New() *GPU {
	return &GPU{MaxSize: 4096, FailCreateAt: -1, FailReadAt: -1}
}

type target struct {
	gpu      *GPU
	tex      *scene.Texture
	material *scene.Material
}

func (t *target) Texture() *scene.Texture { return t.tex }
func (t *target) Release()                { t.gpu.Released++ }
func (t *target) Discard() {
	t.gpu.Discarded++
	t.tex.GLID = 0
}

func (g *GPU) MaxRenderTargetSize() int { return g.MaxSize }

func (g *GPU) CreateTarget(resolution int) (bake.Target, error) {
	call := g.Created
	g.Created++
	if call == g.FailCreateAt {
		return nil, ErrContextLost
	}
	g.nextID++
	g.Bound = true
	return &target{
		gpu: g,
		tex: &scene.Texture{
			Name:   fmt.Sprintf("bake%d", g.nextID),
			Width:  resolution,
			Height: resolution,
			GLID:   g.nextID,
		},
	}, nil
}

func (g *GPU) RenderQuad(t bake.Target, material *scene.Material, mvp mgl32.Mat4, quad *scene.Mesh) error {
	g.Renders++
	t.(*target).material = material
	return nil
}

func (g *GPU) ReadPixels(t bake.Target, dst []byte) error {
	call := g.Reads
	g.Reads++
	if call == g.FailReadAt {
		return ErrContextLost
	}
	tt := t.(*target)
	res := tt.tex.Width
	if len(dst) != res*res*4 {
		return fmt.Errorf("baketest: buffer is %d bytes, want %d", len(dst), res*res*4)
	}
	var face int
	var seed int64
	if tt.material != nil {
		face, seed = tt.material.Face, tt.material.Seed
	}
	for y := 0; y < res; y++ {
		for x := 0; x < res; x++ {
			i := (y*res + x) * 4
			dst[i] = Pattern(face, seed, x, y)
			dst[i+1] = byte(face * 40)
			dst[i+2] = byte(x ^ y)
			dst[i+3] = 0 // alpha is left for the baker to fill
		}
	}
	return nil
}

func (g *GPU) RestoreDefault() {
	g.Restores++
	g.Bound = false
}

func (g *GPU) DeleteTexture(tex *scene.Texture) {
	g.Deleted++
	tex.GLID = 0
}

// Pattern is the red channel the fake writes at (x, y).
func Pattern(face int, seed int64, x, y int) byte {
	return byte((x*7 + y*13 + face*31 + int(seed)) & 0xFF)
}

// Faces bakes with a fresh fake GPU and panics on error; for tests that only
// need valid input faces.
func Faces(resolution int) []bake.BakedFace {
	faces, err := bake.NewBaker(New(), bake.ProceduralMaterials{}).Bake(resolution)
	if err != nil {
		panic(err)
	}
	return faces
}
