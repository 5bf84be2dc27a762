package opengl

import (
	"fmt"
	"math/rand"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"planetview/bake"
	"planetview/scene"
)

// BakeGPU runs the procedural face bake on a Renderer's GL context.
type BakeGPU struct {
	r *Renderer
	// Viewport reports the default framebuffer size restored after each face.
	Viewport func() (width, height int)

	targets int
}

var _ bake.GPU = (*BakeGPU)(nil)

func NewBakeGPU(r *Renderer, viewport func() (int, int)) *BakeGPU {
	return &BakeGPU{r: r, Viewport: viewport}
}

func (g *BakeGPU) MaxRenderTargetSize() int {
	var tex, rb int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &tex)
	gl.GetIntegerv(gl.MAX_RENDERBUFFER_SIZE, &rb)
	return int(min(tex, rb))
}

func (g *BakeGPU) CreateTarget(resolution int) (bake.Target, error) {
	name := fmt.Sprintf("BakeTarget%d", g.targets)
	g.targets++
	rt, err := NewRenderTarget(name, resolution)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (g *BakeGPU) RenderQuad(target bake.Target, material *scene.Material, mvp mgl32.Mat4, quad *scene.Mesh) error {
	rt, ok := target.(*RenderTarget)
	if !ok {
		return fmt.Errorf("render quad: foreign target %T", target)
	}
	if material.Kind != scene.MaterialProcedural {
		return fmt.Errorf("render quad: material %q is %s, want procedural", material.Name, material.Kind)
	}
	if material.Face < 0 || material.Face >= bake.FaceCount {
		return fmt.Errorf("render quad: face %d out of range", material.Face)
	}

	rt.Bind()
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	p := g.r.procedural
	n, u, v := scene.CubeFaceAxes(material.Face)
	seed := seedOffset(material.Seed)

	gl.UseProgram(p.id)
	gl.UniformMatrix4fv(p.mvp, 1, false, &mvp[0])
	gl.Uniform3fv(p.faceNormal, 1, &n[0])
	gl.Uniform3fv(p.faceU, 1, &u[0])
	gl.Uniform3fv(p.faceV, 1, &v[0])
	gl.Uniform3fv(p.seedOffset, 1, &seed[0])

	g.r.meshes.draw(quad)
	gl.Finish()

	return checkError("render quad")
}

// seedOffset shifts the noise domain; equal seeds give equal offsets.
func seedOffset(seed int64) mgl32.Vec3 {
	rng := rand.New(rand.NewSource(seed))
	return mgl32.Vec3{
		rng.Float32() * 100,
		rng.Float32() * 100,
		rng.Float32() * 100,
	}
}

func (g *BakeGPU) ReadPixels(target bake.Target, dst []byte) error {
	rt, ok := target.(*RenderTarget)
	if !ok {
		return fmt.Errorf("read pixels: foreign target %T", target)
	}
	return rt.ReadPixels(dst)
}

func (g *BakeGPU) RestoreDefault() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if g.Viewport != nil {
		w, h := g.Viewport()
		gl.Viewport(0, 0, int32(w), int32(h))
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
}

func (g *BakeGPU) DeleteTexture(tex *scene.Texture) {
	DeleteTexture(tex)
}
