package opengl

import (
	"fmt"
	"log"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"planetview/scene"
)

type surfaceProgram struct {
	id uint32

	model        int32
	viewProj     int32
	albedo       int32
	shininess    int32
	albedoMap    int32
	hasAlbedoMap int32
	bumpMap      int32
	hasBumpMap   int32
	bumpScale    int32
	ambient      int32
	viewPos      int32
	lightCount   int32
	lightType    [MaxLights]int32
	lightPos     [MaxLights]int32
	lightDir     [MaxLights]int32
	lightColor   [MaxLights]int32
}

func newSurfaceProgram(vert, frag string) (*surfaceProgram, error) {
	id, err := newProgram(vert, frag)
	if err != nil {
		return nil, err
	}
	p := &surfaceProgram{
		id:           id,
		model:        uniform(id, "model"),
		viewProj:     uniform(id, "viewProj"),
		albedo:       uniform(id, "albedo"),
		shininess:    uniform(id, "shininess"),
		albedoMap:    uniform(id, "albedoMap"),
		hasAlbedoMap: uniform(id, "hasAlbedoMap"),
		bumpMap:      uniform(id, "bumpMap"),
		hasBumpMap:   uniform(id, "hasBumpMap"),
		bumpScale:    uniform(id, "bumpScale"),
		ambient:      uniform(id, "ambient"),
		viewPos:      uniform(id, "viewPos"),
		lightCount:   uniform(id, "lightCount"),
	}
	for i := 0; i < MaxLights; i++ {
		p.lightType[i] = uniform(id, fmt.Sprintf("lightType[%d]", i))
		p.lightPos[i] = uniform(id, fmt.Sprintf("lightPos[%d]", i))
		p.lightDir[i] = uniform(id, fmt.Sprintf("lightDir[%d]", i))
		p.lightColor[i] = uniform(id, fmt.Sprintf("lightColor[%d]", i))
	}
	return p, nil
}

type atmosphereProgram struct {
	id uint32

	model       int32
	viewProj    int32
	viewPos     int32
	glowColor   int32
	coefficient int32
	power       int32
}

type proceduralProgram struct {
	id uint32

	mvp        int32
	faceNormal int32
	faceU      int32
	faceV      int32
	seedOffset int32
}

// Renderer draws a scene.Context with the planet's three material kinds and
// owns the GPU copies of every mesh it has drawn.
type Renderer struct {
	Logger *log.Logger

	surface    *surfaceProgram
	unlit      *surfaceProgram
	atmosphere *atmosphereProgram
	procedural *proceduralProgram
	sky        *Skybox

	meshes *meshCache
}

// NewRenderer initialises the GL function pointers and compiles every
// program. The GL context must be current on the calling thread.
func NewRenderer(logger *log.Logger) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	if logger != nil {
		logger.Printf("OpenGL %s, %s", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))
	}

	r := &Renderer{Logger: logger, meshes: newMeshCache()}

	var err error
	if r.surface, err = newSurfaceProgram(surfaceVertSrc, surfaceFragSrc); err != nil {
		return nil, fmt.Errorf("surface shader: %w", err)
	}
	if r.unlit, err = newSurfaceProgram(surfaceVertSrc, unlitFragSrc); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("unlit shader: %w", err)
	}

	atmo, err := newProgram(atmosphereVertSrc, atmosphereFragSrc)
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("atmosphere shader: %w", err)
	}
	r.atmosphere = &atmosphereProgram{
		id:          atmo,
		model:       uniform(atmo, "model"),
		viewProj:    uniform(atmo, "viewProj"),
		viewPos:     uniform(atmo, "viewPos"),
		glowColor:   uniform(atmo, "glowColor"),
		coefficient: uniform(atmo, "coefficient"),
		power:       uniform(atmo, "power"),
	}

	proc, err := newProgram(proceduralVertSrc, proceduralFragSrc)
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("procedural shader: %w", err)
	}
	r.procedural = &proceduralProgram{
		id:         proc,
		mvp:        uniform(proc, "mvp"),
		faceNormal: uniform(proc, "faceNormal"),
		faceU:      uniform(proc, "faceU"),
		faceV:      uniform(proc, "faceV"),
		seedOffset: uniform(proc, "seedOffset"),
	}

	if r.sky, err = NewSkybox(); err != nil {
		r.Destroy()
		return nil, err
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	return r, nil
}

// Upload copies tex to the GPU unless it is already resident.
func (r *Renderer) Upload(tex *scene.Texture) error {
	return UploadTexture(tex)
}

// Render clears the bound framebuffer and draws the background, the opaque
// surface items and finally the additive atmosphere items.
func (r *Renderer) Render(ctx *scene.Context) error {
	bg := ctx.Background
	gl.ClearColor(bg.R, bg.G, bg.B, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	cam := ctx.Camera
	viewProj := cam.ViewProjectionMatrix()

	var glow []scene.DrawItem
	for _, item := range ctx.DrawList() {
		mat := item.Mesh.Material
		if mat == nil {
			mat = scene.DefaultMaterial()
		}
		switch mat.Kind {
		case scene.MaterialAtmosphere:
			glow = append(glow, item)
		case scene.MaterialUnlit:
			r.drawSurface(r.unlit, ctx, item, mat, viewProj)
		case scene.MaterialSurface:
			r.drawSurface(r.surface, ctx, item, mat, viewProj)
		}
	}

	r.sky.Draw(SkyViewProjection(cam), ctx.Background, ctx.BackgroundTexture)

	if len(glow) > 0 {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
		gl.DepthMask(false)
		gl.UseProgram(r.atmosphere.id)
		gl.UniformMatrix4fv(r.atmosphere.viewProj, 1, false, &viewProj[0])
		gl.Uniform3fv(r.atmosphere.viewPos, 1, &cam.Position[0])
		for _, item := range glow {
			mat := item.Mesh.Material
			setSide(mat.Side)
			gl.UniformMatrix4fv(r.atmosphere.model, 1, false, &item.Model[0])
			gl.Uniform3f(r.atmosphere.glowColor, mat.GlowColor.R, mat.GlowColor.G, mat.GlowColor.B)
			gl.Uniform1f(r.atmosphere.coefficient, mat.Coefficient)
			gl.Uniform1f(r.atmosphere.power, mat.Power)
			r.meshes.draw(item.Mesh)
		}
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}

	setSide(scene.SideFront)
	return checkError("render")
}

func (r *Renderer) drawSurface(p *surfaceProgram, ctx *scene.Context, item scene.DrawItem, mat *scene.Material, viewProj mgl32.Mat4) {
	gl.UseProgram(p.id)
	setSide(mat.Side)

	gl.UniformMatrix4fv(p.model, 1, false, &item.Model[0])
	gl.UniformMatrix4fv(p.viewProj, 1, false, &viewProj[0])
	gl.Uniform3f(p.albedo, mat.Albedo.R, mat.Albedo.G, mat.Albedo.B)
	gl.Uniform1f(p.shininess, mat.Shininess)
	gl.Uniform3f(p.ambient, ctx.Ambient.R, ctx.Ambient.G, ctx.Ambient.B)
	gl.Uniform3fv(p.viewPos, 1, &ctx.Camera.Position[0])

	bindSampler(0, p.albedoMap, p.hasAlbedoMap, mat.AlbedoTexture)
	bindSampler(1, p.bumpMap, p.hasBumpMap, mat.BumpTexture)
	gl.Uniform1f(p.bumpScale, mat.BumpScale)

	n := min(len(ctx.Lights), MaxLights)
	gl.Uniform1i(p.lightCount, int32(n))
	for i := 0; i < n; i++ {
		l := ctx.Lights[i]
		c := l.Color.Scale(l.Intensity)
		gl.Uniform1i(p.lightType[i], int32(l.Type))
		gl.Uniform3f(p.lightPos[i], l.Position.X(), l.Position.Y(), l.Position.Z())
		gl.Uniform3f(p.lightDir[i], l.Direction.X(), l.Direction.Y(), l.Direction.Z())
		gl.Uniform3f(p.lightColor[i], c.R, c.G, c.B)
	}

	r.meshes.draw(item.Mesh)
}

func bindSampler(unit uint32, loc, hasLoc int32, tex *scene.Texture) {
	if tex == nil || tex.GLID == 0 {
		gl.Uniform1i(hasLoc, 0)
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
	gl.Uniform1i(loc, int32(unit))
	gl.Uniform1i(hasLoc, 1)
}

func setSide(side scene.Side) {
	switch side {
	case scene.SideBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	case scene.SideDouble:
		gl.Disable(gl.CULL_FACE)
	default:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
}

// Destroy frees every program, mesh and the skybox.
func (r *Renderer) Destroy() {
	r.meshes.destroy()
	if r.sky != nil {
		r.sky.Destroy()
	}
	for _, p := range []*surfaceProgram{r.surface, r.unlit} {
		if p != nil {
			gl.DeleteProgram(p.id)
		}
	}
	if r.atmosphere != nil {
		gl.DeleteProgram(r.atmosphere.id)
	}
	if r.procedural != nil {
		gl.DeleteProgram(r.procedural.id)
	}
}
