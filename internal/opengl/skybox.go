package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"planetview/core"
	"planetview/scene"
)

// Skybox renders the background on an inverted unit cube: a procedural
// starfield over the clear colour, or an equirectangular image when one is
// set. The xyww trick puts every fragment at NDC depth 1.
type Skybox struct {
	vao  uint32
	vbo  uint32
	prog uint32

	vpLoc         int32
	backgroundLoc int32
	densityLoc    int32
	mapLoc        int32
	hasMapLoc     int32

	// StarDensity is the fraction of sky cells that hold a star.
	StarDensity float32
}

const skyVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;

uniform mat4 skyVP;

out vec3 fragDir;

void main() {
    fragDir = inPosition;
    vec4 pos = skyVP * vec4(inPosition, 1.0);
    gl_Position = pos.xyww;
}
` + "\x00"

const skyFragSrc = `
#version 410 core
in vec3 fragDir;
out vec4 outColor;

uniform vec3 background;
uniform float density;
uniform sampler2D skyMap;
uniform bool hasSkyMap;

const float PI = 3.14159265;

float hash(vec3 p) {
    p = fract(p * vec3(443.897, 441.423, 437.195));
    p += dot(p, p.yzx + 19.19);
    return fract((p.x + p.y) * p.z);
}

void main() {
    vec3 d = normalize(fragDir);
    if (hasSkyMap) {
        vec2 uv = vec2(atan(d.z, d.x) / (2.0 * PI) + 0.5, asin(clamp(d.y, -1.0, 1.0)) / PI + 0.5);
        outColor = vec4(texture(skyMap, uv).rgb, 1.0);
        return;
    }

    vec3 cell = floor(d * 300.0);
    float h = hash(cell);
    float star = 0.0;
    if (h < density) {
        vec3 centre = (cell + 0.5) / 300.0;
        float dist = length(d * 300.0 - centre * 300.0);
        star = smoothstep(0.5, 0.0, dist) * (0.4 + 0.6 * hash(cell + 7.0));
    }
    outColor = vec4(background + vec3(star), 1.0);
}
` + "\x00"

// 36 positions for a unit cube; culling is disabled during draw.
var skyboxVerts = []float32{
	// -Z face
	-1, -1, -1, 1, 1, -1, 1, -1, -1,
	1, 1, -1, -1, -1, -1, -1, 1, -1,
	// +Z face
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, -1, 1,
	// -X face
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, -1, -1, 1, -1, 1, 1,
	// +X face
	1, 1, 1, 1, -1, -1, 1, 1, -1,
	1, -1, -1, 1, 1, 1, 1, -1, 1,
	// -Y face
	-1, -1, -1, 1, -1, -1, 1, -1, 1,
	1, -1, 1, -1, -1, 1, -1, -1, -1,
	// +Y face
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, 1, -1, 1, -1, -1, 1, 1,
}

func NewSkybox() (*Skybox, error) {
	prog, err := newProgram(skyVertSrc, skyFragSrc)
	if err != nil {
		return nil, fmt.Errorf("skybox shader: %w", err)
	}

	sb := &Skybox{
		prog:          prog,
		vpLoc:         uniform(prog, "skyVP"),
		backgroundLoc: uniform(prog, "background"),
		densityLoc:    uniform(prog, "density"),
		mapLoc:        uniform(prog, "skyMap"),
		hasMapLoc:     uniform(prog, "hasSkyMap"),
		StarDensity:   0.002,
	}

	gl.GenVertexArrays(1, &sb.vao)
	gl.GenBuffers(1, &sb.vbo)
	gl.BindVertexArray(sb.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, sb.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(skyboxVerts)*4, gl.Ptr(skyboxVerts), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 12, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	return sb, nil
}

// SkyViewProjection strips the translation from view so the sky follows
// the camera.
func SkyViewProjection(cam *scene.Camera) mgl32.Mat4 {
	view := cam.ViewMatrix().Mat3().Mat4()
	return cam.ProjectionMatrix().Mul4(view)
}

// Draw renders the sky behind everything already in the depth buffer.
func (sb *Skybox) Draw(skyVP mgl32.Mat4, background core.Color, tex *scene.Texture) {
	gl.DepthFunc(gl.LEQUAL)
	gl.DepthMask(false)
	gl.Disable(gl.CULL_FACE)

	gl.UseProgram(sb.prog)
	gl.UniformMatrix4fv(sb.vpLoc, 1, false, &skyVP[0])
	gl.Uniform3f(sb.backgroundLoc, background.R, background.G, background.B)
	gl.Uniform1f(sb.densityLoc, sb.StarDensity)
	if tex != nil && tex.GLID != 0 {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, tex.GLID)
		gl.Uniform1i(sb.mapLoc, 0)
		gl.Uniform1i(sb.hasMapLoc, 1)
	} else {
		gl.Uniform1i(sb.hasMapLoc, 0)
	}

	gl.BindVertexArray(sb.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
	gl.BindVertexArray(0)

	gl.DepthMask(true)
	gl.DepthFunc(gl.LESS)
}

func (sb *Skybox) Destroy() {
	gl.DeleteVertexArrays(1, &sb.vao)
	gl.DeleteBuffers(1, &sb.vbo)
	gl.DeleteProgram(sb.prog)
}
