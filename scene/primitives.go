package scene

import (
	"fmt"
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"planetview/core"
)

// CreateSphere generates a UV sphere mesh
func CreateSphere(radius float32, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	vertices := make([]core.Vertex, 0, (rings+1)*(segments+1))
	indices := make([]uint32, 0, rings*segments*6)

	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * stdmath.Pi / float64(rings)
		sinPhi := float32(stdmath.Sin(phi))
		cosPhi := float32(stdmath.Cos(phi))

		for seg := 0; seg <= segments; seg++ {
			theta := float64(seg) * 2.0 * stdmath.Pi / float64(segments)
			sinTheta := float32(stdmath.Sin(theta))
			cosTheta := float32(stdmath.Cos(theta))

			normal := mgl32.Vec3{sinPhi * cosTheta, cosPhi, sinPhi * sinTheta}
			vertices = append(vertices, core.Vertex{
				Position: normal.Mul(radius),
				Normal:   normal,
				UV:       mgl32.Vec2{float32(seg) / float32(segments), 1 - float32(ring)/float32(rings)},
				Color:    core.ColorWhite,
			})
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring*(segments+1) + seg)
			next := current + uint32(segments+1)

			indices = append(indices, current, current+1, next)
			indices = append(indices, current+1, next+1, next)
		}
	}

	return CreateMeshFromData("Sphere", vertices, indices)
}

// CreateQuad returns a width×height rectangle in the XY plane centred on the
// origin, facing +Z, with UVs spanning [0,1].
func CreateQuad(width, height float32) *Mesh {
	w, h := width/2, height/2
	n := mgl32.Vec3{0, 0, 1}
	vertices := []core.Vertex{
		{Position: mgl32.Vec3{-w, -h, 0}, Normal: n, UV: mgl32.Vec2{0, 0}, Color: core.ColorWhite},
		{Position: mgl32.Vec3{w, -h, 0}, Normal: n, UV: mgl32.Vec2{1, 0}, Color: core.ColorWhite},
		{Position: mgl32.Vec3{w, h, 0}, Normal: n, UV: mgl32.Vec2{1, 1}, Color: core.ColorWhite},
		{Position: mgl32.Vec3{-w, h, 0}, Normal: n, UV: mgl32.Vec2{0, 1}, Color: core.ColorWhite},
	}
	indices := []uint32{0, 1, 2, 2, 3, 0}
	return CreateMeshFromData("Quad", vertices, indices)
}

// cubeFaceAxes lists, per cube face, the outward normal and the directions
// of increasing u and v. u × v == normal for every face.
var cubeFaceAxes = [6][3]mgl32.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},  // +X
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},  // -X
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},  // +Y
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},  // -Y
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},   // +Z
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}}, // -Z
}

// CubeFaceAxes returns the outward normal and the u/v tangent directions of
// cube face 0..5 (+X, -X, +Y, -Y, +Z, -Z).
func CubeFaceAxes(face int) (normal, u, v mgl32.Vec3) {
	a := cubeFaceAxes[face]
	return a[0], a[1], a[2]
}

// CubeFaceDirection maps face-local texture coordinates (s, t in [0,1]) to
// the unit direction on the sphere.
func CubeFaceDirection(face int, s, t float32) mgl32.Vec3 {
	n, u, v := CubeFaceAxes(face)
	p := n.Add(u.Mul(2*s - 1)).Add(v.Mul(2*t - 1))
	return p.Normalize()
}

// HeightFunc returns a radial offset for a point on a cube-sphere face.
type HeightFunc func(dir mgl32.Vec3, s, t float32) float32

// CreateCubeSphereFace builds one of the six patches of a cube-sphere:
// a (segments+1)² vertex grid projected onto a sphere of the given radius
// and pushed outward by height(dir, s, t). Normals are recomputed from the
// displaced surface and tangents are generated for bump mapping.
func CreateCubeSphereFace(face int, radius float32, segments int, height HeightFunc) (*Mesh, error) {
	if face < 0 || face >= len(cubeFaceAxes) {
		return nil, fmt.Errorf("cube face %d out of range", face)
	}
	if segments < 1 {
		segments = 1
	}

	stride := segments + 1
	vertices := make([]core.Vertex, 0, stride*stride)
	indices := make([]uint32, 0, segments*segments*6)

	for j := 0; j <= segments; j++ {
		t := float32(j) / float32(segments)
		for i := 0; i <= segments; i++ {
			s := float32(i) / float32(segments)
			dir := CubeFaceDirection(face, s, t)
			r := radius
			if height != nil {
				r += height(dir, s, t)
			}
			vertices = append(vertices, core.Vertex{
				Position: dir.Mul(r),
				Normal:   dir,
				UV:       mgl32.Vec2{s, t},
				Color:    core.ColorWhite,
			})
		}
	}

	for j := 0; j < segments; j++ {
		for i := 0; i < segments; i++ {
			a := uint32(j*stride + i)
			b := a + 1
			c := a + uint32(stride) + 1
			d := a + uint32(stride)
			indices = append(indices, a, b, c, a, c, d)
		}
	}

	m := CreateMeshFromData(fmt.Sprintf("PlanetFace%d", face), vertices, indices)
	if height != nil {
		ComputeNormals(m)
	}
	ComputeTangents(m)
	return m, nil
}
