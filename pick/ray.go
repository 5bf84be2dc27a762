// Package pick turns pointer positions into world-space rays and tests them
// against scene meshes.
package pick

import (
	stdmath "math"

	"github.com/go-gl/mathgl/mgl32"

	"planetview/scene"
)

// Ray is a half-line in world space. Direction is unit length.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Hit is the closest intersection found by a query.
type Hit struct {
	Distance float32
	Point    mgl32.Vec3
	Normal   mgl32.Vec3
	Node     *scene.Node
	Triangle int
}

// ScreenToRay converts window coordinates (origin top-left) to a ray from the
// near plane through the far plane of camera.
func ScreenToRay(x, y, width, height float32, camera *scene.Camera) Ray {
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height // flip Y

	inv := camera.ViewProjectionMatrix().Inv()
	near := unproject(inv, mgl32.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(inv, mgl32.Vec4{ndcX, ndcY, 1, 1})

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

func unproject(inv mgl32.Mat4, clip mgl32.Vec4) mgl32.Vec3 {
	p := inv.Mul4x1(clip)
	return p.Vec3().Mul(1 / p.W())
}

// IntersectSphere returns the nearest non-negative t at which ray meets the
// sphere. A ray starting inside the sphere hits its far side.
func IntersectSphere(ray Ray, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := ray.Origin.Sub(center)
	b := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := float32(stdmath.Sqrt(float64(disc)))
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectAABB returns the entry distance of ray into box (0 when the origin
// is inside).
func IntersectAABB(ray Ray, box scene.AABB) (float32, bool) {
	tmin := float32(0)
	tmax := float32(stdmath.MaxFloat32)
	for k := 0; k < 3; k++ {
		if ray.Direction[k] == 0 {
			if ray.Origin[k] < box.Min[k] || ray.Origin[k] > box.Max[k] {
				return 0, false
			}
			continue
		}
		inv := 1 / ray.Direction[k]
		t1 := (box.Min[k] - ray.Origin[k]) * inv
		t2 := (box.Max[k] - ray.Origin[k]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max32(tmin, t1)
		tmax = min32(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

const triangleEpsilon = 1e-7

// IntersectTriangle is the Möller–Trumbore ray/triangle test. Both faces
// count as hits.
func IntersectTriangle(ray Ray, v0, v1, v2 mgl32.Vec3) (float32, bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -triangleEpsilon && a < triangleEpsilon {
		return 0, false // parallel
	}

	f := 1 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	return t, t > triangleEpsilon
}

// IntersectMesh tests every triangle of mesh, transformed by world, and
// returns the closest hit. Hit.Node is left nil.
func IntersectMesh(ray Ray, mesh *scene.Mesh, world mgl32.Mat4) (Hit, bool) {
	closest := Hit{Distance: float32(stdmath.MaxFloat32)}
	found := false

	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		v0 := transformPoint(world, mesh.Vertices[mesh.Indices[i]].Position)
		v1 := transformPoint(world, mesh.Vertices[mesh.Indices[i+1]].Position)
		v2 := transformPoint(world, mesh.Vertices[mesh.Indices[i+2]].Position)

		t, ok := IntersectTriangle(ray, v0, v1, v2)
		if !ok || t >= closest.Distance {
			continue
		}
		found = true
		closest.Distance = t
		closest.Point = ray.At(t)
		closest.Normal = v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
		closest.Triangle = i / 3
	}
	return closest, found
}

// RaycastNodes returns the closest hit among the mesh nodes, using each
// node's world-space bounds as a broad phase.
func RaycastNodes(ray Ray, nodes []*scene.Node) (Hit, bool) {
	closest := Hit{Distance: float32(stdmath.MaxFloat32)}
	found := false

	for _, node := range nodes {
		if node == nil || node.Mesh == nil || !node.Visible {
			continue
		}
		world := node.WorldMatrix()
		if node.Mesh.HasLocalAABB {
			t, ok := IntersectAABB(ray, WorldBounds(node.Mesh.LocalAABB, world))
			if !ok || t > closest.Distance {
				continue
			}
		}
		hit, ok := IntersectMesh(ray, node.Mesh, world)
		if ok && hit.Distance < closest.Distance {
			hit.Node = node
			closest = hit
			found = true
		}
	}
	return closest, found
}

// WorldBounds transforms the eight corners of local and returns their box.
func WorldBounds(local scene.AABB, world mgl32.Mat4) scene.AABB {
	var out scene.AABB
	for i := 0; i < 8; i++ {
		corner := local.Min
		if i&1 != 0 {
			corner[0] = local.Max[0]
		}
		if i&2 != 0 {
			corner[1] = local.Max[1]
		}
		if i&4 != 0 {
			corner[2] = local.Max[2]
		}
		p := transformPoint(world, corner)
		if i == 0 {
			out = scene.AABB{Min: p, Max: p}
			continue
		}
		for k := 0; k < 3; k++ {
			out.Min[k] = min32(out.Min[k], p[k])
			out.Max[k] = max32(out.Max[k], p[k])
		}
	}
	return out
}

func transformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
