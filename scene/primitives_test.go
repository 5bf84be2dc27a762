package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCubeFaceAxesAreRightHanded(t *testing.T) {
	for face := 0; face < 6; face++ {
		n, u, v := CubeFaceAxes(face)
		if c := u.Cross(v); !c.ApproxEqual(n) {
			t.Errorf("face %d: u×v expected %v, got %v", face, n, c)
		}
	}
}

func TestCubeSphereFaceOnSphere(t *testing.T) {
	const radius = 10
	for face := 0; face < 6; face++ {
		m, err := CreateCubeSphereFace(face, radius, 8, nil)
		if err != nil {
			t.Fatalf("face %d: %v", face, err)
		}
		if len(m.Vertices) != 81 {
			t.Errorf("face %d: expected 81 vertices, got %d", face, len(m.Vertices))
		}
		if m.TriangleCount() != 128 {
			t.Errorf("face %d: expected 128 triangles, got %d", face, m.TriangleCount())
		}
		for i, v := range m.Vertices {
			if !mgl32.FloatEqualThreshold(v.Position.Len(), radius, 1e-4) {
				t.Fatalf("face %d vertex %d: expected radius %v, got %v", face, i, radius, v.Position.Len())
			}
		}
	}
}

func TestCubeSphereFaceOutwardWinding(t *testing.T) {
	for face := 0; face < 6; face++ {
		m, _ := CreateCubeSphereFace(face, 1, 4, nil)
		for i := 0; i+2 < len(m.Indices); i += 3 {
			p0 := m.Vertices[m.Indices[i]].Position
			p1 := m.Vertices[m.Indices[i+1]].Position
			p2 := m.Vertices[m.Indices[i+2]].Position
			n := p1.Sub(p0).Cross(p2.Sub(p0))
			if n.Dot(p0) <= 0 {
				t.Fatalf("face %d triangle %d faces inward", face, i/3)
			}
		}
	}
}

func TestCubeSphereFaceDisplacement(t *testing.T) {
	m, _ := CreateCubeSphereFace(4, 10, 4, func(dir mgl32.Vec3, s, t float32) float32 {
		return 0.5
	})
	for _, v := range m.Vertices {
		if !mgl32.FloatEqualThreshold(v.Position.Len(), 10.5, 1e-4) {
			t.Fatalf("displaced radius: expected 10.5, got %v", v.Position.Len())
		}
		if v.Normal.Dot(v.Position.Normalize()) < 0.9 {
			t.Fatalf("normal %v does not point outward at %v", v.Normal, v.Position)
		}
	}
}

func TestCubeSphereFaceRejectsBadIndex(t *testing.T) {
	if _, err := CreateCubeSphereFace(6, 1, 4, nil); err == nil {
		t.Error("expected an error for face 6")
	}
}

func TestSphereOutwardWinding(t *testing.T) {
	m := CreateSphere(2, 16, 8)
	outward := 0
	for i := 0; i+2 < len(m.Indices); i += 3 {
		p0 := m.Vertices[m.Indices[i]].Position
		p1 := m.Vertices[m.Indices[i+1]].Position
		p2 := m.Vertices[m.Indices[i+2]].Position
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if n.LenSqr() < 1e-10 {
			continue // collapsed triangles at the poles
		}
		if n.Dot(p0.Add(p1).Add(p2)) <= 0 {
			t.Fatalf("triangle %d faces inward", i/3)
		}
		outward++
	}
	if outward == 0 {
		t.Error("no non-degenerate triangles")
	}
}

func TestTangentsOrthogonal(t *testing.T) {
	m, _ := CreateCubeSphereFace(0, 1, 4, nil)
	for i, v := range m.Vertices {
		if d := v.Tangent.Dot(v.Normal); d > 1e-4 || d < -1e-4 {
			t.Fatalf("vertex %d: tangent not orthogonal to normal (dot=%v)", i, d)
		}
	}
}
