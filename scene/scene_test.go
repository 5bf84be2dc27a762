package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewContextDefaults(t *testing.T) {
	ctx := NewContext(16.0 / 9.0)

	if d := ctx.Camera.DistanceTo(ctx.Anchor()); d != CameraStartZ {
		t.Errorf("camera distance: expected %v, got %v", CameraStartZ, d)
	}
	if ctx.Camera.FOV != CameraFOV {
		t.Errorf("FOV: expected %v, got %v", CameraFOV, ctx.Camera.FOV)
	}
	if len(ctx.Lights) != 1 || ctx.Lights[0].Type != LightPoint {
		t.Fatalf("lights: expected one point light, got %v", ctx.Lights)
	}
	if p := ctx.Lights[0].Position; p != (mgl32.Vec3{-100, 0, 0}) {
		t.Errorf("sun position: expected (-100,0,0), got %v", p)
	}
	if ctx.Ambient.R != AmbientLevel {
		t.Errorf("ambient: expected %v, got %v", AmbientLevel, ctx.Ambient.R)
	}
	if ctx.Root.Find(PlanetRootName) != ctx.PlanetRoot {
		t.Error("planet root is not attached to the scene root")
	}
}

func TestAnchorFollowsPlanetRoot(t *testing.T) {
	ctx := NewContext(1)
	ctx.Root.SetPosition(mgl32.Vec3{1, 0, 0})
	ctx.PlanetRoot.SetPosition(mgl32.Vec3{0, 2, 0})

	expected := mgl32.Vec3{1, 2, 0}
	if a := ctx.Anchor(); !a.ApproxEqual(expected) {
		t.Errorf("Anchor: expected %v, got %v", expected, a)
	}
}

func TestDrawListSkipsHiddenSubtrees(t *testing.T) {
	ctx := NewContext(1)
	visible := NewMeshNode("visible", CreateQuad(1, 1))
	hidden := NewNode("hidden")
	hidden.Visible = false
	hidden.AddChild(NewMeshNode("child", CreateQuad(1, 1)))
	ctx.PlanetRoot.AddChild(visible)
	ctx.PlanetRoot.AddChild(hidden)

	items := ctx.DrawList()
	if len(items) != 1 || items[0].Node != visible {
		t.Errorf("DrawList: expected only the visible node, got %d items", len(items))
	}
}

func TestContextTexturesDeduplicates(t *testing.T) {
	ctx := NewContext(1)
	tex := &Texture{Name: "shared"}
	ctx.RegisterMaterial(NewSurfaceMaterial("a", tex, tex, 1))
	ctx.RegisterMaterial(NewSurfaceMaterial("b", tex, nil, 1))

	if n := len(ctx.Textures()); n != 1 {
		t.Errorf("Textures: expected 1, got %d", n)
	}
	if ctx.Material("a") == nil || ctx.Material("missing") != nil {
		t.Error("Material lookup returned the wrong entry")
	}
}

func TestCameraMatrices(t *testing.T) {
	cam := NewCamera(50, 1, 0.1, 1000)
	cam.SetPosition(mgl32.Vec3{0, 0, 10})
	cam.LookAt(mgl32.Vec3{})

	// The target must land in the centre of the screen.
	clip := cam.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())
	if mgl32.Abs(ndc.X()) > 1e-5 || mgl32.Abs(ndc.Y()) > 1e-5 {
		t.Errorf("target NDC: expected (0,0), got %v", ndc)
	}

	f := cam.Forward()
	if !f.ApproxEqual(mgl32.Vec3{0, 0, -1}) {
		t.Errorf("Forward: expected (0,0,-1), got %v", f)
	}
}

func TestNodeWorldMatrix(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")
	parent.AddChild(child)
	parent.SetPosition(mgl32.Vec3{5, 0, 0})
	child.SetPosition(mgl32.Vec3{0, 0, 3})

	expected := mgl32.Vec3{5, 0, 3}
	if p := child.WorldPosition(); !p.ApproxEqual(expected) {
		t.Errorf("WorldPosition: expected %v, got %v", expected, p)
	}

	parent.RemoveChild(child)
	if p := child.WorldPosition(); !p.ApproxEqual(mgl32.Vec3{0, 0, 3}) {
		t.Errorf("WorldPosition after detach: expected (0,0,3), got %v", p)
	}
}

func TestFlipRows(t *testing.T) {
	pix := []byte{1, 1, 2, 2, 3, 3}
	got := FlipRows(pix, 2)
	expected := []byte{3, 3, 2, 2, 1, 1}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("FlipRows: expected %v, got %v", expected, got)
		}
	}
}

func TestNewTextureFromRGBA(t *testing.T) {
	if _, err := NewTextureFromRGBA("bad", 2, 2, make([]byte, 15)); err == nil {
		t.Error("expected a size mismatch error")
	}
	tex, err := NewTextureFromRGBA("ok", 2, 2, make([]byte, 16))
	if err != nil {
		t.Fatalf("NewTextureFromRGBA: %v", err)
	}
	if tex.Width != 2 || tex.Height != 2 {
		t.Errorf("size: expected 2x2, got %dx%d", tex.Width, tex.Height)
	}
}
