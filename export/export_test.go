package export

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"planetview/bake"
	"planetview/bake/baketest"
	"planetview/planet"
	"planetview/scene"
)

func buildPlanet(t *testing.T, res int) (*planet.Planet, []bake.BakedFace) {
	t.Helper()
	faces := baketest.Faces(res)
	opts := planet.DefaultOptions()
	opts.Segments = 4
	opts.GlowSegments = 6
	p, err := planet.Build(scene.NewContext(1), faces, opts)
	if err != nil {
		t.Fatal(err)
	}
	return p, faces
}

func TestWriteFacePNGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "faces")
	faces := baketest.Faces(4)
	paths, err := WriteFacePNGs(dir, faces)
	if err != nil {
		t.Fatalf("WriteFacePNGs: %v", err)
	}
	if len(paths) != bake.FaceCount {
		t.Fatalf("expected %d files, got %d", bake.FaceCount, len(paths))
	}
	if filepath.Base(paths[1]) != "face_1_nx.png" {
		t.Errorf("name: expected face_1_nx.png, got %s", filepath.Base(paths[1]))
	}

	file, err := os.Open(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("size: expected 4x4, got %v", b)
	}
	// Image row 0 is the top, which is the last buffer row.
	r, _, _, a := img.At(2, 0).RGBA()
	if want := uint32(baketest.Pattern(1, 0, 2, 3)); r>>8 != want {
		t.Errorf("top-left flip: expected red %d, got %d", want, r>>8)
	}
	if a>>8 != 0xFF {
		t.Errorf("alpha: expected 255, got %d", a>>8)
	}
}

func TestWriteGLB(t *testing.T) {
	p, faces := buildPlanet(t, 4)
	path := filepath.Join(t.TempDir(), "planet.glb")
	if err := WriteGLB(path, p, faces); err != nil {
		t.Fatalf("WriteGLB: %v", err)
	}

	doc, err := gltf.Open(path)
	if err != nil {
		t.Fatalf("gltf.Open: %v", err)
	}
	if len(doc.Meshes) != bake.FaceCount {
		t.Errorf("meshes: expected %d, got %d", bake.FaceCount, len(doc.Meshes))
	}
	if len(doc.Images) != bake.FaceCount || len(doc.Materials) != bake.FaceCount {
		t.Errorf("expected %d images and materials, got %d and %d", bake.FaceCount, len(doc.Images), len(doc.Materials))
	}
	if len(doc.Scenes[0].Nodes) != bake.FaceCount {
		t.Errorf("scene nodes: expected %d, got %d", bake.FaceCount, len(doc.Scenes[0].Nodes))
	}

	prim := doc.Meshes[0].Primitives[0]
	positions, err := modeler.ReadPosition(doc, doc.Accessors[prim.Attributes[gltf.POSITION]], nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != len(p.Faces[0].Mesh.Vertices) {
		t.Errorf("positions: expected %d, got %d", len(p.Faces[0].Mesh.Vertices), len(positions))
	}
	indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(indices) != len(p.Faces[0].Mesh.Indices) {
		t.Errorf("indices: expected %d, got %d", len(p.Faces[0].Mesh.Indices), len(indices))
	}
	for _, m := range doc.Meshes {
		if m.Name == planet.AtmosphereName {
			t.Error("the glow shell should not be exported")
		}
	}
}

func TestDocumentRejectsMismatch(t *testing.T) {
	p, faces := buildPlanet(t, 2)
	if _, err := Document(p, faces[:3]); err == nil {
		t.Error("expected an error for mismatched faces")
	}
}

func TestWriteAll(t *testing.T) {
	p, faces := buildPlanet(t, 2)
	dir := t.TempDir()
	if err := WriteAll(dir, p, faces); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != bake.FaceCount+1 {
		t.Errorf("expected %d files, got %d", bake.FaceCount+1, len(entries))
	}
	if _, err := os.Stat(filepath.Join(dir, GLBName)); err != nil {
		t.Errorf("missing %s: %v", GLBName, err)
	}
}

func TestGLBLoadsBackIntoScene(t *testing.T) {
	p, faces := buildPlanet(t, 4)
	path := filepath.Join(t.TempDir(), GLBName)
	if err := WriteGLB(path, p, faces); err != nil {
		t.Fatal(err)
	}

	result, err := scene.LoadGLTF(path)
	if err != nil {
		t.Fatalf("LoadGLTF: %v", err)
	}
	if len(result.Roots) != bake.FaceCount || len(result.Textures) != bake.FaceCount {
		t.Fatalf("expected %d roots and textures, got %d and %d", bake.FaceCount, len(result.Roots), len(result.Textures))
	}

	node := result.Roots[2]
	if node.Name != p.Faces[2].Name {
		t.Errorf("name: expected %s, got %s", p.Faces[2].Name, node.Name)
	}
	mat := node.Mesh.Material
	if mat == nil || mat.AlbedoTexture == nil {
		t.Fatal("expected a textured material")
	}
	if !bytes.Equal(mat.AlbedoTexture.Pixels, faces[2].Height) {
		t.Error("texture pixels differ from the baked face after the round trip")
	}
	want := p.Faces[2].Mesh.Vertices
	got := node.Mesh.Vertices
	if len(got) != len(want) {
		t.Fatalf("vertices: expected %d, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].UV.Sub(want[i].UV).Len() > 1e-6 || got[i].Position.Sub(want[i].Position).Len() > 1e-5 {
			t.Fatalf("vertex %d: expected %v/%v, got %v/%v", i, want[i].Position, want[i].UV, got[i].Position, got[i].UV)
		}
	}
}
