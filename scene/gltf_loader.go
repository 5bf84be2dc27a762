package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"planetview/core"
)

// GLTFResult holds the nodes and textures loaded from a .glb file.
// Textures still need uploading before the first render.
type GLTFResult struct {
	Roots    []*Node
	Textures []*Texture
}

// LoadGLTF opens a .glb or .gltf file written by the planet exporter, or any
// file using embedded images and a single primitive per mesh. Images are
// stored bottom row first and V is flipped so sampling matches textures
// built in memory.
func LoadGLTF(path string) (*GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	result := &GLTFResult{}

	texCache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil {
			continue
		}
		img := doc.Images[*gt.Source]
		if img.BufferView == nil {
			continue
		}
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("gltf image %d: %w", *gt.Source, err)
		}
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("gltf_img_%d", *gt.Source)
		}
		tex, err := decodeImageBytes(name, raw)
		if err != nil {
			return nil, fmt.Errorf("gltf image %d: %w", *gt.Source, err)
		}
		texCache[i] = tex
		result.Textures = append(result.Textures, tex)
	}

	matCache := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.Albedo = core.Color{R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2]), A: float32(cf[3])}
			if pbr.BaseColorTexture != nil {
				if idx := pbr.BaseColorTexture.Index; idx < len(texCache) {
					mat.AlbedoTexture = texCache[idx]
				}
			}
			// Rough surfaces get a wide, dim highlight.
			roughness := float32(pbr.RoughnessFactorOrDefault())
			mat.Shininess = (1-roughness)*(1-roughness)*128 + 1
		}
		matCache[i] = mat
	}

	meshes := make([]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		if len(gm.Primitives) == 0 {
			continue
		}
		prim := gm.Primitives[0]
		m, err := loadGLTFPrimitive(doc, gm.Name, prim)
		if err != nil {
			return nil, fmt.Errorf("gltf mesh %d: %w", mi, err)
		}
		ComputeTangents(m)
		if prim.Material != nil && *prim.Material < len(matCache) {
			m.Material = matCache[*prim.Material]
		}
		meshes[mi] = m
	}

	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		name := gn.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(name)
		t := gn.TranslationOrDefault()
		n.SetPosition(mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])})
		sc := gn.ScaleOrDefault()
		n.SetScale(mgl32.Vec3{float32(sc[0]), float32(sc[1]), float32(sc[2])})
		r := gn.RotationOrDefault() // x, y, z, w
		n.SetRotation(mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}})
		if gn.Mesh != nil && *gn.Mesh < len(meshes) {
			n.Mesh = meshes[*gn.Mesh]
		}
		nodes[i] = n
	}
	for i, gn := range doc.Nodes {
		for _, c := range gn.Children {
			if c < len(nodes) {
				nodes[i].AddChild(nodes[c])
			}
		}
	}

	sceneIdx := 0
	if doc.Scene != nil {
		sceneIdx = *doc.Scene
	}
	if sceneIdx < len(doc.Scenes) {
		for _, idx := range doc.Scenes[sceneIdx].Nodes {
			if idx < len(nodes) {
				result.Roots = append(result.Roots, nodes[idx])
			}
		}
	}
	return result, nil
}

func loadGLTFPrimitive(doc *gltf.Document, meshName string, prim *gltf.Primitive) (*Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil); err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: mgl32.Vec3{p[0], p[1], p[2]},
			Normal:   mgl32.Vec3{0, 1, 0},
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2{uvs[i][0], 1 - uvs[i][1]}
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}
	return CreateMeshFromData(meshName, verts, indices), nil
}

// decodeImageBytes decodes a PNG or JPEG into a bottom-row-first Texture.
func decodeImageBytes(name string, data []byte) (*Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return &Texture{
		Name:   name,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: FlipRows(rgba.Pix, bounds.Dx()*4),
	}, nil
}
