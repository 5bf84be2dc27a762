// Package export writes baked faces to PNG files and the built planet to a
// binary glTF file.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"planetview/bake"
	"planetview/planet"
	"planetview/scene"
)

// GLBName is the file WriteAll gives the planet model.
const GLBName = "planet.glb"

// FaceImage returns the face buffer as an image with the top row first.
func FaceImage(f bake.BakedFace) *image.RGBA {
	stride := f.Resolution * 4
	return &image.RGBA{
		Pix:    scene.FlipRows(f.Height, stride),
		Stride: stride,
		Rect:   image.Rect(0, 0, f.Resolution, f.Resolution),
	}
}

// EncodeFacePNG writes f as a PNG.
func EncodeFacePNG(w io.Writer, f bake.BakedFace) error {
	return png.Encode(w, FaceImage(f))
}

// FacePNGName is the file name used for face i.
func FacePNGName(f bake.BakedFace) string {
	return fmt.Sprintf("face_%d_%s.png", int(f.Face), f.Face)
}

// WriteFacePNGs writes every face into dir, creating it if needed, and
// returns the written paths.
func WriteFacePNGs(dir string, faces []bake.BakedFace) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(faces))
	for _, f := range faces {
		path := filepath.Join(dir, FacePNGName(f))
		if err := writeFile(path, func(w io.Writer) error { return EncodeFacePNG(w, f) }); err != nil {
			return paths, fmt.Errorf("export face %s: %w", f.Face, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Document builds a glTF document with one mesh per planet face, each with
// its baked face as the base colour texture. The glow shell is left out.
func Document(p *planet.Planet, faces []bake.BakedFace) (*gltf.Document, error) {
	if len(p.Faces) != len(faces) {
		return nil, fmt.Errorf("export: %d face nodes for %d baked faces", len(p.Faces), len(faces))
	}

	doc := gltf.NewDocument()
	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		MagFilter: gltf.MagLinear,
		MinFilter: gltf.MinLinear,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapClampToEdge,
	})

	for i, node := range p.Faces {
		f := faces[i]
		mesh := node.Mesh

		var buf bytes.Buffer
		if err := EncodeFacePNG(&buf, f); err != nil {
			return nil, fmt.Errorf("export face %s: %w", f.Face, err)
		}
		img, err := modeler.WriteImage(doc, FacePNGName(f), "image/png", &buf)
		if err != nil {
			return nil, fmt.Errorf("export face %s: %w", f.Face, err)
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(img), Sampler: gltf.Index(0)})
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name: fmt.Sprintf("PlanetSurface%d", f.Face),
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: len(doc.Textures) - 1},
				MetallicFactor:   gltf.Float(0),
				RoughnessFactor:  gltf.Float(1),
			},
		})

		positions := make([][3]float32, len(mesh.Vertices))
		normals := make([][3]float32, len(mesh.Vertices))
		uvs := make([][2]float32, len(mesh.Vertices))
		for j, v := range mesh.Vertices {
			positions[j] = v.Position
			normals[j] = v.Normal
			// glTF puts v = 0 at the top of the image.
			uvs[j] = [2]float32{v.UV.X(), 1 - v.UV.Y()}
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: node.Name,
			Primitives: []*gltf.Primitive{{
				Indices: gltf.Index(modeler.WriteIndices(doc, mesh.Indices)),
				Attributes: gltf.PrimitiveAttributes{
					gltf.POSITION:   modeler.WritePosition(doc, positions),
					gltf.NORMAL:     modeler.WriteNormal(doc, normals),
					gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
				},
				Material: gltf.Index(len(doc.Materials) - 1),
			}},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: node.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return doc, nil
}

// WriteGLB saves Document(p, faces) as a binary glTF file.
func WriteGLB(path string, p *planet.Planet, faces []bake.BakedFace) error {
	doc, err := Document(p, faces)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

// WriteAll writes the face PNGs and planet.glb into dir.
func WriteAll(dir string, p *planet.Planet, faces []bake.BakedFace) error {
	if _, err := WriteFacePNGs(dir, faces); err != nil {
		return err
	}
	return WriteGLB(filepath.Join(dir, GLBName), p, faces)
}
