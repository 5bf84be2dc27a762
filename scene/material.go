package scene

import (
	"fmt"

	"planetview/core"
)

// MaterialKind selects the shader program used to draw a mesh.
type MaterialKind int

const (
	// MaterialSurface is the lit planet surface: albedo texture, bump map,
	// ambient plus point/directional lights.
	MaterialSurface MaterialKind = iota
	// MaterialAtmosphere is the view-dependent additive glow shell.
	MaterialAtmosphere
	// MaterialProcedural generates one planet face pattern; used only while baking.
	MaterialProcedural
	// MaterialUnlit outputs Albedo (times AlbedoTexture) with no lighting.
	MaterialUnlit
)

func (k MaterialKind) String() string {
	switch k {
	case MaterialSurface:
		return "surface"
	case MaterialAtmosphere:
		return "atmosphere"
	case MaterialProcedural:
		return "procedural"
	case MaterialUnlit:
		return "unlit"
	}
	return fmt.Sprintf("MaterialKind(%d)", int(k))
}

// Side selects which triangle faces are rasterized.
type Side int

const (
	SideFront Side = iota
	SideBack
	SideDouble
)

// Material describes how a mesh is shaded.
type Material struct {
	Name string
	Kind MaterialKind
	Side Side

	Albedo    core.Color // multiplied with AlbedoTexture when set
	Shininess float32

	// AlbedoTexture and BumpTexture must be uploaded before rendering.
	AlbedoTexture *Texture
	BumpTexture   *Texture
	BumpScale     float32

	// Atmosphere glow: intensity = pow(Coefficient - dot(normal, view), Power).
	GlowColor   core.Color
	Coefficient float32
	Power       float32

	// Procedural face pattern parameters.
	Face int
	Seed int64
}

// DefaultMaterial returns a plain white matte surface material.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "Default",
		Kind:      MaterialSurface,
		Albedo:    core.ColorWhite,
		Shininess: 16,
	}
}

// NewSurfaceMaterial returns a lit material sampling albedo and bump textures.
func NewSurfaceMaterial(name string, albedo, bump *Texture, bumpScale float32) *Material {
	return &Material{
		Name:          name,
		Kind:          MaterialSurface,
		Albedo:        core.ColorWhite,
		Shininess:     16,
		AlbedoTexture: albedo,
		BumpTexture:   bump,
		BumpScale:     bumpScale,
	}
}

// NewAtmosphereMaterial returns a back-face glow material.
func NewAtmosphereMaterial(coefficient, power float32, glow core.Color) *Material {
	return &Material{
		Name:        "Atmosphere",
		Kind:        MaterialAtmosphere,
		Side:        SideBack,
		GlowColor:   glow,
		Coefficient: coefficient,
		Power:       power,
	}
}

// NewProceduralMaterial returns the pattern generator for one planet face.
// The same face and seed always produce the same pixels.
func NewProceduralMaterial(face int, seed int64) *Material {
	return &Material{
		Name: fmt.Sprintf("Procedural%d", face),
		Kind: MaterialProcedural,
		Side: SideDouble,
		Face: face,
		Seed: seed,
	}
}
