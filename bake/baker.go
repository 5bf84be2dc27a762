package bake

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"planetview/scene"
)

// Orthographic volume used for every face. The quad sits behind the
// camera's origin so the whole slab is inside [near, far].
const (
	ProjectionNear = -100
	ProjectionFar  = 100
	CameraZ        = 10
	QuadZ          = -10
)

// BakedFace is the result of baking one face. It is never modified after Bake
// returns.
type BakedFace struct {
	Face         Face
	ColorTexture *scene.Texture // GPU handle in GLID
	Height       []byte         // RGBA8, row-major, origin bottom-left
	Resolution   int
}

// HeightAt returns the red channel at pixel (x, y), with y = 0 the bottom row.
func (b BakedFace) HeightAt(x, y int) uint8 {
	return b.Height[(y*b.Resolution+x)*4]
}

// Target is an off-screen color render target.
type Target interface {
	// Texture is the color attachment; it outlives the target.
	Texture() *scene.Texture
	// Release frees the framebuffer and keeps the texture.
	Release()
	// Discard frees the framebuffer and the texture.
	Discard()
}

// GPU is the rendering collaborator used by the baker.
type GPU interface {
	// MaxRenderTargetSize is the largest square target the device supports.
	MaxRenderTargetSize() int
	// CreateTarget allocates a resolution×resolution RGB target with
	// bilinear filtering and binds it as the draw and read surface.
	CreateTarget(resolution int) (Target, error)
	// RenderQuad draws quad with material through mvp into target.
	RenderQuad(target Target, material *scene.Material, mvp mgl32.Mat4, quad *scene.Mesh) error
	// ReadPixels copies the full target as tightly packed RGBA8 into dst.
	ReadPixels(target Target, dst []byte) error
	// RestoreDefault rebinds the default framebuffer and viewport.
	RestoreDefault()
	// DeleteTexture frees a texture returned by a released target.
	DeleteTexture(tex *scene.Texture)
}

// MaterialSource yields the procedural material for a face.
type MaterialSource interface {
	MaterialForFace(face Face) *scene.Material
}

// ProceduralMaterials is the default MaterialSource.
type ProceduralMaterials struct {
	Seed int64
}

func (p ProceduralMaterials) MaterialForFace(face Face) *scene.Material {
	return scene.NewProceduralMaterial(int(face), p.Seed)
}

// Baker renders the six procedural faces and reads them back.
type Baker struct {
	GPU       GPU
	Materials MaterialSource
	Logger    *log.Logger
}

func NewBaker(gpu GPU, materials MaterialSource) *Baker {
	return &Baker{GPU: gpu, Materials: materials}
}

// FaceMVP returns the model-view-projection used for a resolution×resolution bake.
func FaceMVP(resolution int) mgl32.Mat4 {
	half := float32(resolution) / 2
	proj := mgl32.Ortho(-half, half, -half, half, ProjectionNear, ProjectionFar)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, CameraZ}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	model := mgl32.Translate3D(0, 0, QuadZ)
	return proj.Mul4(view).Mul4(model)
}

// Bake renders every face at the given resolution. It either returns all six
// faces in index order or an error wrapping one of the package sentinels; on
// error every target created so far is discarded.
func (b *Baker) Bake(resolution int) ([]BakedFace, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, resolution)
	}
	if limit := b.GPU.MaxRenderTargetSize(); resolution > limit {
		return nil, fmt.Errorf("%w: resolution %d > max %d", ErrResourceLimitExceeded, resolution, limit)
	}

	quad := scene.CreateQuad(float32(resolution), float32(resolution))
	mvp := FaceMVP(resolution)

	faces := make([]BakedFace, 0, FaceCount)
	for _, face := range Faces() {
		baked, err := b.bakeFace(face, resolution, quad, mvp)
		if err != nil {
			for _, done := range faces {
				b.GPU.DeleteTexture(done.ColorTexture)
			}
			return nil, err
		}
		faces = append(faces, baked)
		b.logf("baked face %s (%dx%d)", face, resolution, resolution)
	}
	return faces, nil
}

func (b *Baker) bakeFace(face Face, resolution int, quad *scene.Mesh, mvp mgl32.Mat4) (BakedFace, error) {
	defer b.GPU.RestoreDefault()

	target, err := b.GPU.CreateTarget(resolution)
	if err != nil {
		return BakedFace{}, faceError(face, "create target", err)
	}

	material := b.Materials.MaterialForFace(face)
	if err := b.GPU.RenderQuad(target, material, mvp, quad); err != nil {
		target.Discard()
		return BakedFace{}, faceError(face, "render", err)
	}

	buf := make([]byte, resolution*resolution*4)
	if err := b.GPU.ReadPixels(target, buf); err != nil {
		target.Discard()
		return BakedFace{}, faceError(face, "read pixels", err)
	}
	// The target stores RGB only; synthesize an opaque alpha.
	for i := 3; i < len(buf); i += 4 {
		buf[i] = 0xFF
	}

	tex := target.Texture()
	target.Release()

	return BakedFace{
		Face:         face,
		ColorTexture: tex,
		Height:       buf,
		Resolution:   resolution,
	}, nil
}

// faceError wraps err so it always matches one of the package sentinels.
func faceError(face Face, op string, err error) error {
	if errors.Is(err, ErrResourceLimitExceeded) || errors.Is(err, ErrRenderTargetUnavailable) {
		return fmt.Errorf("bake face %s: %s: %w", face, op, err)
	}
	return fmt.Errorf("bake face %s: %s: %w: %w", face, op, ErrRenderTargetUnavailable, err)
}

func (b *Baker) logf(format string, args ...any) {
	if b.Logger != nil {
		b.Logger.Printf(format, args...)
	}
}
