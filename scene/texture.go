package scene

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Texture holds CPU-side pixel data for a 2D texture.
// GLID is set by the OpenGL backend after upload; do not access directly.
type Texture struct {
	Name   string
	Width  int
	Height int
	// Pixels in RGBA8 format (4 bytes per pixel, row-major, bottom row first
	// so that row 0 is sampled at v = 0).
	Pixels []byte
	// GLID is the OpenGL texture object ID.
	GLID uint32
	// Mipmaps requests mipmap generation on upload.
	Mipmaps bool
}

// NewTextureFromRGBA wraps an RGBA8 buffer without copying it.
func NewTextureFromRGBA(name string, width, height int, pixels []byte) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("texture %q: invalid size %dx%d", name, width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("texture %q: expected %d bytes, got %d", name, width*height*4, len(pixels))
	}
	return &Texture{Name: name, Width: width, Height: height, Pixels: pixels}, nil
}

// LoadTexture reads a PNG or JPEG file from disk and returns a CPU-side Texture.
// Rows are stored bottom-up.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &Texture{
		Name:    path,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Pixels:  FlipRows(rgba.Pix, bounds.Dx()*4),
		Mipmaps: true,
	}, nil
}

// FlipRows returns a copy of pix with its rows in reverse order.
func FlipRows(pix []byte, stride int) []byte {
	out := make([]byte, len(pix))
	rows := len(pix) / stride
	for y := 0; y < rows; y++ {
		copy(out[(rows-1-y)*stride:(rows-y)*stride], pix[y*stride:(y+1)*stride])
	}
	return out
}
