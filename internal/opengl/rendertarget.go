package opengl

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"

	"planetview/scene"
)

// RenderTarget is an off-screen framebuffer with a single RGB8 color
// texture and no depth attachment.
type RenderTarget struct {
	FBO  uint32
	Size int32

	tex *scene.Texture
}

// NewRenderTarget creates a size×size target and leaves it bound as the
// draw and read framebuffer with a matching viewport.
func NewRenderTarget(name string, size int) (*RenderTarget, error) {
	rt := &RenderTarget{
		Size: int32(size),
		tex:  &scene.Texture{Name: name, Width: size, Height: size},
	}

	gl.GenTextures(1, &rt.tex.GLID)
	gl.BindTexture(gl.TEXTURE_2D, rt.tex.GLID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB8, int32(size), int32(size), 0, gl.RGB, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := checkError("allocate render target"); err != nil {
		rt.Discard()
		return nil, err
	}

	gl.GenFramebuffers(1, &rt.FBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, rt.tex.GLID, 0)
	gl.DrawBuffer(gl.COLOR_ATTACHMENT0)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		rt.Discard()
		return nil, fmt.Errorf("render target FBO incomplete: status=0x%X", status)
	}

	gl.Viewport(0, 0, rt.Size, rt.Size)
	return rt, nil
}

// Bind makes rt the active framebuffer with a matching viewport.
func (rt *RenderTarget) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.FBO)
	gl.Viewport(0, 0, rt.Size, rt.Size)
}

// Texture is the color attachment.
func (rt *RenderTarget) Texture() *scene.Texture {
	return rt.tex
}

// ReadPixels copies the whole target into dst as tightly packed RGBA8,
// bottom row first.
func (rt *RenderTarget) ReadPixels(dst []byte) error {
	want := int(rt.Size) * int(rt.Size) * 4
	if len(dst) != want {
		return fmt.Errorf("read pixels: buffer is %d bytes, want %d", len(dst), want)
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, rt.FBO)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, rt.Size, rt.Size, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	return checkError("read pixels")
}

// Release frees the framebuffer and keeps the color texture.
func (rt *RenderTarget) Release() {
	if rt.FBO != 0 {
		gl.DeleteFramebuffers(1, &rt.FBO)
		rt.FBO = 0
	}
}

// Discard frees the framebuffer and the color texture.
func (rt *RenderTarget) Discard() {
	rt.Release()
	DeleteTexture(rt.tex)
}
