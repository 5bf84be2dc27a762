package renderer

import (
	"fmt"
	"log"

	"planetview/internal/opengl"
	"planetview/scene"
)

// RenderEngine ties the OpenGL backend to a window. It satisfies the app's
// Renderer and Surface interfaces and exposes the bake device.
type RenderEngine struct {
	gl     *opengl.Renderer
	bake   *opengl.BakeGPU
	window *Window
}

// NewRenderEngine creates the backend on window's context, which must be
// current on the calling thread.
func NewRenderEngine(window *Window, logger *log.Logger) (*RenderEngine, error) {
	glRenderer, err := opengl.NewRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenGL renderer: %w", err)
	}
	return &RenderEngine{
		gl:     glRenderer,
		bake:   opengl.NewBakeGPU(glRenderer, window.Size),
		window: window,
	}, nil
}

// BakeGPU is the device the texture baker renders faces with.
func (re *RenderEngine) BakeGPU() *opengl.BakeGPU {
	return re.bake
}

func (re *RenderEngine) Upload(tex *scene.Texture) error {
	return re.gl.Upload(tex)
}

// Render draws ctx into the window's default framebuffer at its current size.
func (re *RenderEngine) Render(ctx *scene.Context) error {
	re.bake.RestoreDefault()
	return re.gl.Render(ctx)
}

func (re *RenderEngine) Size() (int, int)  { return re.window.Size() }
func (re *RenderEngine) PollEvents()       { re.window.PollEvents() }
func (re *RenderEngine) SwapBuffers()      { re.window.SwapBuffers() }
func (re *RenderEngine) ShouldClose() bool { return re.window.ShouldClose() }

// Destroy frees GPU resources. The window is owned by the caller.
func (re *RenderEngine) Destroy() {
	re.gl.Destroy()
}
