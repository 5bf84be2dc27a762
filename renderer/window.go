package renderer

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

// InputHandler receives pointer, wheel and resize events in framebuffer
// pixels. app.App satisfies it.
type InputHandler interface {
	PointerDown(x, y float32)
	PointerMove(x, y float32)
	PointerUp(x, y float32)
	Wheel(delta float32)
	Resize(width, height int)
}

type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string
}

type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:     1280,
		Height:    720,
		Title:     "Planet",
		Resizable: true,
		VSync:     true,
	}
}

// NewWindow opens a window with a current OpenGL 4.1 core context.
func NewWindow(config WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	glfw.SwapInterval(boolToInt(config.VSync))

	window := &Window{
		Handle: handle,
		Width:  config.Width,
		Height: config.Height,
		Title:  config.Title,
	}
	handle.SetSizeCallback(func(w *glfw.Window, width, height int) {
		window.Width = width
		window.Height = height
	})
	return window, nil
}

// Size returns the framebuffer size in pixels.
func (w *Window) Size() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

// SetInputHandler routes the left mouse button, cursor motion, scroll and
// framebuffer resizes to h. Cursor coordinates are scaled from screen units
// to framebuffer pixels.
func (w *Window) SetInputHandler(h InputHandler) {
	w.Handle.SetMouseButtonCallback(func(win *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		x, y := w.cursor()
		switch action {
		case glfw.Press:
			h.PointerDown(x, y)
		case glfw.Release:
			h.PointerUp(x, y)
		}
	})
	w.Handle.SetCursorPosCallback(func(win *glfw.Window, _, _ float64) {
		x, y := w.cursor()
		h.PointerMove(x, y)
	})
	w.Handle.SetScrollCallback(func(win *glfw.Window, xoff, yoff float64) {
		h.Wheel(float32(yoff))
	})
	w.Handle.SetFramebufferSizeCallback(func(win *glfw.Window, width, height int) {
		h.Resize(width, height)
	})
}

func (w *Window) cursor() (float32, float32) {
	cx, cy := w.Handle.GetCursorPos()
	ww, wh := w.Handle.GetSize()
	fw, fh := w.Handle.GetFramebufferSize()
	sx, sy := 1.0, 1.0
	if ww > 0 && wh > 0 {
		sx, sy = float64(fw)/float64(ww), float64(fh)/float64(wh)
	}
	return float32(cx * sx), float32(cy * sy)
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
