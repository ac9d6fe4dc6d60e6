// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package window opens the SDL window the renderer presents to and
// forwards its events.
package window

import (
	"fmt"
	"unsafe"

	"github.com/devblok/koruvox/gfx"
	vk "github.com/devblok/vulkan"
	"github.com/veandco/go-sdl2/sdl"
)

// Mode selects how the window occupies the screen.
type Mode int

// Window modes
const (
	Windowed Mode = iota
	WindowedFullscreen
	Fullscreen
)

// Config describes the window to create.
type Config struct {
	Title  string
	Width  uint32
	Height uint32
	Mode   Mode
}

func (c Config) flags() uint32 {
	flags := uint32(sdl.WINDOW_VULKAN | sdl.WINDOW_RESIZABLE | sdl.WINDOW_SHOWN)
	switch c.Mode {
	case WindowedFullscreen:
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	case Fullscreen:
		flags |= sdl.WINDOW_FULLSCREEN
	}
	return flags
}

// Window is an SDL window with Vulkan support. SDL must be initialised
// and the Vulkan library loaded before New.
type Window struct {
	window *sdl.Window
}

// Init initialises SDL video and events and loads the Vulkan library.
// The returned function undoes it.
func Init() (func(), error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_GAMECONTROLLER); err != nil {
		return nil, err
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, err
	}
	return func() {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
	}, nil
}

// New creates the window.
func New(cfg Config) (*Window, error) {
	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		cfg.flags())
	if err != nil {
		return nil, fmt.Errorf("sdl.CreateWindow(): %w", err)
	}
	return &Window{window: window}, nil
}

// ProcAddr is the vkGetInstanceProcAddr of the loaded Vulkan library.
func ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// VulkanInstanceExtensions lists the instance extensions presenting
// to this window needs.
func (w *Window) VulkanInstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// CreateSurface creates a Vulkan surface for the window.
func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("sdl.VulkanCreateSurface(): %w", err)
	}
	return vk.SurfaceFromPointer(uintptr(ptr)), nil
}

// FramebufferSize is the drawable size in pixels.
func (w *Window) FramebufferSize() gfx.Extent2D {
	width, height := w.window.VulkanGetDrawableSize()
	return gfx.Extent2D{Width: uint32(width), Height: uint32(height)}
}

// SetTitle changes the window title.
func (w *Window) SetTitle(title string) {
	w.window.SetTitle(title)
}

// PollEvents dispatches every pending event.
func (w *Window) PollEvents(t *Trampoline) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		t.Dispatch(event)
	}
}

// ShowError shows a modal error box, falling back to no parent window.
func ShowError(w *Window, title, message string) error {
	var parent *sdl.Window
	if w != nil {
		parent = w.window
	}
	return sdl.ShowSimpleMessageBox(sdl.MESSAGEBOX_ERROR, title, message, parent)
}

// Destroy closes the window.
func (w *Window) Destroy() {
	if w.window != nil {
		w.window.Destroy()
		w.window = nil
	}
}
