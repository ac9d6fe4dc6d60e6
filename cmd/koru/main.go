// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"sync/atomic"
	"time"

	"github.com/devblok/koruvox/assets"
	"github.com/devblok/koruvox/core"
	"github.com/devblok/koruvox/gfx/vkr"
	"github.com/devblok/koruvox/input"
	"github.com/devblok/koruvox/logging"
	"github.com/devblok/koruvox/metrics"
	"github.com/devblok/koruvox/utility/kar"
	"github.com/devblok/koruvox/window"
	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const appName = "koru"

func init() {
	runtime.LockOSThread()
}

var (
	vsync  = flag.Bool("vsync", false, "Enable vertical synchronisation")
	gpu    = flag.Int("gpu", -1, "Physical device index, invalid indices select automatically")
	maxFPS = flag.Uint("maxfps", 60, "Frame rate limit, clamped to [1, 2000]")
	config = flag.String("config", "", "Configuration file, toml or yaml")
)

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
)

var frameCounter int64

func main() {
	flag.Parse()

	logger, logFile, err := logging.New(".", appName, "info")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(logger); err != nil {
		logger.WithError(err).Error("fatal error")
		window.ShowError(nil, appName, err.Error())
		logFile.Close()
		os.Exit(1)
	}
	logger.Info("clean shutdown")
	logFile.Close()
}

func loadConfiguration() (core.Configuration, error) {
	var (
		cfg core.Configuration
		err error
	)
	if *config != "" {
		cfg, err = core.LoadConfiguration(*config)
	} else {
		cfg = core.DefaultConfiguration()
		if err = cfg.ApplyEnvironment(); err == nil {
			err = cfg.Validate()
		}
	}
	if err != nil {
		return cfg, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "vsync":
			cfg.Renderer.VSync = *vsync
		case "gpu":
			cfg.Renderer.GPU = *gpu
		case "maxfps":
			cfg.Time.FramesPerSecond = int(*maxFPS)
		case "vkdbg":
			cfg.Renderer.Validation = *debug
		}
	})
	cfg.Time.FramesPerSecond = core.ClampFramesPerSecond(cfg.Time.FramesPerSecond)
	return cfg, nil
}

func windowMode(mode core.WindowMode) window.Mode {
	switch mode {
	case core.WindowedFullscreen:
		return window.WindowedFullscreen
	case core.Fullscreen:
		return window.Fullscreen
	}
	return window.Windowed
}

func newLibrary(cfg core.RendererConfiguration, logger logrus.FieldLogger) (*assets.Library, func(), error) {
	sources := []assets.Source{assets.Dir(cfg.ShaderDirectory)}
	closer := func() {}
	if cfg.Archive != "" {
		ar, err := kar.OpenFile(cfg.Archive)
		if err != nil {
			return nil, nil, fmt.Errorf("asset archive %s: %w", cfg.Archive, err)
		}
		sources = append(sources, assets.Archive(ar))
		closer = func() { ar.Close() }
	}
	sources = append(sources, assets.Defaults())
	return assets.NewLibrary(logger, sources...), closer, nil
}

func shaders(library *assets.Library, names []string) (vert, frag []uint32, err error) {
	for _, name := range names {
		stage, ok := assets.ShaderStage(name)
		if !ok {
			return nil, nil, fmt.Errorf("%s: not a compiled shader", name)
		}
		code, err := library.Shader(name)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, err)
		}
		switch stage {
		case vk.ShaderStageVertexBit:
			vert = code
		case vk.ShaderStageFragmentBit:
			frag = code
		}
	}
	if vert == nil || frag == nil {
		return nil, nil, errors.New("a vertex and a fragment shader must be configured")
	}
	return vert, frag, nil
}

func preload(library *assets.Library, cfg core.RendererConfiguration, logger logrus.FieldLogger) {
	for _, name := range cfg.Textures {
		if _, err := library.Texture(name); err != nil {
			logger.WithError(err).WithField("asset", name).Warn("texture not loaded")
		}
	}
	for _, name := range cfg.Models {
		if _, err := library.Model(name); err != nil {
			logger.WithError(err).WithField("asset", name).Warn("model not loaded")
		}
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := loadConfiguration()
	if err != nil {
		return err
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			return err
		}
		if err := trace.Start(f); err != nil {
			return err
		}
		defer trace.Stop()
	}

	library, closeLibrary, err := newLibrary(cfg.Renderer, logger)
	if err != nil {
		return err
	}
	defer closeLibrary()
	vert, frag, err := shaders(library, cfg.Renderer.Shaders)
	if err != nil {
		return err
	}
	preload(library, cfg.Renderer, logger)

	quitSDL, err := window.Init()
	if err != nil {
		return err
	}
	defer quitSDL()

	win, err := window.New(window.Config{
		Title:  cfg.Window.Title,
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		Mode:   windowMode(cfg.Window.Mode),
	})
	if err != nil {
		return err
	}
	defer win.Destroy()

	instance, err := core.NewInstance(window.ProcAddr(), appName, win.VulkanInstanceExtensions(), cfg.Renderer.Validation)
	if err != nil {
		return err
	}
	defer instance.Destroy()

	infos := instance.DevicesInfo()
	selected := core.SelectPhysicalDevice(infos, cfg.Renderer.GPU)
	if selected < 0 {
		return errors.New("no Vulkan capable device found")
	}
	if selected != cfg.Renderer.GPU && cfg.Renderer.GPU >= 0 {
		logger.WithField("gpu", cfg.Renderer.GPU).Warn("invalid device index, selecting automatically")
	}
	logger.WithFields(logrus.Fields{
		"name": infos[selected].Name,
		"type": infos[selected].Type,
	}).Info("physical device selected")

	surface, err := win.CreateSurface(instance.Get())
	if err != nil {
		return err
	}
	defer instance.DestroySurface(surface)

	device, err := vkr.NewDevice(instance.Devices()[selected], surface, vkr.DeviceOptions{
		VSync:           cfg.Renderer.VSync,
		SwapchainSize:   cfg.Renderer.SwapchainSize,
		FramebufferSize: win.FramebufferSize,
		DescriptorSets:  16,
	}, logger)
	if err != nil {
		return err
	}
	defer device.Destroy()

	world, err := core.NewWorld(cfg.World, logger)
	if err != nil {
		return err
	}
	camera := core.NewCamera(glm.Vec3{0, 0, 2*cfg.World.Size + 1}, -90, 0, device.SwapchainExtent().Aspect())
	in := input.New()

	registry := prometheus.NewRegistry()
	frames, err := metrics.NewFrames(appName, registry)
	if err != nil {
		return err
	}

	opts := core.RendererOptions{
		VertexShader:   vert,
		FragmentShader: frag,
		WorldFile:      cfg.World.File,
		Frames:         frames,
	}
	renderer, err := core.NewRenderer(device, world, camera, in, opts, logger)
	if err != nil {
		return err
	}

	timeService := core.NewTime(cfg.Time)
	defer timeService.Stop()
	logger.WithFields(logrus.Fields{
		"fps":   timeService.Fps(),
		"vsync": cfg.Renderer.VSync,
	}).Info("starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	programSync := sync.WaitGroup{}

	if cfg.Metrics.Address != "" {
		programSync.Add(1)
		go func() {
			defer programSync.Done()
			if err := metrics.Serve(ctx, cfg.Metrics.Address, registry, logger); err != nil {
				logger.WithError(err).Error("metrics endpoint")
			}
		}()
	}

	var (
		resized       atomic.Bool
		shadersDirty  atomic.Bool
		renderFailure = make(chan error, 1)
	)

	if watcher, err := assets.NewWatcher(library, cfg.Renderer.ShaderDirectory, logger); err != nil {
		logger.WithError(err).Warn("shader hot reload disabled")
	} else {
		watcher.OnReload = func(name string) {
			if assets.KindOf(name) == assets.KindShader {
				shadersDirty.Store(true)
			}
		}
		programSync.Add(1)
		go func() {
			defer programSync.Done()
			watcher.Run(ctx)
		}()
	}

	/* Renderer loop */
	programSync.Add(1)
	go func() {
		defer programSync.Done()
		for {
			select {
			case <-ctx.Done():
				logger.Debug("render loop exited")
				return
			case <-timeService.FpsTicker().C:
				if resized.Swap(false) {
					camera.SetAspect(win.FramebufferSize().Aspect())
					renderer.Resize()
				}
				if shadersDirty.Swap(false) {
					if next, err := rebuild(renderer, device, library, cfg.Renderer.Shaders, func(v, f []uint32) (*core.Renderer, error) {
						opts.VertexShader, opts.FragmentShader = v, f
						return core.NewRenderer(device, world, camera, in, opts, logger)
					}); err != nil {
						logger.WithError(err).Warn("shader reload failed, keeping current pipeline")
					} else {
						renderer = next
					}
				}
				if err := renderer.Update(timeService.Delta()); err != nil {
					logger.WithError(err).Error("update failed")
				}
				if err := renderer.Render(); err != nil {
					renderFailure <- err
					cancel()
					return
				}
				atomic.AddInt64(&frameCounter, 1)
			}
		}
	}()

	trampoline := &window.Trampoline{
		Input:    in,
		OnResize: func(width, height int32) { resized.Store(true) },
		OnQuit:   cancel,
	}

	titleTicker := time.NewTicker(time.Second)
	defer titleTicker.Stop()

	/* Event loop */
EventLoop:
	for {
		select {
		case <-ctx.Done():
			break EventLoop
		case <-titleTicker.C:
			count := atomic.SwapInt64(&frameCounter, 0)
			win.SetTitle(fmt.Sprintf("%s - %d fps", cfg.Window.Title, count))
		case <-timeService.EventTicker().C:
			win.PollEvents(trampoline)
		}
	}

	programSync.Wait()

	if err := device.WaitIdle(); err != nil {
		logger.WithError(err).Warn("device did not become idle")
	}
	if err := renderer.Destroy(); err != nil {
		logger.WithError(err).Warn("renderer destroy")
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return err
		}
	}

	select {
	case err := <-renderFailure:
		return err
	default:
	}
	return nil
}

// rebuild replaces the renderer with one using freshly loaded shaders.
// The current renderer survives when the new shaders are unusable.
func rebuild(current *core.Renderer, device *vkr.Device, library *assets.Library, names []string, create func(vert, frag []uint32) (*core.Renderer, error)) (*core.Renderer, error) {
	vert, frag, err := shaders(library, names)
	if err != nil {
		return nil, err
	}
	if err := device.WaitIdle(); err != nil {
		return nil, err
	}
	next, err := create(vert, frag)
	if err != nil {
		return nil, err
	}
	if err := current.Destroy(); err != nil {
		next.Destroy()
		return nil, err
	}
	return next, nil
}
