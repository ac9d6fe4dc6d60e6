// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the render graph device on Vulkan.
package vkr

import (
	"errors"
	"fmt"

	"github.com/devblok/koruvox/gfx"
	"github.com/devblok/koruvox/rendergraph"
	"github.com/devblok/koruvox/utility/pool"
	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"
)

// DeviceOptions configure the logical device and swapchain.
type DeviceOptions struct {
	// VSync selects FIFO presentation, otherwise MAILBOX or IMMEDIATE.
	VSync bool

	// SwapchainSize is the requested number of swapchain images,
	// clamped to what the surface supports.
	SwapchainSize uint32

	// FramebufferSize returns the window size in pixels, used when
	// the surface leaves the extent to the application.
	FramebufferSize func() gfx.Extent2D

	// DescriptorSets is the capacity of the descriptor pool.
	DescriptorSets uint32

	// CommandBuffers caps how many command buffers can be alive at once.
	CommandBuffers int
}

// Device is a logical Vulkan device presenting to one surface.
type Device struct {
	logger logrus.FieldLogger
	opts   DeviceOptions

	physical vk.PhysicalDevice
	surface  vk.Surface
	device   vk.Device

	graphicsQueueIndex uint32
	presentQueueIndex  uint32
	graphicsQueue      vk.Queue
	presentQueue       vk.Queue

	imageFormat     vk.Format
	imageColorspace vk.ColorSpace
	swapchain       vk.Swapchain
	images          []vk.Image
	views           []vk.ImageView
	extent          gfx.Extent2D

	commandPool    vk.CommandPool
	descriptorPool vk.DescriptorPool
	pipelineCache  vk.PipelineCache
	sampler        vk.Sampler
	allocator      *MemoryAllocator
	commands       *pool.Pool[CommandBuffer]

	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
}

var _ rendergraph.Device = (*Device)(nil)

// NewDevice creates the logical device, its queues, the swapchain and the
// long lived objects the render graph relies on.
func NewDevice(physical vk.PhysicalDevice, surface vk.Surface, opts DeviceOptions, logger logrus.FieldLogger) (*Device, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.SwapchainSize == 0 {
		opts.SwapchainSize = 3
	}
	if opts.DescriptorSets == 0 {
		opts.DescriptorSets = 64
	}
	if opts.CommandBuffers == 0 {
		opts.CommandBuffers = 64
	}
	d := &Device{
		logger:   logger.WithField("component", "vkr"),
		opts:     opts,
		physical: physical,
		surface:  surface,
	}

	commands, err := pool.New[CommandBuffer](opts.CommandBuffers, pool.WithLogger(d.logger))
	if err != nil {
		return nil, err
	}
	d.commands = commands

	steps := []func() error{
		d.selectQueues,
		d.createLogicalDevice,
		d.selectSurfaceFormat,
		func() error { return d.createSwapchain(vk.NullSwapchain) },
		d.createCommandPool,
		d.createDescriptorPool,
		d.createPipelineCache,
		d.createSampler,
		d.createSynchronization,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			d.Destroy()
			return nil, err
		}
	}
	d.allocator = NewMemoryAllocator(d.device, physical)

	d.logger.WithFields(logrus.Fields{
		"images": len(d.images),
		"extent": d.extent,
		"vsync":  opts.VSync,
	}).Info("vulkan device ready")
	return d, nil
}

func (d *Device) selectQueues() error {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(d.physical, &count, nil)
	if count == 0 {
		return errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queuefamilies on GPU")
	}
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(d.physical, &count, families)

	graphics, present := -1, -1
	for i := uint32(0); i < count; i++ {
		families[i].Deref()
		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(d.physical, i, d.surface, &supportsPresent)
		isGraphics := families[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		if isGraphics && supportsPresent.B() {
			graphics, present = int(i), int(i)
			break
		}
		if isGraphics && graphics < 0 {
			graphics = int(i)
		}
		if supportsPresent.B() && present < 0 {
			present = int(i)
		}
	}
	if graphics < 0 {
		return errors.New("vulkan error: could not find a suitable queue family for the target Vulkan mode")
	}
	if present < 0 {
		return errors.New("vulkan error: could not found separate queue with present capabilities")
	}
	d.graphicsQueueIndex = uint32(graphics)
	d.presentQueueIndex = uint32(present)
	return nil
}

func (d *Device) createLogicalDevice() error {
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.graphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1},
	}}
	if d.presentQueueIndex != d.graphicsQueueIndex {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: d.presentQueueIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		})
	}

	extensions := []string{vk.KhrSwapchainExtensionName}
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vk.True,
			FillModeNonSolid:  vk.True,
		}},
	}
	var device vk.Device
	if err := check("vk.CreateDevice()", vk.CreateDevice(d.physical, &dci, nil, &device)); err != nil {
		return err
	}
	d.device = device

	vk.GetDeviceQueue(device, d.graphicsQueueIndex, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(device, d.presentQueueIndex, 0, &d.presentQueue)
	return nil
}

func (d *Device) selectSurfaceFormat() error {
	var count uint32
	if err := check("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.surface, &count, nil)); err != nil {
		return err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := check("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.surface, &count, formats)); err != nil {
		return err
	}
	if count == 0 {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): no surface formats")
	}

	for i := range formats {
		formats[i].Deref()
	}
	chosen := formats[0]
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Unorm {
			chosen = f
			break
		}
	}
	d.imageFormat = chosen.Format
	if d.imageFormat == vk.FormatUndefined {
		d.imageFormat = vk.FormatB8g8r8a8Unorm
	}
	d.imageColorspace = chosen.ColorSpace
	return nil
}

func (d *Device) createCommandPool() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.graphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	return check("vk.CreateCommandPool()", vk.CreateCommandPool(d.device, &cpci, nil, &d.commandPool))
}

func (d *Device) createDescriptorPool() error {
	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: d.opts.DescriptorSets},
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: d.opts.DescriptorSets},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: d.opts.DescriptorSets},
	}
	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       d.opts.DescriptorSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}
	return check("vk.CreateDescriptorPool()", vk.CreateDescriptorPool(d.device, &dpci, nil, &d.descriptorPool))
}

func (d *Device) createPipelineCache() error {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	return check("vk.CreatePipelineCache()", vk.CreatePipelineCache(d.device, &pcci, nil, &d.pipelineCache))
}

func (d *Device) createSampler() error {
	sci := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.True,
		MaxAnisotropy:           16,
		BorderColor:             vk.BorderColorFloatOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}
	return check("vk.CreateSampler()", vk.CreateSampler(d.device, &sci, nil, &d.sampler))
}

func (d *Device) createSynchronization() error {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	if err := check("vk.CreateSemaphore()", vk.CreateSemaphore(d.device, &sci, nil, &d.imageAvailable)); err != nil {
		return err
	}
	return check("vk.CreateSemaphore()", vk.CreateSemaphore(d.device, &sci, nil, &d.renderFinished))
}

// Get returns the vulkan device handle.
func (d *Device) Get() vk.Device { return d.device }

// SwapchainExtent implements rendergraph.Device
func (d *Device) SwapchainExtent() gfx.Extent2D { return d.extent }

// SwapchainFormat implements rendergraph.Device
func (d *Device) SwapchainFormat() vk.Format { return d.imageFormat }

// SwapchainImageViews implements rendergraph.Device
func (d *Device) SwapchainImageViews() []rendergraph.ImageView {
	views := make([]rendergraph.ImageView, len(d.views))
	for i, v := range d.views {
		views[i] = v
	}
	return views
}

// CreateImage implements rendergraph.Device
func (d *Device) CreateImage(desc rendergraph.ImageDesc) (rendergraph.Image, error) {
	img, err := NewImage(d.device, gfx.Extent3D{Width: desc.Extent.Width, Height: desc.Extent.Height, Depth: 1}, desc, d.allocator)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", desc.Name, err)
	}
	return img, nil
}

// CreateBuffer implements rendergraph.Device
func (d *Device) CreateBuffer(desc rendergraph.BufferDesc) (rendergraph.Buffer, error) {
	buf, err := NewBuffer(d.device, desc.Size, desc.Usage, d.allocator)
	if err != nil {
		return nil, fmt.Errorf("buffer %s: %w", desc.Name, err)
	}
	return buf, nil
}

// WaitIdle implements rendergraph.Device
func (d *Device) WaitIdle() error {
	return check("vk.DeviceWaitIdle()", vk.DeviceWaitIdle(d.device))
}

// Destroy releases everything the device created. Objects created
// through it must be released first.
func (d *Device) Destroy() {
	if d.device == nil {
		return
	}
	vk.DeviceWaitIdle(d.device)

	if d.imageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(d.device, d.imageAvailable, nil)
	}
	if d.renderFinished != vk.NullSemaphore {
		vk.DestroySemaphore(d.device, d.renderFinished, nil)
	}
	if d.sampler != nil {
		vk.DestroySampler(d.device, d.sampler, nil)
	}
	if d.pipelineCache != nil {
		vk.DestroyPipelineCache(d.device, d.pipelineCache, nil)
	}
	if d.descriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(d.device, d.descriptorPool, nil)
	}
	if d.commandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.device, d.commandPool, nil)
	}
	d.destroySwapchainViews()
	if d.swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(d.device, d.swapchain, nil)
	}
	vk.DestroyDevice(d.device, nil)
	d.device = nil
}
