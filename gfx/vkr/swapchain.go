// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"math"

	"github.com/devblok/koruvox/gfx"
	"github.com/devblok/koruvox/rendergraph"
	vk "github.com/devblok/vulkan"
)

// choosePresentMode returns FIFO with vsync, otherwise the first of
// MAILBOX and IMMEDIATE the surface offers. FIFO is always available.
func choosePresentMode(available []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, want := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, mode := range available {
			if mode == want {
				return mode
			}
		}
	}
	return vk.PresentModeFifo
}

// chooseImageCount clamps the requested count to the surface limits.
// A max of zero means no upper limit.
func chooseImageCount(requested, min, max uint32) uint32 {
	count := requested
	if count < min+1 {
		count = min + 1
	}
	if max > 0 && count > max {
		count = max
	}
	return count
}

// chooseExtent uses the surface extent unless the surface leaves it to
// the application, in which case fallback is clamped to the limits.
func chooseExtent(current, min, max, fallback gfx.Extent2D) gfx.Extent2D {
	if current.Width != math.MaxUint32 {
		return current
	}
	clamp := func(v, lo, hi uint32) uint32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return gfx.Extent2D{
		Width:  clamp(fallback.Width, min.Width, max.Width),
		Height: clamp(fallback.Height, min.Height, max.Height),
	}
}

func toExtent(e vk.Extent2D) gfx.Extent2D {
	e.Deref()
	return gfx.Extent2D{Width: e.Width, Height: e.Height}
}

func (d *Device) presentModes() ([]vk.PresentMode, error) {
	var count uint32
	if err := check("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.surface, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := check("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.surface, &count, modes)); err != nil {
		return nil, err
	}
	return modes, nil
}

func (d *Device) createSwapchain(oldSwapchain vk.Swapchain) error {
	var caps vk.SurfaceCapabilities
	if err := check("vk.GetPhysicalDeviceSurfaceCapabilities()", vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, d.surface, &caps)); err != nil {
		return err
	}
	caps.Deref()

	var fallback gfx.Extent2D
	if d.opts.FramebufferSize != nil {
		fallback = d.opts.FramebufferSize()
	}
	d.extent = chooseExtent(toExtent(caps.CurrentExtent), toExtent(caps.MinImageExtent), toExtent(caps.MaxImageExtent), fallback)

	modes, err := d.presentModes()
	if err != nil {
		return err
	}
	presentMode := choosePresentMode(modes, d.opts.VSync)

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for _, flag := range compositeAlphaFlags {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	preTransform := vk.SurfaceTransformIdentityBit
	if caps.SupportedTransforms&vk.SurfaceTransformFlags(vk.SurfaceTransformIdentityBit) == 0 {
		preTransform = caps.CurrentTransform
	}

	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         d.surface,
		MinImageCount:   chooseImageCount(d.opts.SwapchainSize, caps.MinImageCount, caps.MaxImageCount),
		ImageFormat:     d.imageFormat,
		ImageColorSpace: d.imageColorspace,
		ImageExtent: vk.Extent2D{
			Width:  d.extent.Width,
			Height: d.extent.Height,
		},
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		OldSwapchain:     oldSwapchain,
	}
	if d.graphicsQueueIndex != d.presentQueueIndex {
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = 2
		scci.PQueueFamilyIndices = []uint32{d.graphicsQueueIndex, d.presentQueueIndex}
	}

	var swapchain vk.Swapchain
	if err := check("vk.CreateSwapchain()", vk.CreateSwapchain(d.device, &scci, nil, &swapchain)); err != nil {
		return err
	}
	if oldSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(d.device, oldSwapchain, nil)
	}
	d.swapchain = swapchain

	var numImages uint32
	if err := check("vk.GetSwapchainImages()", vk.GetSwapchainImages(d.device, d.swapchain, &numImages, nil)); err != nil {
		return err
	}
	d.images = make([]vk.Image, numImages)
	if err := check("vk.GetSwapchainImages()", vk.GetSwapchainImages(d.device, d.swapchain, &numImages, d.images)); err != nil {
		return err
	}

	d.views = make([]vk.ImageView, 0, numImages)
	for _, image := range d.images {
		view, err := newImageView(d.device, image, d.imageFormat, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return err
		}
		d.views = append(d.views, view)
	}
	return nil
}

func (d *Device) destroySwapchainViews() {
	for _, view := range d.views {
		vk.DestroyImageView(d.device, view, nil)
	}
	d.views = nil
}

// RecreateSwapchain implements rendergraph.Device
func (d *Device) RecreateSwapchain() error {
	if err := d.WaitIdle(); err != nil {
		return err
	}
	d.destroySwapchainViews()
	if err := d.createSwapchain(d.swapchain); err != nil {
		return err
	}
	d.logger.WithField("extent", d.extent).Debug("swapchain recreated")
	return nil
}

// AcquireNextImage implements rendergraph.Device
func (d *Device) AcquireNextImage() (uint32, error) {
	var idx uint32
	result := vk.AcquireNextImage(d.device, d.swapchain, math.MaxUint64, d.imageAvailable, vk.NullFence, &idx)
	switch result {
	case vk.Success, vk.Suboptimal:
		return idx, nil
	case vk.ErrorOutOfDate:
		return 0, rendergraph.ErrOutOfDate
	}
	return 0, check("vk.AcquireNextImage()", result)
}

// Present implements rendergraph.Device
func (d *Device) Present(imageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{d.renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{d.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	result := vk.QueuePresent(d.presentQueue, &presentInfo)
	switch result {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return rendergraph.ErrOutOfDate
	}
	return check("vk.QueuePresent()", result)
}
