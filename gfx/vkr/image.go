// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/koruvox/gfx"
	"github.com/devblok/koruvox/rendergraph"
	vk "github.com/devblok/vulkan"
)

// NewImage creates a device local image and its view.
func NewImage(dev vk.Device, extent gfx.Extent3D, desc rendergraph.ImageDesc, ma *MemoryAllocator) (*Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  extent.Depth,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        desc.Format,
		Tiling:        desc.Tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         desc.Usage,
		SharingMode:   vk.SharingModeExclusive,
		Samples:       desc.Samples,
	}

	var image vk.Image
	if err := check("vk.CreateImage()", vk.CreateImage(dev, &createInfo, nil, &image)); err != nil {
		return nil, err
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, image, &req)
	req.Deref()

	memory, err := ma.Malloc(req, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(dev, image, nil)
		return nil, err
	}
	if err := check("vk.BindImageMemory()", vk.BindImageMemory(dev, image, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		vk.DestroyImage(dev, image, nil)
		memory.Release()
		return nil, err
	}

	view, err := newImageView(dev, image, desc.Format, desc.Aspect)
	if err != nil {
		vk.DestroyImage(dev, image, nil)
		memory.Release()
		return nil, err
	}

	return &Image{
		device: dev,
		image:  image,
		view:   view,
		memory: memory,
	}, nil
}

func newImageView(dev vk.Device, image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	if err := check("vk.CreateImageView()", vk.CreateImageView(dev, &ivci, nil, &view)); err != nil {
		return nil, err
	}
	return view, nil
}

// Image implements and abstracts vulkan image primitive.
type Image struct {
	device vk.Device
	image  vk.Image
	view   vk.ImageView
	memory Memory
}

// Mem returns the underlying memory of the Image.
func (i *Image) Mem() *Memory {
	return &i.memory
}

// Get returns the vulkan image handle.
func (i *Image) Get() vk.Image {
	return i.image
}

// View implements rendergraph.Image, the value is a vk.ImageView.
func (i *Image) View() rendergraph.ImageView {
	return i.view
}

// Release destroys the view, the image and its memory.
func (i *Image) Release() {
	vk.DestroyImageView(i.device, i.view, nil)
	vk.DestroyImage(i.device, i.image, nil)
	i.memory.Release()
}
