// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	vk "github.com/devblok/vulkan"
)

// DeviceType classifies a physical device.
type DeviceType string

// Device types, in order of preference.
const (
	DiscreteGPU   DeviceType = "discrete"
	IntegratedGPU DeviceType = "integrated"
	VirtualGPU    DeviceType = "virtual"
	CPU           DeviceType = "cpu"
	OtherDevice   DeviceType = "other"
)

// PhysicalDeviceInfo describes a physical device
type PhysicalDeviceInfo struct {
	Index         int        `json:"index"`
	ID            int        `json:"id"`
	VendorID      int        `json:"vendor_id"`
	DriverVersion int        `json:"driver_version"`
	Name          string     `json:"name"`
	Type          DeviceType `json:"type"`
	Invalid       bool       `json:"invalid,omitempty"`
	Extensions    []string   `json:"extensions"`
	Layers        []string   `json:"layers,omitempty"`
	Memory        uint64     `json:"memory"`
}

// DeviceInfo queries the properties of one device.
func DeviceInfo(dev vk.PhysicalDevice) PhysicalDeviceInfo {
	var info PhysicalDeviceInfo

	var numExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(dev, "", &numExtensions, nil)); err != nil {
		info.Invalid = true
	}
	extensions := make([]vk.ExtensionProperties, numExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(dev, "", &numExtensions, extensions)); err != nil {
		info.Invalid = true
	}
	for _, ext := range extensions {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	var numLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(dev, &numLayers, nil)); err != nil {
		info.Invalid = true
	}
	layers := make([]vk.LayerProperties, numLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(dev, &numLayers, layers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range layers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(dev, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		memoryProperties.MemoryHeaps[iMem].Deref()
		info.Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(dev, &properties)
	properties.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DriverVersion = int(properties.DriverVersion)
	info.Type = deviceType(properties.DeviceType)
	return info
}

func deviceType(t vk.PhysicalDeviceType) DeviceType {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return DiscreteGPU
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return IntegratedGPU
	case vk.PhysicalDeviceTypeVirtualGpu:
		return VirtualGPU
	case vk.PhysicalDeviceTypeCpu:
		return CPU
	}
	return OtherDevice
}

// Suitable reports whether the device can present octree frames.
func (i PhysicalDeviceInfo) Suitable() bool {
	if i.Invalid {
		return false
	}
	for _, ext := range i.Extensions {
		if ext == vk.KhrSwapchainExtensionName {
			return true
		}
	}
	return false
}

// SelectPhysicalDevice returns the device to use. A valid preferred index
// wins, otherwise the first suitable discrete GPU, then the first suitable
// device, then device 0. It returns -1 when there are no devices.
func SelectPhysicalDevice(devices []PhysicalDeviceInfo, preferred int) int {
	if len(devices) == 0 {
		return -1
	}
	if preferred >= 0 && preferred < len(devices) {
		return preferred
	}
	for idx, d := range devices {
		if d.Type == DiscreteGPU && d.Suitable() {
			return idx
		}
	}
	for idx, d := range devices {
		if d.Suitable() {
			return idx
		}
	}
	return 0
}
