// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// Instance is an initialised Vulkan instance.
type Instance struct {
	instance vk.Instance
	devices  []vk.PhysicalDevice
}

// NewInstance loads Vulkan through procAddr, or the system loader when
// it is nil, and creates an instance with the given extensions.
func NewInstance(procAddr unsafe.Pointer, name string, extensions []string, validation bool) (*Instance, error) {
	var layers []string
	if validation {
		layers = append(layers, validationLayer)
		extensions = append(extensions, "VK_EXT_debug_report")
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.InstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         vk.MakeVersion(1, 0, 0),
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   safeString(name),
			PEngineName:        safeString("koruvox"),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.New("vk.CreateInstance(): " + err.Error())
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.New("vk.InitInstance(): " + err.Error())
	}

	devices, err := PhysicalDevices(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}

	return &Instance{
		instance: instance,
		devices:  devices,
	}, nil
}

// PhysicalDevices enumerates the devices of an instance.
func PhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %w", err)
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, devices)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %w", err)
	}
	return devices, nil
}

// Get returns the instance handle.
func (i *Instance) Get() vk.Instance {
	return i.instance
}

// Devices returns the physical devices in enumeration order.
func (i *Instance) Devices() []vk.PhysicalDevice {
	return i.devices
}

// DevicesInfo describes every physical device of the instance.
func (i *Instance) DevicesInfo() []PhysicalDeviceInfo {
	infos := make([]PhysicalDeviceInfo, len(i.devices))
	for idx, dev := range i.devices {
		infos[idx] = DeviceInfo(dev)
		infos[idx].Index = idx
	}
	return infos
}

// Destroy destroys the instance
func (i *Instance) Destroy() {
	i.devices = nil
	vk.DestroyInstance(i.instance, nil)
}

// DestroySurface destroys a surface created for this instance.
func (i *Instance) DestroySurface(surface vk.Surface) {
	vk.DestroySurface(i.instance, surface, nil)
}

func safeString(s string) string {
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}
