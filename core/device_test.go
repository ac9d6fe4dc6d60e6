// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	"github.com/devblok/koruvox/core"
)

func TestSelectPhysicalDevice(t *testing.T) {
	swapchain := []string{"VK_KHR_swapchain"}
	devices := []core.PhysicalDeviceInfo{
		{Name: "llvmpipe", Type: core.CPU, Extensions: swapchain},
		{Name: "intel", Type: core.IntegratedGPU, Extensions: swapchain},
		{Name: "broken", Type: core.DiscreteGPU, Invalid: true, Extensions: swapchain},
		{Name: "radeon", Type: core.DiscreteGPU, Extensions: swapchain},
	}

	cases := []struct {
		name      string
		devices   []core.PhysicalDeviceInfo
		preferred int
		expected  int
	}{
		{"preferred index", devices, 1, 1},
		{"automatic picks discrete", devices, -1, 3},
		{"out of range falls back", devices, 9, 3},
		{"no discrete", devices[:2], -1, 0},
		{"no suitable", []core.PhysicalDeviceInfo{{Name: "a"}, {Name: "b"}}, -1, 0},
		{"no devices", nil, 0, -1},
	}
	for _, c := range cases {
		if got := core.SelectPhysicalDevice(c.devices, c.preferred); got != c.expected {
			t.Errorf("%s: expected %d, got %d", c.name, c.expected, got)
		}
	}
}

func TestSuitable(t *testing.T) {
	if (core.PhysicalDeviceInfo{}).Suitable() {
		t.Error("device without swapchain extension is not suitable")
	}
	if !(core.PhysicalDeviceInfo{Extensions: []string{"VK_KHR_swapchain"}}).Suitable() {
		t.Error("device with swapchain extension is suitable")
	}
}
