// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/devblok/koruvox/gfx"
	vk "github.com/devblok/vulkan"
)

func TestFindMemoryType(t *testing.T) {
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	types := []vk.MemoryPropertyFlags{
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit),
		hostVisible,
	}

	idx, err := findMemoryType(types, 0x7, hostVisible)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 2 {
		t.Errorf("expected type 2, got %d", idx)
	}

	idx, err = findMemoryType(types, 0x7, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit))
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Errorf("expected first matching type 1, got %d", idx)
	}

	if _, err := findMemoryType(types, 0x3, hostVisible); err != ErrNoMemoryType {
		t.Errorf("expected ErrNoMemoryType when filtered out, got %v", err)
	}
}

func TestChoosePresentMode(t *testing.T) {
	all := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}
	cases := []struct {
		name      string
		available []vk.PresentMode
		vsync     bool
		expected  vk.PresentMode
	}{
		{"vsync", all, true, vk.PresentModeFifo},
		{"mailbox first", all, false, vk.PresentModeMailbox},
		{"immediate fallback", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}, false, vk.PresentModeImmediate},
		{"fifo only", []vk.PresentMode{vk.PresentModeFifo}, false, vk.PresentModeFifo},
	}
	for _, c := range cases {
		if got := choosePresentMode(c.available, c.vsync); got != c.expected {
			t.Errorf("%s: expected %v, got %v", c.name, c.expected, got)
		}
	}
}

func TestChooseImageCount(t *testing.T) {
	if got := chooseImageCount(3, 2, 8); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := chooseImageCount(1, 2, 8); got != 3 {
		t.Errorf("expected min+1, got %d", got)
	}
	if got := chooseImageCount(5, 1, 3); got != 3 {
		t.Errorf("expected max, got %d", got)
	}
	if got := chooseImageCount(16, 1, 0); got != 16 {
		t.Errorf("expected unbounded 16, got %d", got)
	}
}

func TestChooseExtent(t *testing.T) {
	min := gfx.Extent2D{Width: 1, Height: 1}
	max := gfx.Extent2D{Width: 4096, Height: 4096}

	current := gfx.Extent2D{Width: 800, Height: 600}
	if got := chooseExtent(current, min, max, gfx.Extent2D{Width: 10, Height: 10}); got != current {
		t.Errorf("expected surface extent, got %v", got)
	}

	undefined := gfx.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	got := chooseExtent(undefined, min, max, gfx.Extent2D{Width: 1280, Height: 720})
	if got != (gfx.Extent2D{Width: 1280, Height: 720}) {
		t.Errorf("expected window extent, got %v", got)
	}

	got = chooseExtent(undefined, min, max, gfx.Extent2D{Width: 0, Height: 9000})
	if got != (gfx.Extent2D{Width: 1, Height: 4096}) {
		t.Errorf("expected clamped extent, got %v", got)
	}
}

func TestSliceUint32(t *testing.T) {
	data := []byte{1, 0, 0, 0, 2, 0, 0, 0, 9}
	words := SliceUint32(data)
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0] != 1 || words[1] != 2 {
		t.Errorf("unexpected words %v", words)
	}
	if SliceUint32([]byte{1, 2}) != nil {
		t.Error("expected nil for short input")
	}
}

func TestCheck(t *testing.T) {
	if err := check("vk.Test()", vk.Success); err != nil {
		t.Errorf("expected nil for success, got %v", err)
	}

	err := check("vk.Test()", vk.ErrorOutOfDate)
	var vkErr *Error
	if !errors.As(err, &vkErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if vkErr.Result != vk.ErrorOutOfDate {
		t.Errorf("unexpected result %v", vkErr.Result)
	}
	if !strings.HasPrefix(err.Error(), "vk.Test(): ") {
		t.Errorf("expected call in message, got %q", err.Error())
	}
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}
