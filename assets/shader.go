// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import (
	"encoding/binary"
	"path"
	"strings"

	vk "github.com/devblok/vulkan"
)

//go:generate glslangValidator -V shaders/octree.vert -o shaders/octree.vert.spv
//go:generate glslangValidator -V shaders/octree.frag -o shaders/octree.frag.spv

const (
	shaderSuffix = ".spv"
	spirvMagic   = 0x07230203
)

// ShaderFile is a compiled shader found in a source.
type ShaderFile struct {
	Name  string
	Stage vk.ShaderStageFlagBits
}

// ShaderStage determines the stage from a file name. The name must have
// exactly two dots, the first part being the name of the shader, the second
// the stage and the third the .spv extension marking it compiled.
func ShaderStage(name string) (vk.ShaderStageFlagBits, bool) {
	base := path.Base(name)
	if !strings.HasSuffix(base, shaderSuffix) {
		return 0, false
	}
	nodes := strings.Split(strings.TrimSuffix(base, shaderSuffix), ".")
	if len(nodes) != 2 || nodes[0] == "" {
		return 0, false
	}
	switch nodes[1] {
	case "vert":
		return vk.ShaderStageVertexBit, true
	case "frag":
		return vk.ShaderStageFragmentBit, true
	case "comp":
		return vk.ShaderStageComputeBit, true
	}
	return 0, false
}

func decodeSPIRV(data []byte) ([]uint32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, ErrInvalidShader
	}
	code := make([]uint32, len(data)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if code[0] != spirvMagic {
		return nil, ErrInvalidShader
	}
	return code, nil
}
