// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package persist

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/devblok/koruvox/octree"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

// Compression of an octree file, picked from its extension.
type Compression int

// Supported compressions.
const (
	None Compression = iota
	LZ4
	Zstd
)

// CompressionOf maps ".lz4" and ".zst" to their compression, anything else
// is stored raw.
func CompressionOf(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lz4":
		return LZ4
	case ".zst", ".zstd":
		return Zstd
	}
	return None
}

// Save writes the tree below cube to path.
func Save(path string, cube *octree.Cube) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	switch CompressionOf(path) {
	case LZ4:
		w := lz4.NewWriter(f)
		if err := Encode(w, cube); err != nil {
			return err
		}
		return w.Close()
	case Zstd:
		w, err := zstd.NewWriter(f)
		if err != nil {
			return err
		}
		if err := Encode(w, cube); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	default:
		return Encode(f, cube)
	}
}

// Load reads the tree stored at path. The file is memory mapped.
func Load(path string, size float32, position glm.Vec3) (*octree.Cube, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	var r io.Reader = io.NewSectionReader(m, 0, int64(m.Len()))
	switch CompressionOf(path) {
	case LZ4:
		r = lz4.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}
	return Decode(r, size, position)
}
