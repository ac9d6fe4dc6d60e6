// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/devblok/koruvox/utility/kar"
	"github.com/gobuffalo/packr"
)

// Source is somewhere assets can be read from.
type Source interface {
	// Open returns the named asset. Implementations return ErrNotFound
	// when the asset is not present.
	Open(name string) (io.ReadCloser, error)

	// List returns the names of every asset in the source.
	List() ([]string, error)

	String() string
}

// Dir reads assets from a directory on disk.
func Dir(dir string) Source {
	return dirSource(dir)
}

type dirSource string

func (d dirSource) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(string(d), filepath.FromSlash(name)))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return f, err
}

func (d dirSource) List() ([]string, error) {
	var names []string
	err := filepath.Walk(string(d), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(string(d), path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	return names, err
}

func (d dirSource) String() string { return "dir:" + string(d) }

// Archive reads assets from an opened kar archive.
func Archive(ar *kar.Archive) Source {
	return archiveSource{ar}
}

type archiveSource struct {
	archive *kar.Archive
}

func (a archiveSource) Open(name string) (io.ReadCloser, error) {
	r, err := a.archive.Open(name)
	if err == kar.ErrNotExist {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(r), nil
}

func (a archiveSource) List() ([]string, error) {
	return a.archive.Names(), nil
}

func (a archiveSource) String() string { return "kar" }

// Box reads assets from a packr box.
func Box(box packr.Box) Source {
	return boxSource{box}
}

// Defaults is the box of shaders built into the binary. It holds the
// compiled octree shaders when go generate was run before packing.
func Defaults() Source {
	return Box(packr.NewBox("./shaders"))
}

type boxSource struct {
	box packr.Box
}

func (b boxSource) Open(name string) (io.ReadCloser, error) {
	if !b.box.Has(name) {
		return nil, ErrNotFound
	}
	data, err := b.box.Find(name)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b boxSource) List() ([]string, error) {
	names := b.box.List()
	sort.Strings(names)
	return names, nil
}

func (b boxSource) String() string { return "box:" + b.box.Path }
