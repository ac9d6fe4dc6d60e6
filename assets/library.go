// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package assets loads shaders, textures and models from a set
// of sources, caching what was loaded and reloading on request.
package assets

import (
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/devblok/koruvox/model"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// package errors
var (
	ErrNotFound      = errors.New("asset not found")
	ErrInvalidShader = errors.New("not a SPIR-V binary")
	ErrUnknownKind   = errors.New("unknown asset kind")
)

// Kind is the type of an asset, derived from its file extension.
type Kind int

// Asset kinds
const (
	KindUnknown Kind = iota
	KindShader
	KindTexture
	KindModel
)

// KindOf classifies an asset name.
func KindOf(name string) Kind {
	if _, ok := ShaderStage(name); ok {
		return KindShader
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
		return KindTexture
	case ".dae":
		return KindModel
	}
	return KindUnknown
}

// ModelColor is the vertex color of imported models.
var ModelColor = glm.Vec3{0.8, 0.8, 0.8}

// Library is a cache of assets looked up from sources in order,
// the first source having an asset wins. Safe for concurrent use.
type Library struct {
	logger  logrus.FieldLogger
	sources []Source

	mutex    sync.RWMutex
	shaders  map[string][]uint32
	textures map[string]*Texture
	models   map[string]*model.Mesh
}

// NewLibrary creates a Library over sources.
func NewLibrary(logger logrus.FieldLogger, sources ...Source) *Library {
	return &Library{
		logger:   logger,
		sources:  sources,
		shaders:  make(map[string][]uint32),
		textures: make(map[string]*Texture),
		models:   make(map[string]*model.Mesh),
	}
}

// Shader returns SPIR-V code of the named shader.
func (l *Library) Shader(name string) ([]uint32, error) {
	l.mutex.RLock()
	code, ok := l.shaders[name]
	l.mutex.RUnlock()
	if ok {
		return code, nil
	}
	return l.loadShader(name)
}

// Texture returns the named texture.
func (l *Library) Texture(name string) (*Texture, error) {
	l.mutex.RLock()
	tex, ok := l.textures[name]
	l.mutex.RUnlock()
	if ok {
		return tex, nil
	}
	return l.loadTexture(name)
}

// Model returns the mesh of the named collada model.
func (l *Library) Model(name string) (*model.Mesh, error) {
	l.mutex.RLock()
	mesh, ok := l.models[name]
	l.mutex.RUnlock()
	if ok {
		return mesh, nil
	}
	return l.loadModel(name)
}

// Loaded reports whether name is cached.
func (l *Library) Loaded(name string) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	if _, ok := l.shaders[name]; ok {
		return true
	}
	if _, ok := l.textures[name]; ok {
		return true
	}
	_, ok := l.models[name]
	return ok
}

// Reload loads name again from the sources. On failure the previously
// loaded asset stays in place.
func (l *Library) Reload(name string) error {
	var err error
	switch KindOf(name) {
	case KindShader:
		_, err = l.loadShader(name)
	case KindTexture:
		_, err = l.loadTexture(name)
	case KindModel:
		_, err = l.loadModel(name)
	default:
		err = ErrUnknownKind
	}
	if err != nil {
		l.logger.WithError(err).WithField("asset", name).Warn("reload failed, keeping previous version")
		return err
	}
	l.logger.WithField("asset", name).Info("asset reloaded")
	return nil
}

// ShaderFiles lists the compiled shaders over all sources.
func (l *Library) ShaderFiles() ([]ShaderFile, error) {
	seen := make(map[string]bool)
	var files []ShaderFile
	for _, src := range l.sources {
		names, err := src.List()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			stage, ok := ShaderStage(name)
			if !ok || seen[name] {
				continue
			}
			seen[name] = true
			files = append(files, ShaderFile{Name: name, Stage: stage})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (l *Library) open(name string) (io.ReadCloser, error) {
	for _, src := range l.sources {
		r, err := src.Open(name)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		l.logger.WithFields(logrus.Fields{"asset": name, "source": src.String()}).Debug("asset opened")
		return r, nil
	}
	return nil, ErrNotFound
}

func (l *Library) read(name string) ([]byte, error) {
	r, err := l.open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (l *Library) loadShader(name string) ([]uint32, error) {
	data, err := l.read(name)
	if err != nil {
		return nil, err
	}
	code, err := decodeSPIRV(data)
	if err != nil {
		return nil, err
	}
	l.mutex.Lock()
	l.shaders[name] = code
	l.mutex.Unlock()
	return code, nil
}

func (l *Library) loadTexture(name string) (*Texture, error) {
	r, err := l.open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	tex, err := decodeTexture(r)
	if err != nil {
		return nil, err
	}
	l.mutex.Lock()
	l.textures[name] = tex
	l.mutex.Unlock()
	return tex, nil
}

func (l *Library) loadModel(name string) (*model.Mesh, error) {
	r, err := l.open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	mesh, err := model.ImportCollada(r, model.SolidColor(ModelColor))
	if err != nil {
		return nil, err
	}
	l.mutex.Lock()
	l.models[name] = mesh
	l.mutex.Unlock()
	return mesh, nil
}
