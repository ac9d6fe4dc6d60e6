// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"time"

	"github.com/devblok/koruvox/input"
	"github.com/devblok/koruvox/metrics"
	"github.com/devblok/koruvox/model"
	"github.com/devblok/koruvox/octree"
	"github.com/devblok/koruvox/rendergraph"
	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
)

// RendererOptions configure the octree renderer
type RendererOptions struct {
	// VertexShader and FragmentShader are SPIR-V code.
	VertexShader   []uint32
	FragmentShader []uint32

	// WorldFile is where ctrl-S saves and ctrl-L loads the world.
	WorldFile string

	Wireframe bool
	Frames    *metrics.Frames
}

// Renderer draws the world through a render graph and reacts to input.
type Renderer struct {
	logger logrus.FieldLogger
	device rendergraph.Device
	graph  *rendergraph.Graph
	world  *World
	camera *Camera
	input  *input.Input
	opts   RendererOptions

	back     *rendergraph.TextureResource
	depth    *rendergraph.TextureResource
	vertices *rendergraph.BufferResource
	indices  *rendergraph.BufferResource
	uniform  *rendergraph.BufferResource

	meshVersion uint64
}

// NewRenderer declares and compiles the render graph of the world.
func NewRenderer(dev rendergraph.Device, world *World, camera *Camera, in *input.Input, opts RendererOptions, logger logrus.FieldLogger) (*Renderer, error) {
	if len(opts.VertexShader) == 0 || len(opts.FragmentShader) == 0 {
		return nil, errors.New("renderer needs a vertex and a fragment shader")
	}
	r := &Renderer{
		logger: logger.WithField("component", "renderer"),
		device: dev,
		graph:  rendergraph.New(dev, logger),
		world:  world,
		camera: camera,
		input:  in,
		opts:   opts,
	}
	if err := r.declare(); err != nil {
		return nil, err
	}
	if err := r.uploadMesh(); err != nil {
		return nil, err
	}
	if err := rendergraph.Upload(r.uniform, []model.Uniform{r.uniformData()}); err != nil {
		return nil, err
	}
	if err := r.graph.Compile(r.back); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) declare() error {
	var err error
	r.back, err = r.graph.AddTexture("back buffer", rendergraph.BackBuffer, vk.FormatUndefined, 0, 0, 0, nil)
	if err != nil {
		return err
	}
	r.depth, err = r.graph.AddTexture("depth buffer", rendergraph.DepthStencilBuffer, vk.FormatD32Sfloat, 0, 0, 0, nil)
	if err != nil {
		return err
	}

	r.vertices, err = r.graph.AddBuffer("octree vertices", rendergraph.VertexBuffer, nil)
	if err != nil {
		return err
	}
	r.vertices.SetVertexLayout(model.VertexStride, model.VertexAttributes())

	r.indices, err = r.graph.AddBuffer("octree indices", rendergraph.IndexBuffer, nil)
	if err != nil {
		return err
	}

	r.uniform, err = r.graph.AddBuffer("matrices", rendergraph.UniformBuffer, func(b *rendergraph.BufferResource) {
		if err := rendergraph.Upload(b, []model.Uniform{r.uniformData()}); err != nil {
			r.logger.WithError(err).Debug("uniform update skipped")
		}
	})
	if err != nil {
		return err
	}

	matrices, err := r.graph.AddResourceDescriptor("matrices",
		rendergraph.UniformBufferLayout(vk.ShaderStageFlags(vk.ShaderStageVertexBit)), nil,
		func(w *rendergraph.DescriptorWriter) {
			w.Buffer(0, vk.DescriptorTypeUniformBuffer, r.uniform)
		})
	if err != nil {
		return err
	}

	pipeline, err := r.graph.AddGraphicsPipeline("octree", func(b *rendergraph.PipelineBuilder) {
		b.AddShader(vk.ShaderStageVertexBit, r.opts.VertexShader).
			AddShader(vk.ShaderStageFragmentBit, r.opts.FragmentShader).
			SetCulling(vk.CullModeFlags(vk.CullModeNone), vk.FrontFaceClockwise)
		if r.opts.Wireframe {
			b.SetPolygonMode(vk.PolygonModeLine)
		}
	})
	if err != nil {
		return err
	}

	_, err = r.graph.AddGraphicsPass("octree", func(b *rendergraph.StageBuilder) {
		b.WritesTo(r.back).
			WritesTo(r.depth).
			BindBuffer(r.vertices).
			BindBuffer(r.indices).
			BindPipeline(pipeline).
			AddDescriptorLayout(matrices).
			SetDepthOptions(true, true).
			SetClearsScreen(true).
			SetClearColor([4]float32{0.1, 0.1, 0.15, 1}).
			SetOnRecord(func(_ *rendergraph.PhysicalStage, cmd rendergraph.CommandBuffer) {
				if n := r.indices.Count(); n > 0 {
					cmd.DrawIndexed(n, 1, 0, 0, 0)
				}
			})
	})
	return err
}

func (r *Renderer) uniformData() model.Uniform {
	extent := r.device.SwapchainExtent()
	if !extent.Empty() {
		r.camera.SetAspect(extent.Aspect())
	}
	return model.Uniform{
		Model:      glm.Ident4(),
		View:       r.camera.View(),
		Projection: r.camera.Projection(),
	}
}

// uploadMesh requests new vertex and index data when the world changed.
func (r *Renderer) uploadMesh() error {
	version := r.world.Version()
	if version == r.meshVersion {
		return nil
	}
	if r.vertices.Pending() || r.indices.Pending() {
		return nil
	}

	mesh := r.world.Mesh()
	if err := rendergraph.Upload(r.vertices, mesh.Vertices); err != nil {
		return err
	}
	if err := rendergraph.Upload(r.indices, mesh.Indices); err != nil {
		return err
	}
	r.meshVersion = version
	r.opts.Frames.Triangles(mesh.Triangles())
	r.logger.WithFields(logrus.Fields{
		"vertices":  len(mesh.Vertices),
		"triangles": mesh.Triangles(),
	}).Debug("world mesh rebuilt")
	return nil
}

// Update applies input for a frame that is dt after the previous one.
func (r *Renderer) Update(dt time.Duration) error {
	r.handleInput(dt)
	return r.uploadMesh()
}

func (r *Renderer) handleInput(dt time.Duration) {
	in := r.input
	ctrl := in.IsKeyPressed(input.KeyCtrl)

	if in.WasKeyPressedOnce(input.KeyN) {
		r.world.Regenerate()
	}
	if in.WasKeyPressedOnce(input.KeyR) {
		r.world.Rotate(octree.AxisY, 1)
	}
	if ctrl && in.WasKeyPressedOnce(input.KeyS) {
		if err := r.world.Save(r.opts.WorldFile); err != nil {
			r.logger.WithError(err).Error("saving world")
		}
	}
	if ctrl && in.WasKeyPressedOnce(input.KeyL) {
		if err := r.world.Load(r.opts.WorldFile); err != nil {
			r.logger.WithError(err).Error("loading world, keeping the current one")
		}
	}

	delta := in.CursorDelta()
	if in.IsMouseButtonPressed(input.MouseRight) {
		r.camera.Rotate(delta.X(), delta.Y())
	}

	if !ctrl {
		axis := func(positive, negative input.Key) float32 {
			var v float32
			if in.IsKeyPressed(positive) {
				v++
			}
			if in.IsKeyPressed(negative) {
				v--
			}
			return v
		}
		stick := in.Gamepad.Axis(0)
		forward := axis(input.KeyW, input.KeyS) - stick.Y()
		right := axis(input.KeyD, input.KeyA) + stick.X()
		up := axis(input.KeySpace, input.KeyShift)
		r.camera.Move(forward, right, up, float32(dt.Seconds()))
	}

	if in.WasMouseButtonPressedOnce(input.MouseLeft) {
		r.pick()
	}
}

func (r *Renderer) pick() {
	hit, ok := r.world.Pick(r.camera.Position(), r.camera.Front())
	if !ok {
		r.logger.Info("ray hit nothing")
		return
	}
	corner, _ := hit.NearestCorner()
	edge, _ := hit.NearestEdge()
	r.logger.WithFields(logrus.Fields{
		"cube":     hit.Cube().Position(),
		"size":     hit.Cube().Size(),
		"face":     hit.Face(),
		"corner":   corner,
		"edge":     edge,
		"distance": hit.DistanceToIntersection(),
	}).Info("ray hit cube")
}

// Render draws one frame.
func (r *Renderer) Render() error {
	start := time.Now()
	if err := r.graph.Render(); err != nil {
		r.opts.Frames.Error("render")
		return err
	}
	r.opts.Frames.Frame(time.Since(start))
	return nil
}

// Resize schedules swapchain recreation for the next frame.
func (r *Renderer) Resize() {
	r.graph.NotifyResize()
	r.opts.Frames.Recreated()
}

// Graph returns the render graph.
func (r *Renderer) Graph() *rendergraph.Graph {
	return r.graph
}

// Destroy releases everything the render graph created.
func (r *Renderer) Destroy() error {
	return r.graph.Destroy()
}
