// Package renderer draws the particle cloud with one instanced draw call.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/handcloud/internal/animator"
	"github.com/Faultbox/handcloud/internal/engine/camera"
	"github.com/Faultbox/handcloud/internal/engine/renderer/shaders"
	"github.com/Faultbox/handcloud/internal/engine/shader"
	"github.com/Faultbox/handcloud/internal/logger"
	"github.com/Faultbox/handcloud/pkg/math"
)

const mat4Size = int(unsafe.Sizeof(math.Mat4{}))

// Config holds renderer configuration.
type Config struct {
	Width        int
	Height       int
	MaxParticles int // initial instance buffer capacity; it grows on demand
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config

	program *shader.Program

	quadVAO     uint32
	quadVBO     uint32
	instanceVBO uint32
	capacity    int

	models []math.Mat4
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	logger.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	// Additive blending without depth writes: overlapping particles glow.
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	gl.Enable(gl.MULTISAMPLE)
	gl.ClearColor(0.02, 0.02, 0.05, 1.0)

	var err error
	r.program, err = shader.NewProgram(shaders.ParticleVertexShader, shaders.ParticleFragmentShader,
		"uProjection", "uView", "uGroup", "uColor", "uEmissive")
	if err != nil {
		return nil, fmt.Errorf("failed to create particle program: %w", err)
	}

	r.createBuffers()
	r.ensureCapacity(cfg.MaxParticles)
	r.Resize(cfg.Width, cfg.Height)

	return r, nil
}

// createBuffers sets up the shared quad and the per-instance matrix stream.
func (r *Renderer) createBuffers() {
	corners := []float32{
		-1, -1,
		1, -1,
		-1, 1,
		1, 1,
	}

	gl.GenVertexArrays(1, &r.quadVAO)
	gl.BindVertexArray(r.quadVAO)

	gl.GenBuffers(1, &r.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(corners)*4, gl.Ptr(corners), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)

	// A mat4 attribute spans four vec4 locations, each advancing per instance.
	gl.GenBuffers(1, &r.instanceVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	for col := uint32(0); col < 4; col++ {
		loc := 1 + col
		gl.EnableVertexAttribArray(loc)
		gl.VertexAttribPointerWithOffset(loc, 4, gl.FLOAT, false, int32(mat4Size), uintptr(col*16))
		gl.VertexAttribDivisor(loc, 1)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// ensureCapacity grows the instance buffer to hold at least n matrices.
func (r *Renderer) ensureCapacity(n int) {
	if n <= r.capacity {
		return
	}
	capacity := max(n, 2*r.capacity)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	gl.BufferData(gl.ARRAY_BUFFER, capacity*mat4Size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	r.capacity = capacity
	logger.Debug("instance buffer resized", zap.Int("capacity", capacity))
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &r.quadVAO)
	}
	if r.quadVBO != 0 {
		gl.DeleteBuffers(1, &r.quadVBO)
	}
	if r.instanceVBO != 0 {
		gl.DeleteBuffers(1, &r.instanceVBO)
	}
	if r.program != nil {
		r.program.Delete()
	}
}

// Resize handles window resize. width and height are drawable pixels.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// DrawFrame uploads the instance matrices and draws every particle.
func (r *Renderer) DrawFrame(f animator.Frame, cam *camera.Camera) {
	r.models = f.Matrices(r.models[:0])
	n := len(r.models)
	if n == 0 {
		return
	}
	r.ensureCapacity(n)

	gl.BindBuffer(gl.ARRAY_BUFFER, r.instanceVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, n*mat4Size, gl.Ptr(&r.models[0]))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.program.Use()
	r.program.SetMat4("uProjection", cam.ProjectionMatrix())
	r.program.SetMat4("uView", cam.ViewMatrix())
	r.program.SetMat4("uGroup", f.Group.Matrix())
	r.program.SetVec3("uColor", f.Material.Color.Array())
	r.program.SetVec3("uEmissive", f.Material.Emissive.Array())

	gl.BindVertexArray(r.quadVAO)
	gl.DrawArraysInstanced(gl.TRIANGLE_STRIP, 0, 4, int32(n))
	gl.BindVertexArray(0)
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	return pixels, w, h
}
