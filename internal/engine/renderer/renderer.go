// Package renderer owns the OpenGL state and the scene shader program.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/internal/engine/shader"
	"github.com/Faultbox/chungus/internal/logger"
	"github.com/Faultbox/chungus/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer handles frame setup on the GL context.
type Renderer struct {
	config  Config
	backend *gpu.GL
	program *gpu.Program
	log     *zap.Logger
}

// New initializes OpenGL and compiles the scene program.
// It must be called after the OpenGL context is created.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:  cfg,
		backend: gpu.NewGL(),
		log:     logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	id, err := shader.CompileScene()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	r.program = gpu.NewProgram(r.backend, id)
	r.log.Debug("scene program created", zap.Uint32("program", id))

	return r, nil
}

// Backend returns the GL backend.
func (r *Renderer) Backend() gpu.Backend {
	return r.backend
}

// Program returns the scene program.
func (r *Renderer) Program() *gpu.Program {
	return r.program
}

// Close deletes the scene program.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.program != nil {
		shader.Delete(r.program.ID)
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Size returns the viewport size.
func (r *Renderer) Size() (int, int) {
	return r.config.Width, r.config.Height
}

// Aspect returns the viewport width over height.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Begin clears the frame and loads the camera matrices.
func (r *Renderer) Begin(view, projection math.Mat4) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	BeginScene(r.backend, r.program, view, projection)
}

// BeginScene binds p and sets the per-frame uniforms. Models are drawn
// with the view transform applied; box drawing turns it off again, so this
// runs before the models every frame.
func BeginScene(b gpu.Backend, p *gpu.Program, view, projection math.Mat4) {
	b.UseProgram(p.ID)
	b.SetUniformMat4(p.View, view)
	b.SetUniformMat4(p.Projection, projection)
	b.SetUniformBool(p.ApplyViewTransform, true)
	b.SetUniformBool(p.DrawingAABB, false)
	b.SetPolygonMode(gpu.PolygonFill)
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, width, height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}
