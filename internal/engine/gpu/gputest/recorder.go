// Package gputest provides a recording gpu.Backend for tests.
package gputest

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/pkg/math"
)

// ErrInjected is returned by calls configured to fail.
var ErrInjected = errors.New("gputest: injected failure")

// Draw records one DrawIndexed call and the state it was issued with.
type Draw struct {
	Buffers  gpu.BufferSet
	Model    math.Mat4
	Textures map[uint32]uint32 // unit -> handle
	Mode     gpu.PolygonMode
}

// Recorder is an in-memory Backend. Handles are allocated sequentially from 1.
// It is safe for concurrent use so tests can catch off-thread uploads.
type Recorder struct {
	mu sync.Mutex

	nextHandle uint32
	nextLoc    int32

	// FailMeshAfter makes CreateMesh fail once this many meshes exist (0 = never).
	FailMeshAfter int
	// FailTextures makes every CreateTexture call fail.
	FailTextures bool

	Meshes         map[uint32]gpu.BufferSet // live meshes by VAO
	Textures       map[uint32]image.Rectangle
	TextureUploads int
	MeshUploads    int
	Deleted        []gpu.BufferSet

	Locations map[string]int32
	Mat4s     map[int32]math.Mat4
	Ints      map[int32]int32
	Bools     map[int32]bool
	// BoolHistory records every SetUniformBool call in order.
	BoolHistory []BoolSet

	Program uint32
	Mode    gpu.PolygonMode
	Bound   map[uint32]uint32
	Draws   []Draw
}

// BoolSet is one recorded bool uniform write.
type BoolSet struct {
	Loc   int32
	Value bool
}

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{
		Meshes:    make(map[uint32]gpu.BufferSet),
		Textures:  make(map[uint32]image.Rectangle),
		Locations: make(map[string]int32),
		Mat4s:     make(map[int32]math.Mat4),
		Ints:      make(map[int32]int32),
		Bools:     make(map[int32]bool),
		Bound:     make(map[uint32]uint32),
	}
}

var _ gpu.Backend = (*Recorder)(nil)

func (r *Recorder) handle() uint32 {
	r.nextHandle++
	return r.nextHandle
}

// CreateMesh records a mesh upload.
func (r *Recorder) CreateMesh(vertices []gpu.Vertex, indices []uint32) (gpu.BufferSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(vertices) == 0 || len(indices) == 0 {
		return gpu.BufferSet{}, errors.New("create mesh: empty vertex or index data")
	}
	if r.FailMeshAfter > 0 && len(r.Meshes) >= r.FailMeshAfter {
		return gpu.BufferSet{}, ErrInjected
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return gpu.BufferSet{}, fmt.Errorf("create mesh: index %d out of range (%d vertices)", idx, len(vertices))
		}
	}

	b := gpu.BufferSet{VAO: r.handle(), VBO: r.handle(), EBO: r.handle(), IndexCount: int32(len(indices))}
	r.Meshes[b.VAO] = b
	r.MeshUploads++
	return b, nil
}

// DeleteMesh records a mesh release.
func (r *Recorder) DeleteMesh(b gpu.BufferSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Meshes, b.VAO)
	r.Deleted = append(r.Deleted, b)
}

// CreateTexture records a texture upload.
func (r *Recorder) CreateTexture(img *image.RGBA, params gpu.TextureParams) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailTextures {
		return 0, ErrInjected
	}
	h := r.handle()
	r.Textures[h] = img.Bounds()
	r.TextureUploads++
	return h, nil
}

// DeleteTexture records a texture release.
func (r *Recorder) DeleteTexture(handle uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.Textures, handle)
}

// BindTexture records a texture unit binding.
func (r *Recorder) BindTexture(unit uint32, handle uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Bound[unit] = handle
}

// UseProgram records the current program.
func (r *Recorder) UseProgram(program uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Program = program
}

// UniformLocation allocates a stable location per name.
func (r *Recorder) UniformLocation(program uint32, name string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc, ok := r.Locations[name]; ok {
		return loc
	}
	loc := r.nextLoc
	r.nextLoc++
	r.Locations[name] = loc
	return loc
}

// Loc returns the location previously allocated for name, or -1.
func (r *Recorder) Loc(name string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc, ok := r.Locations[name]; ok {
		return loc
	}
	return -1
}

// SetUniformMat4 records a matrix uniform.
func (r *Recorder) SetUniformMat4(loc int32, m math.Mat4) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Mat4s[loc] = m
}

// SetUniformInt records an int uniform.
func (r *Recorder) SetUniformInt(loc int32, v int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ints[loc] = v
}

// SetUniformBool records a bool uniform.
func (r *Recorder) SetUniformBool(loc int32, v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Bools[loc] = v
	r.BoolHistory = append(r.BoolHistory, BoolSet{Loc: loc, Value: v})
}

// SetPolygonMode records the rasterization mode.
func (r *Recorder) SetPolygonMode(mode gpu.PolygonMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Mode = mode
}

// DrawIndexed records a draw with a snapshot of the bound state.
func (r *Recorder) DrawIndexed(b gpu.BufferSet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bound := make(map[uint32]uint32, len(r.Bound))
	for unit, h := range r.Bound {
		bound[unit] = h
	}
	var model math.Mat4
	if loc, ok := r.Locations[gpu.UniformModel]; ok {
		model = r.Mat4s[loc]
	}
	r.Draws = append(r.Draws, Draw{Buffers: b, Model: model, Textures: bound, Mode: r.Mode})
}
