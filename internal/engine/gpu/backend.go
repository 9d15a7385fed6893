package gpu

import (
	"image"

	"github.com/Faultbox/chungus/pkg/math"
)

// BufferSet is a vertex array with its vertex and index buffers.
type BufferSet struct {
	VAO        uint32
	VBO        uint32
	EBO        uint32
	IndexCount int32
}

// Valid reports whether the buffers have been created.
func (b BufferSet) Valid() bool {
	return b.VAO != 0
}

// Filter is a texture sampling filter.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
	FilterLinearMipmapLinear
)

// Wrap is a texture coordinate wrap mode.
type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClampToEdge
)

// TextureParams controls how an image is uploaded.
type TextureParams struct {
	Mipmaps   bool
	MinFilter Filter
	MagFilter Filter
	WrapS     Wrap
	WrapT     Wrap
}

// DefaultTextureParams are used for every material texture: mipmapped,
// repeating, trilinear.
var DefaultTextureParams = TextureParams{
	Mipmaps:   true,
	MinFilter: FilterLinearMipmapLinear,
	MagFilter: FilterLinear,
	WrapS:     WrapRepeat,
	WrapT:     WrapRepeat,
}

// PolygonMode selects filled or wireframe rasterization.
type PolygonMode int

const (
	PolygonFill PolygonMode = iota
	PolygonLine
)

// Backend is the set of graphics operations the scene needs.
// Every call must happen on the goroutine that owns the graphics context.
type Backend interface {
	// CreateMesh uploads vertices and indices and configures the attribute layout.
	CreateMesh(vertices []Vertex, indices []uint32) (BufferSet, error)
	// DeleteMesh releases buffers created by CreateMesh.
	DeleteMesh(b BufferSet)
	// CreateTexture uploads an image and returns its handle.
	CreateTexture(img *image.RGBA, params TextureParams) (uint32, error)
	// DeleteTexture releases a texture handle.
	DeleteTexture(handle uint32)
	// BindTexture binds a 2D texture to a texture unit.
	BindTexture(unit uint32, handle uint32)

	UseProgram(program uint32)
	UniformLocation(program uint32, name string) int32
	SetUniformMat4(loc int32, m math.Mat4)
	SetUniformInt(loc int32, v int32)
	SetUniformBool(loc int32, v bool)

	SetPolygonMode(mode PolygonMode)
	// DrawIndexed draws the triangle list stored in b.
	DrawIndexed(b BufferSet)
}
