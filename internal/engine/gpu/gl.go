package gpu

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/chungus/pkg/math"
)

// GL implements Backend on an OpenGL 4.1 core context.
// gl.Init must have succeeded on the calling thread before use.
type GL struct{}

// NewGL returns the OpenGL backend.
func NewGL() *GL {
	return &GL{}
}

var _ Backend = (*GL)(nil)

// CreateMesh uploads a static vertex and index buffer.
func (g *GL) CreateMesh(vertices []Vertex, indices []uint32) (BufferSet, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return BufferSet{}, errors.New("create mesh: empty vertex or index data")
	}

	var b BufferSet
	gl.GenVertexArrays(1, &b.VAO)
	gl.BindVertexArray(b.VAO)

	gl.GenBuffers(1, &b.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*VertexStride, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &b.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(AttribPosition)
	gl.VertexAttribPointerWithOffset(AttribPosition, 3, gl.FLOAT, false, VertexStride, PositionOffset)
	gl.EnableVertexAttribArray(AttribNormal)
	gl.VertexAttribPointerWithOffset(AttribNormal, 3, gl.FLOAT, false, VertexStride, NormalOffset)
	gl.EnableVertexAttribArray(AttribTexCoord)
	gl.VertexAttribPointerWithOffset(AttribTexCoord, 2, gl.FLOAT, false, VertexStride, TexCoordOffset)

	gl.BindVertexArray(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		g.DeleteMesh(b)
		return BufferSet{}, fmt.Errorf("create mesh: gl error 0x%x", code)
	}

	b.IndexCount = int32(len(indices))
	return b, nil
}

// DeleteMesh releases the vertex array and both buffers.
func (*GL) DeleteMesh(b BufferSet) {
	if b.VAO != 0 {
		gl.DeleteVertexArrays(1, &b.VAO)
	}
	if b.VBO != 0 {
		gl.DeleteBuffers(1, &b.VBO)
	}
	if b.EBO != 0 {
		gl.DeleteBuffers(1, &b.EBO)
	}
}

// CreateTexture uploads an RGBA image as a 2D texture.
func (*GL) CreateTexture(img *image.RGBA, params TextureParams) (uint32, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0, errors.New("create texture: empty image")
	}

	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	if params.Mipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(params.WrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(params.WrapT))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(params.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(params.MagFilter))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &texID)
		return 0, fmt.Errorf("create texture: gl error 0x%x", code)
	}
	return texID, nil
}

// DeleteTexture releases a texture.
func (*GL) DeleteTexture(handle uint32) {
	if handle != 0 {
		gl.DeleteTextures(1, &handle)
	}
}

// BindTexture binds handle to the given texture unit.
func (*GL) BindTexture(unit uint32, handle uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, handle)
}

// UseProgram makes program current.
func (*GL) UseProgram(program uint32) {
	gl.UseProgram(program)
}

// UniformLocation returns the location of a named uniform, or -1.
func (*GL) UniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// SetUniformMat4 uploads a column-major matrix.
func (*GL) SetUniformMat4(loc int32, m math.Mat4) {
	gl.UniformMatrix4fv(loc, 1, false, &m[0])
}

// SetUniformInt sets an int or sampler uniform.
func (*GL) SetUniformInt(loc int32, v int32) {
	gl.Uniform1i(loc, v)
}

// SetUniformBool sets a bool uniform.
func (*GL) SetUniformBool(loc int32, v bool) {
	var i int32
	if v {
		i = 1
	}
	gl.Uniform1i(loc, i)
}

// SetPolygonMode switches between filled and wireframe rasterization.
func (*GL) SetPolygonMode(mode PolygonMode) {
	if mode == PolygonLine {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		return
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
}

// DrawIndexed draws b as an indexed triangle list.
func (*GL) DrawIndexed(b BufferSet) {
	gl.BindVertexArray(b.VAO)
	gl.DrawElementsWithOffset(gl.TRIANGLES, b.IndexCount, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func glWrap(w Wrap) int32 {
	if w == WrapClampToEdge {
		return gl.CLAMP_TO_EDGE
	}
	return gl.REPEAT
}

func glFilter(f Filter) int32 {
	switch f {
	case FilterNearest:
		return gl.NEAREST
	case FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}
