package model

import (
	"fmt"

	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/internal/engine/resource"
	"github.com/Faultbox/chungus/internal/engine/texture"
)

// Mesh is one uploaded vertex/index buffer pair and the textures it samples.
// Textures are borrowed from the resource cache and never freed here.
type Mesh struct {
	Name     string
	Textures []resource.Texture

	buffers     gpu.BufferSet
	vertexCount int
}

// NewMesh uploads vertices and triangle-list indices.
func NewMesh(b gpu.Backend, name string, vertices []gpu.Vertex, indices []uint32, textures []resource.Texture) (*Mesh, error) {
	buffers, err := b.CreateMesh(vertices, indices)
	if err != nil {
		return nil, fmt.Errorf("upload mesh %q: %w", name, err)
	}
	return &Mesh{
		Name:        name,
		Textures:    textures,
		buffers:     buffers,
		vertexCount: len(vertices),
	}, nil
}

// Buffers returns the GPU buffers of the mesh.
func (m *Mesh) Buffers() gpu.BufferSet {
	return m.buffers
}

// VertexCount returns the number of uploaded vertices.
func (m *Mesh) VertexCount() int {
	return m.vertexCount
}

// IndexCount returns the number of uploaded indices.
func (m *Mesh) IndexCount() int {
	return int(m.buffers.IndexCount)
}

// Draw binds each texture to the next texture unit, points its sampler
// (texture_diffuse1, texture_diffuse2, texture_specular1, ...) at that unit
// and issues the indexed draw. The model matrix must already be set.
func (m *Mesh) Draw(b gpu.Backend, p *gpu.Program) {
	counts := make(map[texture.Kind]int, len(texture.Kinds))
	for unit, tex := range m.Textures {
		counts[tex.Kind]++
		b.BindTexture(uint32(unit), tex.Handle)
		b.SetUniformInt(p.Sampler(b, tex.Kind.SamplerName(counts[tex.Kind])), int32(unit))
	}
	b.DrawIndexed(m.buffers)
}

func (m *Mesh) release(b gpu.Backend) {
	if m.buffers.Valid() {
		b.DeleteMesh(m.buffers)
		m.buffers = gpu.BufferSet{}
	}
}
