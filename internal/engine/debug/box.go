// Package debug draws collision boxes and captures screenshots.
package debug

import (
	"github.com/Faultbox/chungus/internal/engine/collision"
	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/pkg/math"
)

// BoxIndices is the triangle list over the corners returned by
// collision.AABB.Bounds. Drawn in line mode it outlines the box.
var BoxIndices = [36]uint32{
	0, 1, 2, 0, 2, 3, // top
	0, 3, 7, 0, 4, 7, // +z
	2, 3, 7, 2, 6, 7, // -x
	1, 2, 6, 1, 5, 6, // -z
	1, 0, 4, 1, 5, 4, // +x
	4, 5, 6, 4, 6, 7, // bottom
}

// BoxVertices returns the eight corners of box as vertices. Camera boxes
// are built around the origin since they are drawn in view space.
func BoxVertices(box collision.AABB) []gpu.Vertex {
	if box.BoundsCamera {
		box = box.Centered()
	}
	corners := box.Bounds()
	out := make([]gpu.Vertex, len(corners))
	for i, c := range corners {
		out[i].Position = c.Array()
	}
	return out
}

// Wireframe is the GPU outline of one box. Buffers are created on the first
// Draw and rebuilt after Invalidate.
type Wireframe struct {
	box     collision.AABB
	buffers gpu.BufferSet
	stale   bool
}

// NewWireframe creates an unuploaded outline of box.
func NewWireframe(box collision.AABB) *Wireframe {
	return &Wireframe{box: box}
}

// Box returns the outlined box.
func (w *Wireframe) Box() collision.AABB {
	return w.box
}

// SetBox replaces the outlined box, rebuilding only if its shape changed.
func (w *Wireframe) SetBox(box collision.AABB) {
	if box.Position == w.box.Position && box.HalfExtents == w.box.HalfExtents &&
		box.BoundsCamera == w.box.BoundsCamera {
		w.box = box
		return
	}
	w.box = box
	w.Invalidate()
}

// Invalidate forces the buffers to be rebuilt on the next Draw.
func (w *Wireframe) Invalidate() {
	w.stale = true
}

// Draw outlines the box in line mode with an identity model matrix. It
// leaves ApplyViewTransform and DrawingAABB false and restores fill mode.
func (w *Wireframe) Draw(b gpu.Backend, p *gpu.Program) error {
	if w.stale && w.buffers.Valid() {
		b.DeleteMesh(w.buffers)
		w.buffers = gpu.BufferSet{}
	}
	if !w.buffers.Valid() {
		buffers, err := b.CreateMesh(BoxVertices(w.box), BoxIndices[:])
		if err != nil {
			return err
		}
		w.buffers = buffers
		w.stale = false
	}

	b.SetPolygonMode(gpu.PolygonLine)
	b.SetUniformMat4(p.Model, math.Identity())
	b.SetUniformBool(p.ApplyViewTransform, !w.box.BoundsCamera)
	b.SetUniformBool(p.DrawingAABB, true)
	b.DrawIndexed(w.buffers)
	b.SetUniformBool(p.ApplyViewTransform, false)
	b.SetUniformBool(p.DrawingAABB, false)
	b.SetPolygonMode(gpu.PolygonFill)
	return nil
}

// Dispose deletes the buffers. The wireframe can be drawn again afterwards.
func (w *Wireframe) Dispose(b gpu.Backend) {
	if w.buffers.Valid() {
		b.DeleteMesh(w.buffers)
		w.buffers = gpu.BufferSet{}
	}
}
