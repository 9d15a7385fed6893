// Package collision implements axis-aligned bounding boxes and an exhaustive
// pairwise broad phase over registered colliders.
package collision

import (
	"github.com/Faultbox/chungus/pkg/math"
)

// AABB is an axis-aligned box given by its center and half extents.
// Bounds are closed: points on a face are inside. A zero half extent is a
// flat box and still contains the points of its plane.
type AABB struct {
	Position    math.Vec3
	HalfExtents math.Vec3

	// BoundsCamera marks a box that follows the camera. Its wireframe is
	// built around the origin and drawn without the view transform.
	BoundsCamera bool
	// Active boxes take part in the broad phase.
	Active bool
}

// NewAABB creates an active box. Negative extents are taken as absolute.
func NewAABB(position, halfExtents math.Vec3) AABB {
	return AABB{
		Position:    position,
		HalfExtents: halfExtents.Abs(),
		Active:      true,
	}
}

// NewCameraAABB creates an active box that bounds the camera.
func NewCameraAABB(position, halfExtents math.Vec3) AABB {
	b := NewAABB(position, halfExtents)
	b.BoundsCamera = true
	return b
}

// Min returns the corner with the smallest coordinates.
func (b AABB) Min() math.Vec3 {
	return b.Position.Sub(b.HalfExtents)
}

// Max returns the corner with the largest coordinates.
func (b AABB) Max() math.Vec3 {
	return b.Position.Add(b.HalfExtents)
}

// Bounds returns the eight corners. The top face (+y) comes first, starting
// at +x+y+z and turning through -z and -x; the bottom face follows in the
// same order. debug.BoxIndices depends on this order.
func (b AABB) Bounds() [8]math.Vec3 {
	p, h := b.Position, b.HalfExtents
	return [8]math.Vec3{
		{X: p.X + h.X, Y: p.Y + h.Y, Z: p.Z + h.Z},
		{X: p.X + h.X, Y: p.Y + h.Y, Z: p.Z - h.Z},
		{X: p.X - h.X, Y: p.Y + h.Y, Z: p.Z - h.Z},
		{X: p.X - h.X, Y: p.Y + h.Y, Z: p.Z + h.Z},
		{X: p.X + h.X, Y: p.Y - h.Y, Z: p.Z + h.Z},
		{X: p.X + h.X, Y: p.Y - h.Y, Z: p.Z - h.Z},
		{X: p.X - h.X, Y: p.Y - h.Y, Z: p.Z - h.Z},
		{X: p.X - h.X, Y: p.Y - h.Y, Z: p.Z + h.Z},
	}
}

// IsPointBound reports whether p lies inside the box, faces included.
func (b AABB) IsPointBound(p math.Vec3) bool {
	lo, hi := b.Min(), b.Max()
	return p.X >= lo.X && p.X <= hi.X &&
		p.Y >= lo.Y && p.Y <= hi.Y &&
		p.Z >= lo.Z && p.Z <= hi.Z
}

// IsAnyPointBoundBy reports whether any corner of b lies inside other.
//
// Only corners are tested, so two boxes crossing like a plus sign, with no
// corner of either inside the other, are not detected. Callers test both
// directions to catch the common cases.
func (b AABB) IsAnyPointBoundBy(other AABB) bool {
	for _, c := range b.Bounds() {
		if other.IsPointBound(c) {
			return true
		}
	}
	return false
}

// IsCompletelyBoundBy reports whether every corner of b lies inside other.
func (b AABB) IsCompletelyBoundBy(other AABB) bool {
	for _, c := range b.Bounds() {
		if !other.IsPointBound(c) {
			return false
		}
	}
	return true
}

// Translated returns the box moved by offset.
func (b AABB) Translated(offset math.Vec3) AABB {
	b.Position = b.Position.Add(offset)
	return b
}

// Centered returns the box moved to the origin, as drawn for camera boxes.
func (b AABB) Centered() AABB {
	b.Position = math.Vec3{}
	return b
}
