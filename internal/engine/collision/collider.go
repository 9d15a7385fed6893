package collision

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/logger"
)

// Collider is anything with a bounding box that wants to hear about
// overlaps. BoundingBox must stay safe to call after the owner is disposed.
type Collider interface {
	BoundingBox() AABB
	OnCollidedWith(other AABB)
}

// TestCollision reports whether a corner of either box lies in the other.
func TestCollision(a, b Collider) bool {
	ba, bb := a.BoundingBox(), b.BoundingBox()
	return ba.IsAnyPointBoundBy(bb) || bb.IsAnyPointBoundBy(ba)
}

// IsInsideOf reports whether a's box is completely inside b's.
func IsInsideOf(a, b Collider) bool {
	return a.BoundingBox().IsCompletelyBoundBy(b.BoundingBox())
}

// RunCollisionTests runs the broad phase over colliders and returns the
// number of notifications delivered.
//
// Every box is read once up front, so callbacks that move boxes do not
// affect the rest of the pass. For each ordered pair (A, B) of distinct
// active colliders, A is notified with B's box when any corner of A lies
// in B; overlapping pairs are therefore usually notified in both
// directions. A callback that panics is logged and skipped.
func RunCollisionTests(colliders []Collider) int {
	boxes := make([]AABB, len(colliders))
	ok := make([]bool, len(colliders))
	for i, c := range colliders {
		boxes[i], ok[i] = snapshot(c)
	}

	delivered := 0
	for i, a := range colliders {
		if !ok[i] || !boxes[i].Active {
			continue
		}
		for j := range colliders {
			if i == j || !ok[j] || !boxes[j].Active {
				continue
			}
			if !boxes[i].IsAnyPointBoundBy(boxes[j]) {
				continue
			}
			if notify(a, boxes[j]) {
				delivered++
			}
		}
	}
	return delivered
}

func snapshot(c Collider) (box AABB, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Named("collision").Error("bounding box query panicked",
				zap.String("collider", fmt.Sprintf("%T", c)),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()
	return c.BoundingBox(), true
}

func notify(c Collider, other AABB) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Named("collision").Error("collision callback panicked",
				zap.String("collider", fmt.Sprintf("%T", c)),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			ok = false
		}
	}()
	c.OnCollidedWith(other)
	return true
}
