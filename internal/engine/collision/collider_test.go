package collision

import (
	"testing"

	"github.com/Faultbox/chungus/pkg/math"
)

type body struct {
	box  AABB
	hits []AABB
	// move shifts the box on every notification
	move bool
}

func (b *body) BoundingBox() AABB { return b.box }

func (b *body) OnCollidedWith(other AABB) {
	b.hits = append(b.hits, other)
	if b.move {
		b.box.Position.X += 100
	}
}

type panicky struct {
	body
}

func (p *panicky) OnCollidedWith(AABB) {
	panic("boom")
}

func newBody(x float32) *body {
	return &body{box: NewAABB(math.Vec3{X: x}, math.Vec3{X: 1, Y: 1, Z: 1})}
}

func TestRunCollisionTestsSymmetric(t *testing.T) {
	a, b := newBody(0), newBody(1)

	n := RunCollisionTests([]Collider{a, b})
	if n != 2 {
		t.Errorf("delivered %d notifications, want 2", n)
	}
	if len(a.hits) != 1 || a.hits[0].Position != b.box.Position {
		t.Errorf("A hits = %v", a.hits)
	}
	if len(b.hits) != 1 || b.hits[0].Position != a.box.Position {
		t.Errorf("B hits = %v", b.hits)
	}
}

func TestRunCollisionTestsAsymmetric(t *testing.T) {
	inner := &body{box: NewAABB(math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1})}
	outer := &body{box: NewAABB(math.Vec3{}, math.Vec3{X: 2, Y: 2, Z: 2})}

	RunCollisionTests([]Collider{inner, outer})
	if len(inner.hits) != 1 {
		t.Errorf("inner box should be notified once, got %d", len(inner.hits))
	}
	if len(outer.hits) != 0 {
		t.Errorf("no corner of the outer box is inside the inner one, got %d hits", len(outer.hits))
	}
}

func TestRunCollisionTestsSkipsSelfInactiveAndFar(t *testing.T) {
	a, far := newBody(0), newBody(50)
	sleeping := newBody(0.5)
	sleeping.box.Active = false

	if n := RunCollisionTests([]Collider{a, far, sleeping}); n != 0 {
		t.Errorf("delivered %d notifications, want 0", n)
	}
	if len(a.hits)+len(far.hits)+len(sleeping.hits) != 0 {
		t.Error("no collider should be notified")
	}
}

func TestRunCollisionTestsUsesSnapshot(t *testing.T) {
	a, b, c := newBody(0), newBody(1.5), newBody(-1.5)
	a.move = true

	RunCollisionTests([]Collider{a, b, c})
	// a moves away after its first hit but the pass still sees the old box
	if len(b.hits) != 1 || len(c.hits) != 1 {
		t.Errorf("b hits %d, c hits %d, want 1 each", len(b.hits), len(c.hits))
	}
	if len(a.hits) != 2 {
		t.Errorf("a hits %d, want 2", len(a.hits))
	}
}

func TestRunCollisionTestsIsolatesPanics(t *testing.T) {
	bad := &panicky{body: *newBody(0)}
	good := newBody(0.5)

	n := RunCollisionTests([]Collider{bad, good})
	if n != 1 {
		t.Errorf("delivered %d notifications, want 1", n)
	}
	if len(good.hits) != 1 {
		t.Error("healthy collider should still be notified")
	}
}

func TestTestCollisionAndIsInsideOf(t *testing.T) {
	small := newBody(0)
	big := &body{box: NewAABB(math.Vec3{}, math.Vec3{X: 3, Y: 3, Z: 3})}
	far := newBody(20)

	if !TestCollision(big, small) || !TestCollision(small, big) {
		t.Error("TestCollision should check both directions")
	}
	if TestCollision(small, far) {
		t.Error("distant boxes should not collide")
	}
	if !IsInsideOf(small, big) || IsInsideOf(big, small) {
		t.Error("IsInsideOf should be one-directional")
	}
}

func TestSet(t *testing.T) {
	s := NewSet()
	a, b := newBody(0), newBody(1)

	s.Register(a)
	s.Register(b)
	s.Register(a)
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	if n := s.Run(); n != 2 {
		t.Errorf("Run = %d, want 2", n)
	}

	if !s.Deregister(a) {
		t.Error("Deregister should report true for a member")
	}
	if s.Deregister(a) {
		t.Error("second Deregister should report false")
	}
	if cs := s.Colliders(); len(cs) != 1 || cs[0] != b {
		t.Errorf("Colliders = %v", cs)
	}
	if n := s.Run(); n != 0 {
		t.Errorf("Run with one member = %d", n)
	}
}

type taggedBox struct {
	box  AABB
	tags []string
}

func (c taggedBox) BoundingBox() AABB   { return c.box }
func (c taggedBox) OnCollidedWith(AABB) {}

func TestSetUncomparableValues(t *testing.T) {
	s := NewSet()
	v := taggedBox{box: NewAABB(math.Vec3{}, math.Vec3{X: 1, Y: 1, Z: 1}), tags: []string{"a"}}
	p := newBody(0)

	s.Register(p)
	s.Register(v)
	s.Register(v)
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
	if s.Deregister(v) {
		t.Error("a collider without identity cannot be deregistered")
	}
	if !s.Deregister(p) {
		t.Error("pointer member should still deregister")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestSetPick(t *testing.T) {
	s := NewSet()
	near, farther, behind := newBody(5), newBody(10), newBody(-5)
	hidden := newBody(3)
	hidden.box.Active = false
	for _, b := range []*body{farther, near, behind, hidden} {
		s.Register(b)
	}

	r := Ray{Origin: math.Vec3{}, Direction: math.Vec3{X: 1}}
	hit, dist, ok := s.Pick(r)
	if !ok || hit != near {
		t.Fatalf("Pick = %v, %v, %v, want the near box", hit, dist, ok)
	}
	if dist != 4 {
		t.Errorf("dist = %v, want 4", dist)
	}

	if _, _, ok := s.Pick(Ray{Direction: math.Vec3{Y: 1}}); ok {
		t.Error("ray pointing up should miss")
	}

	// A box around the ray origin is hit at its exit distance unless skipped.
	around := newBody(0)
	s.Register(around)
	if hit, _, _ := s.Pick(r); hit != around {
		t.Errorf("Pick = %v, want the box around the origin", hit)
	}
	if hit, _, _ := s.Pick(r, around); hit != near {
		t.Errorf("Pick skipping the origin box = %v, want the near box", hit)
	}
}
