package collision

import (
	"reflect"
	"sync"
)

// Set is the list of registered colliders. Colliders are compared by
// identity, so register pointers. A value collider holding a slice or map
// has no identity: it is always added and can never be deregistered.
type Set struct {
	mu        sync.Mutex
	colliders []Collider
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{}
}

// Register adds c. Registering the same collider twice is a no-op.
func (s *Set) Register(c Collider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.colliders {
		if sameCollider(existing, c) {
			return
		}
	}
	s.colliders = append(s.colliders, c)
}

// Deregister removes c and reports whether it was registered.
func (s *Set) Deregister(c Collider) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.colliders {
		if sameCollider(existing, c) {
			s.colliders = append(s.colliders[:i:i], s.colliders[i+1:]...)
			return true
		}
	}
	return false
}

// Colliders returns a copy of the registered colliders in registration order.
func (s *Set) Colliders() []Collider {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Collider, len(s.colliders))
	copy(out, s.colliders)
	return out
}

// Len returns the number of registered colliders.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.colliders)
}

// Run performs the broad phase over the current members.
func (s *Set) Run() int {
	return RunCollisionTests(s.Colliders())
}

// Pick returns the active collider whose box the ray enters first, ignoring
// the colliders in skip.
func (s *Set) Pick(r Ray, skip ...Collider) (hit Collider, dist float32, ok bool) {
next:
	for _, c := range s.Colliders() {
		for _, sk := range skip {
			if sameCollider(c, sk) {
				continue next
			}
		}
		box := c.BoundingBox()
		if !box.Active {
			continue
		}
		if t, h := r.IntersectAABB(box); h && (!ok || t < dist) {
			hit, dist, ok = c, t, true
		}
	}
	return hit, dist, ok
}

func sameCollider(a, b Collider) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return reflect.ValueOf(a).Comparable() && a == b
}
