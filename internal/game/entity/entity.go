// Package entity implements scene objects: a model, its collision box and
// their registrations.
package entity

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/assets"
	"github.com/Faultbox/chungus/internal/config"
	"github.com/Faultbox/chungus/internal/engine/collision"
	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/internal/engine/importer"
	"github.com/Faultbox/chungus/internal/engine/model"
	"github.com/Faultbox/chungus/internal/engine/resource"
	"github.com/Faultbox/chungus/internal/engine/scene"
	"github.com/Faultbox/chungus/internal/logger"
	"github.com/Faultbox/chungus/pkg/math"
)

// ErrDisposed is returned when a disposed object is used.
var ErrDisposed = errors.New("game object disposed")

// State is the lifecycle stage of a GameObject.
type State uint8

const (
	StateConstructed State = iota
	StateActive
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateActive:
		return "active"
	case StateDisposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Deps are the services a GameObject registers with.
type Deps struct {
	Importer  importer.Importer
	Cache     *resource.Cache
	Backend   gpu.Backend
	Registry  *scene.Registry
	Colliders *collision.Set
	Flags     importer.Flags
	Resolver  *assets.Resolver
}

// GameObject owns one model and one box. The box is placed once at
// construction and does not follow the model.
type GameObject struct {
	Name string

	deps  Deps
	model *model.Model
	box   collision.AABB
	id    scene.ID
	state State
	hits  int
	log   *zap.Logger
}

var _ collision.Collider = (*GameObject)(nil)

// Rotation converts pitch, yaw and roll in degrees to a quaternion.
func Rotation(deg [3]float32) math.Quat {
	const toRad = gomath.Pi / 180
	return math.QuatFromEuler(deg[0]*toRad, deg[1]*toRad, deg[2]*toRad)
}

// New loads the object's model and registers it for drawing and collision.
// Nothing is registered if the load fails.
func New(deps Deps, spec config.ObjectConfig) (*GameObject, error) {
	path := spec.Model
	if deps.Resolver != nil {
		path = deps.Resolver.Path(spec.Model)
	}
	pos := math.Vec3From(spec.Position)

	o := &GameObject{
		Name:  spec.Name,
		deps:  deps,
		model: model.New(path, pos, Rotation(spec.Rotation)),
		box:   collision.NewAABB(pos, math.Vec3From(spec.HalfExtents)),
		log:   logger.Named("entity").With(zap.String("object", spec.Name)),
	}
	if o.Name == "" {
		o.Name = spec.Model
	}

	if err := o.model.Load(deps.Importer, deps.Cache, deps.Backend, deps.Flags); err != nil {
		return nil, fmt.Errorf("object %s: %w", o.Name, err)
	}

	o.id = deps.Registry.Add(o.model)
	deps.Colliders.Register(o)
	o.state = StateActive
	o.log.Debug("object active", zap.Uint64("id", uint64(o.id)), logger.Vec3("position", pos.Array()))
	return o, nil
}

// ID returns the registry id.
func (o *GameObject) ID() scene.ID {
	return o.id
}

// Model returns the owned model.
func (o *GameObject) Model() *model.Model {
	return o.model
}

// State returns the lifecycle stage.
func (o *GameObject) State() State {
	return o.state
}

// Hits returns the number of collision notifications received.
func (o *GameObject) Hits() int {
	return o.hits
}

// BoundingBox returns the object's box. It is safe to call after Dispose;
// a disposed object's box is inactive.
func (o *GameObject) BoundingBox() collision.AABB {
	return o.box
}

// SetBox replaces the collision box.
func (o *GameObject) SetBox(box collision.AABB) error {
	if o.state == StateDisposed {
		return ErrDisposed
	}
	o.box = box
	return nil
}

// OnCollidedWith records an overlap with another box.
func (o *GameObject) OnCollidedWith(other collision.AABB) {
	o.hits++
	o.log.Debug("collision", logger.Vec3("with", other.Position.Array()))
}

// Dispose deregisters the object and frees its mesh buffers. Textures stay
// in the cache since other models may share them. Calling Dispose again is
// a no-op.
func (o *GameObject) Dispose() {
	if o.state == StateDisposed {
		return
	}
	o.deps.Registry.Remove(o.id)
	o.deps.Colliders.Deregister(o)
	o.model.Dispose(o.deps.Backend)
	o.box.Active = false
	o.state = StateDisposed
	o.log.Debug("object disposed")
}
