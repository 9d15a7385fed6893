// Package world assembles the scene: objects loaded from configuration, the
// camera, the collision pass and the debug boxes.
package world

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/assets"
	"github.com/Faultbox/chungus/internal/config"
	"github.com/Faultbox/chungus/internal/engine/camera"
	"github.com/Faultbox/chungus/internal/engine/collision"
	"github.com/Faultbox/chungus/internal/engine/debug"
	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/internal/engine/importer"
	"github.com/Faultbox/chungus/internal/engine/model"
	"github.com/Faultbox/chungus/internal/engine/resource"
	"github.com/Faultbox/chungus/internal/engine/scene"
	"github.com/Faultbox/chungus/internal/engine/texture"
	"github.com/Faultbox/chungus/internal/game/entity"
	"github.com/Faultbox/chungus/internal/logger"
	"github.com/Faultbox/chungus/pkg/math"
)

// World owns every scene service and the objects placed in it.
type World struct {
	Camera *camera.FPS

	// DrawBoxes enables the collision box wireframes.
	DrawBoxes bool

	deps     entity.Deps
	imports  *importer.Cached
	objects  []*entity.GameObject
	boxes    map[*entity.GameObject]*debug.Wireframe
	camBox   *debug.Wireframe
	lastHits int
	log      *zap.Logger
}

// New creates an empty world drawing through b.
func New(cfg *config.Config, b gpu.Backend, imp importer.Importer, dec texture.Decoder) (*World, error) {
	flags, err := importer.ParseFlags(cfg.Assets.PostProcess)
	if err != nil {
		return nil, fmt.Errorf("post-process flags: %w", err)
	}

	imports := importer.NewCached(imp)
	w := &World{
		Camera:    camera.New(cfg.Camera),
		DrawBoxes: cfg.Debug.DrawBoxes,
		deps: entity.Deps{
			Importer:  imports,
			Cache:     resource.New(b, dec, resource.WithDecodeWorkers(cfg.Assets.DecodeWorkers)),
			Backend:   b,
			Registry:  scene.NewRegistry(),
			Colliders: collision.NewSet(),
			Flags:     flags,
			Resolver:  assets.NewResolver(cfg.Assets.Root),
		},
		imports: imports,
		boxes:   make(map[*entity.GameObject]*debug.Wireframe),
		log:     logger.Named("world"),
	}
	w.camBox = debug.NewWireframe(w.Camera.BoundingBox())
	w.deps.Colliders.Register(w.Camera)
	return w, nil
}

// Populate spawns every configured object. Textures of all models are
// decoded up front in parallel. Objects that fail to load are skipped and
// their errors returned together.
func (w *World) Populate(ctx context.Context, objects []config.ObjectConfig) error {
	var errs []error
	var textures []string
	seen := make(map[string]bool)

	for _, spec := range objects {
		path := w.deps.Resolver.Path(spec.Model)
		if seen[path] {
			continue
		}
		seen[path] = true
		s, err := w.imports.Import(path, w.deps.Flags)
		if err != nil {
			// reported again by Spawn
			continue
		}
		textures = append(textures, model.TexturePaths(path, s)...)
	}

	if err := w.deps.Cache.Preload(ctx, textures); err != nil {
		if ctx.Err() != nil {
			return err
		}
		w.log.Warn("texture preload failed, loading on demand", zap.Error(err))
	}

	for _, spec := range objects {
		if _, err := w.Spawn(spec); err != nil {
			errs = append(errs, err)
		}
	}

	w.log.Info("world populated",
		zap.Int("objects", len(w.objects)),
		zap.Int("failed", len(errs)),
		zap.Int("textures", w.deps.Cache.Len()),
	)
	return errors.Join(errs...)
}

// Spawn loads one object and adds it to the scene.
func (w *World) Spawn(spec config.ObjectConfig) (*entity.GameObject, error) {
	o, err := entity.New(w.deps, spec)
	if err != nil {
		return nil, err
	}
	w.objects = append(w.objects, o)
	w.boxes[o] = debug.NewWireframe(o.BoundingBox())
	return o, nil
}

// Remove disposes o and drops it from the scene.
func (w *World) Remove(o *entity.GameObject) bool {
	for i, obj := range w.objects {
		if obj != o {
			continue
		}
		w.objects = append(w.objects[:i], w.objects[i+1:]...)
		if box, ok := w.boxes[o]; ok {
			box.Dispose(w.deps.Backend)
			delete(w.boxes, o)
		}
		o.Dispose()
		return true
	}
	return false
}

// Objects returns the live objects in spawn order.
func (w *World) Objects() []*entity.GameObject {
	return w.objects
}

// Registry returns the draw registry.
func (w *World) Registry() *scene.Registry {
	return w.deps.Registry
}

// Colliders returns the broad-phase set.
func (w *World) Colliders() *collision.Set {
	return w.deps.Colliders
}

// Cache returns the texture cache.
func (w *World) Cache() *resource.Cache {
	return w.deps.Cache
}

// Update applies movement input to the camera and runs the collision pass.
// forward and right are input axes, dx and dy the mouse motion, dt the frame
// time in seconds. It returns the number of collision notifications.
func (w *World) Update(forward, right, dx, dy, dt float32) int {
	if dx != 0 || dy != 0 {
		w.Camera.Rotate(dx, dy)
	}
	w.Camera.Move(forward, right, dt)
	w.Camera.SyncBox()

	hits := w.deps.Colliders.Run()
	if hits != w.lastHits {
		w.log.Debug("collisions", zap.Int("notifications", hits))
		w.lastHits = hits
	}
	return hits
}

// CameraTouching reports whether the camera box overlaps any live object.
func (w *World) CameraTouching() bool {
	for _, o := range w.objects {
		if o.BoundingBox().Active && collision.TestCollision(w.Camera, o) {
			return true
		}
	}
	return false
}

// Draw issues every model draw, then the boxes when enabled. The caller
// sets the camera uniforms first.
func (w *World) Draw(b gpu.Backend, p *gpu.Program) error {
	err := w.deps.Registry.DrawAll(b, p)
	if !w.DrawBoxes {
		return err
	}

	errs := []error{err}
	for _, o := range w.objects {
		box := o.BoundingBox()
		if !box.Active {
			continue
		}
		wf := w.boxes[o]
		wf.SetBox(box)
		errs = append(errs, wf.Draw(b, p))
	}
	w.camBox.SetBox(w.Camera.BoundingBox())
	errs = append(errs, w.camBox.Draw(b, p))
	return errors.Join(errs...)
}

// PickAt returns the nearest object under a screen position.
func (w *World) PickAt(x, y float32, width, height int) (*entity.GameObject, bool) {
	if width <= 0 || height <= 0 {
		return nil, false
	}
	viewProj := w.Camera.Projection(float32(width) / float32(height)).Mul(w.Camera.View())
	ray := collision.ScreenToRay(x, y, float32(width), float32(height), viewProj.Inverse())

	c, dist, ok := w.deps.Colliders.Pick(ray, w.Camera)
	if !ok {
		return nil, false
	}
	hit, ok := c.(*entity.GameObject)
	if !ok {
		return nil, false
	}
	w.log.Debug("picked", zap.String("object", hit.Name), logger.Vec3("at", ray.At(dist).Array()))
	return hit, true
}

// CameraRay returns the ray through the screen centre.
func (w *World) CameraRay() collision.Ray {
	return collision.Ray{Origin: w.Camera.Position, Direction: w.Camera.Forward()}
}

// Close disposes every object and releases the texture cache.
func (w *World) Close() {
	for _, o := range w.objects {
		o.Dispose()
	}
	for _, box := range w.boxes {
		box.Dispose(w.deps.Backend)
	}
	w.camBox.Dispose(w.deps.Backend)
	w.deps.Colliders.Deregister(w.Camera)
	w.objects = nil
	clear(w.boxes)
	w.deps.Cache.Release()
	w.imports.Forget()
}

// Bounds returns the box enclosing every live object, or false when empty.
func (w *World) Bounds() (collision.AABB, bool) {
	if len(w.objects) == 0 {
		return collision.AABB{}, false
	}
	lo := w.objects[0].BoundingBox().Min()
	hi := w.objects[0].BoundingBox().Max()
	for _, o := range w.objects[1:] {
		b := o.BoundingBox()
		lo = minVec(lo, b.Min())
		hi = maxVec(hi, b.Max())
	}
	center := lo.Add(hi).Scale(0.5)
	return collision.NewAABB(center, hi.Sub(center)), true
}

func minVec(a, b math.Vec3) math.Vec3 {
	return math.Vec3{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
}

func maxVec(a, b math.Vec3) math.Vec3 {
	return math.Vec3{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
}
