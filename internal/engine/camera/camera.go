// Package camera provides the free-fly camera used to walk the scene.
package camera

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/config"
	"github.com/Faultbox/chungus/internal/engine/collision"
	"github.com/Faultbox/chungus/internal/logger"
	"github.com/Faultbox/chungus/pkg/math"
)

// MaxPitch bounds the vertical look angle in degrees.
const MaxPitch = 90

// FPS is a first-person camera. Yaw 0 looks down -Z; positive yaw turns
// right and positive pitch looks up. Angles are in degrees.
type FPS struct {
	Position math.Vec3
	Pitch    float32
	Yaw      float32

	Speed       float32 // units per second
	Sensitivity float32 // degrees per mouse unit

	FOV  float32 // vertical, degrees
	Near float32
	Far  float32

	box        collision.AABB
	collisions int
	log        *zap.Logger
}

var _ collision.Collider = (*FPS)(nil)

// New creates a camera from its configuration.
func New(cfg config.CameraConfig) *FPS {
	pos := math.Vec3From(cfg.Position)
	return &FPS{
		Position:    pos,
		Speed:       cfg.Speed,
		Sensitivity: cfg.Sensitivity,
		FOV:         cfg.FOV,
		Near:        cfg.Near,
		Far:         cfg.Far,
		box:         collision.NewCameraAABB(pos, math.Vec3From(cfg.HalfExtents)),
		log:         logger.Named("camera"),
	}
}

func radians(deg float32) float32 {
	return deg * math32.Pi / 180
}

// Forward returns the unit look direction.
func (c *FPS) Forward() math.Vec3 {
	p, y := radians(c.Pitch), radians(c.Yaw)
	return math.Vec3{
		X: math32.Cos(p) * math32.Sin(y),
		Y: math32.Sin(p),
		Z: -math32.Cos(p) * math32.Cos(y),
	}
}

// Right returns the unit horizontal direction to the right of the view.
func (c *FPS) Right() math.Vec3 {
	y := radians(c.Yaw)
	return math.Vec3{X: math32.Cos(y), Z: math32.Sin(y)}
}

// flatForward is Forward projected onto the XZ plane, defined at any pitch.
func (c *FPS) flatForward() math.Vec3 {
	y := radians(c.Yaw)
	return math.Vec3{X: math32.Sin(y), Z: -math32.Cos(y)}
}

// View returns the world-to-camera matrix.
func (c *FPS) View() math.Mat4 {
	return math.RotateX(-radians(c.Pitch)).
		Mul(math.RotateY(radians(c.Yaw))).
		Mul(math.TranslateV(c.Position.Neg()))
}

// Projection returns the perspective matrix for the given width/height ratio.
func (c *FPS) Projection(aspect float32) math.Mat4 {
	return math.Perspective(radians(c.FOV), aspect, c.Near, c.Far)
}

// Move walks the camera on the XZ plane. forward and right are input axes
// in [-1, 1]; dt is the frame time in seconds. The box follows.
func (c *FPS) Move(forward, right, dt float32) {
	if forward == 0 && right == 0 {
		return
	}
	step := c.flatForward().Scale(forward).Add(c.Right().Scale(right))
	c.Position = c.Position.Add(step.Scale(c.Speed * dt))
	c.SyncBox()
}

// Rotate applies a mouse delta. Screen y grows downward, so moving the
// mouse down looks down.
func (c *FPS) Rotate(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch -= dy * c.Sensitivity
	if c.Pitch > MaxPitch {
		c.Pitch = MaxPitch
	}
	if c.Pitch < -MaxPitch {
		c.Pitch = -MaxPitch
	}
	c.Yaw = math32.Mod(c.Yaw, 360)
}

// SyncBox moves the collision box to the camera position.
func (c *FPS) SyncBox() {
	c.box.Position = c.Position
}

// BoundingBox returns the camera's collision box.
func (c *FPS) BoundingBox() collision.AABB {
	return c.box
}

// OnCollidedWith records an overlap with another box.
func (c *FPS) OnCollidedWith(other collision.AABB) {
	c.collisions++
	c.log.Debug("camera collided", logger.Vec3("with", other.Position.Array()))
}

// Collisions returns how many overlaps have been reported.
func (c *FPS) Collisions() int {
	return c.collisions
}
