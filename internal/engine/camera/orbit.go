package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Orbit circles a center point on the ground plane. Z is up.
type Orbit struct {
	// Center point to orbit around
	Center mgl32.Vec3

	// Spherical coordinates
	Distance float32 // Distance from center
	Pitch    float32 // Elevation above the ground plane (radians)
	Yaw      float32 // Rotation around Z (radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32

	// Projection
	FovY float32 // degrees
	Near float32
	Far  float32
}

// NewOrbit creates an orbit controller with the default steep top-down
// view from about 1200 units out.
func NewOrbit() *Orbit {
	return &Orbit{
		Distance:        1200.0,
		Pitch:           0.85,
		Yaw:             0.0,
		MinDistance:     300.0,
		MaxDistance:     5000.0,
		MinPitch:        0.1,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		FovY:            35.0,
		Near:            20.0,
		Far:             3000.0,
	}
}

// Position returns the eye position in world space.
func (o *Orbit) Position() mgl32.Vec3 {
	horiz := o.Distance * float32(math.Cos(float64(o.Pitch)))
	return mgl32.Vec3{
		o.Center[0] + horiz*float32(math.Sin(float64(o.Yaw))),
		o.Center[1] - horiz*float32(math.Cos(float64(o.Yaw))),
		o.Center[2] + o.Distance*float32(math.Sin(float64(o.Pitch))),
	}
}

// Camera returns the snapshot for the current controller state.
func (o *Orbit) Camera(aspect float32) Camera {
	return LookAt(o.Position(), o.Center, o.FovY, aspect, o.Near, o.Far)
}

// HandleDrag updates rotation based on mouse drag delta.
func (o *Orbit) HandleDrag(deltaX, deltaY float32) {
	o.Yaw -= deltaX * o.DragSensitivity
	o.Pitch += deltaY * o.DragSensitivity
	o.Pitch = clamp(o.Pitch, o.MinPitch, o.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (o *Orbit) HandleZoom(delta float32) {
	o.Distance -= delta * o.Distance * o.ZoomSensitivity
	o.Distance = clamp(o.Distance, o.MinDistance, o.MaxDistance)
}

// HandleMovement pans the center point relative to the view direction.
func (o *Orbit) HandleMovement(forward, right float32) {
	// Speed scales with distance for consistent feel
	speed := o.Distance * 0.01

	sin := float32(math.Sin(float64(o.Yaw)))
	cos := float32(math.Cos(float64(o.Yaw)))

	// Forward points from the eye towards the center
	o.Center[0] += (-sin*forward + cos*right) * speed
	o.Center[1] += (cos*forward + sin*right) * speed
}

// SetCenter sets the orbit center.
func (o *Orbit) SetCenter(x, y, z float32) {
	o.Center = mgl32.Vec3{x, y, z}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
