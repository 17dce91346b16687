// Package lighting computes terrain normals, bakes the static light map and
// evaluates dynamic point lights.
package lighting

import "github.com/go-gl/mathgl/mgl32"

// Positioner is an emitter that a light follows. The light only reads the
// position; it never controls the emitter's lifetime.
type Positioner interface {
	Position() mgl32.Vec3
}

// DynamicLight is a point light placed by a world object (candle, bonfire,
// street lamp). Color is 0..1 per channel.
type DynamicLight struct {
	Owner     Positioner // optional
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Radius    float32
	Intensity float32
}

// contribution returns the light's additive color at point,
// or false when the point is outside the radius.
func (l *DynamicLight) contribution(point mgl32.Vec3) (mgl32.Vec3, bool) {
	if l.Radius <= 0 {
		return mgl32.Vec3{}, false
	}
	d := point.Sub(l.Position)
	distSq := d.Dot(d)
	if distSq > l.Radius*l.Radius {
		return mgl32.Vec3{}, false
	}
	falloff := 1 - d.Len()/l.Radius
	return l.Color.Mul(l.Intensity * 255 * falloff), true
}
