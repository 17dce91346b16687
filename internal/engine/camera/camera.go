// Package camera provides the per-frame camera snapshot consumed by the
// terrain systems and an orbit controller that produces it.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-terrain/internal/engine/geom"
)

// Camera is a read-only view of the camera for one frame.
type Camera struct {
	Position   mgl32.Vec3
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Near       float32
	Far        float32

	frustum geom.Frustum
}

// New builds a camera snapshot and its frustum.
func New(position mgl32.Vec3, view, projection mgl32.Mat4, near, far float32) Camera {
	return Camera{
		Position:   position,
		View:       view,
		Projection: projection,
		Near:       near,
		Far:        far,
		frustum:    geom.NewFrustum(projection.Mul4(view)),
	}
}

// LookAt builds a perspective camera at eye looking at target with +Z up.
// fovY is in degrees.
func LookAt(eye, target mgl32.Vec3, fovY, aspect, near, far float32) Camera {
	view := mgl32.LookAtV(eye, target, mgl32.Vec3{0, 0, 1})
	proj := mgl32.Perspective(mgl32.DegToRad(fovY), aspect, near, far)
	return New(eye, view, proj, near, far)
}

// ViewProj returns Projection * View.
func (c *Camera) ViewProj() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}

// Frustum returns the view frustum.
func (c *Camera) Frustum() *geom.Frustum {
	return &c.frustum
}
