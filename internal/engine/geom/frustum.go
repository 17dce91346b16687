// Package geom provides bounding volumes and view-frustum tests.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the box center.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extend grows the box to include p.
func (b *AABB) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Plane is a plane in the form a*x + b*y + c*z + d = 0 with a unit normal.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

func normalizePlane(a, b, c, d float32) Plane {
	l := float32(math.Sqrt(float64(a*a + b*b + c*c)))
	if l == 0 {
		return Plane{Normal: mgl32.Vec3{a, b, c}, D: d}
	}
	return Plane{Normal: mgl32.Vec3{a / l, b / l, c / l}, D: d / l}
}

// Containment is the result of a frustum test.
type Containment int

const (
	Outside Containment = iota
	Intersect
	Inside
)

// Frustum is the six clip planes of a view volume, normals pointing inward.
// Order: left, right, bottom, top, near, far.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum extracts the planes of the combined projection*view matrix.
func NewFrustum(viewProj mgl32.Mat4) Frustum {
	// mgl32 matrices are column-major
	m00, m01, m02, m03 := viewProj[0], viewProj[4], viewProj[8], viewProj[12]
	m10, m11, m12, m13 := viewProj[1], viewProj[5], viewProj[9], viewProj[13]
	m20, m21, m22, m23 := viewProj[2], viewProj[6], viewProj[10], viewProj[14]
	m30, m31, m32, m33 := viewProj[3], viewProj[7], viewProj[11], viewProj[15]

	var f Frustum
	f.Planes[0] = normalizePlane(m30+m00, m31+m01, m32+m02, m33+m03)
	f.Planes[1] = normalizePlane(m30-m00, m31-m01, m32-m02, m33-m03)
	f.Planes[2] = normalizePlane(m30+m10, m31+m11, m32+m12, m33+m13)
	f.Planes[3] = normalizePlane(m30-m10, m31-m11, m32-m12, m33-m13)
	f.Planes[4] = normalizePlane(m30+m20, m31+m21, m32+m22, m33+m23)
	f.Planes[5] = normalizePlane(m30-m20, m31-m21, m32-m22, m33-m23)
	return f
}

// TestAABB classifies a box against the frustum using the positive and
// negative vertex of each plane.
func (f *Frustum) TestAABB(b AABB) Containment {
	result := Inside
	for i := range f.Planes {
		p := &f.Planes[i]
		pos := b.Min
		neg := b.Max
		for axis := 0; axis < 3; axis++ {
			if p.Normal[axis] >= 0 {
				pos[axis] = b.Max[axis]
				neg[axis] = b.Min[axis]
			}
		}
		if p.Distance(pos) < 0 {
			return Outside
		}
		if p.Distance(neg) < 0 {
			result = Intersect
		}
	}
	return result
}

// IntersectsAABB reports whether the box is not disjoint from the frustum.
func (f *Frustum) IntersectsAABB(b AABB) bool {
	return f.TestAABB(b) != Outside
}

// IntersectsSphere reports whether a sphere touches the frustum.
func (f *Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(center) < -radius {
			return false
		}
	}
	return true
}
