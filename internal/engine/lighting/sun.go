package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts azimuth/elevation angles in degrees to a unit vector
// pointing from the ground towards the sun. Azimuth is measured around +Z
// starting at +X, elevation from the horizon.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := float64(azimuth) * math.Pi / 180.0
	el := float64(elevation) * math.Pi / 180.0

	return mgl32.Vec3{
		float32(math.Cos(el) * math.Cos(az)),
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Sin(el)),
	}
}
