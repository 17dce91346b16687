package terrain

import "github.com/go-gl/mathgl/mgl32"

// Texture ids used by generated terrain.
const (
	GeneratedGrass = 0
	GeneratedDirt  = 2
	GeneratedRock  = 3
)

// Generate builds a deterministic synthetic map of size×size texels: rolling
// hills from hashed value noise, grass on flat ground, dirt blended in on
// slopes, rock on the peaks, and water (texture 5) in the valleys. The same
// seed always yields the same map.
func Generate(size int, scale float32, seed uint32) (*Data, error) {
	d, err := NewData(size, scale)
	if err != nil {
		return nil, err
	}

	const (
		waterLevel = 60
		rockLevel  = 300
	)

	for y := range size {
		for x := range size {
			i := d.Index(x, y)
			h := fractalNoise(float32(x), float32(y), size, seed) * 380
			d.Height[i] = h

			d.Layer1[i] = GeneratedGrass
			d.Layer2[i] = GeneratedDirt

			switch {
			case h < waterLevel:
				d.Layer1[i] = GeneratedDirt
				d.Layer2[i] = WaterTexture
				d.Alpha[i] = blendByte(waterLevel-h, 0, 20)
				d.Flags[i] |= FlagWater
				if h < waterLevel-30 {
					d.Flags[i] |= FlagNoMove
				}
			case h > rockLevel:
				d.Layer2[i] = GeneratedRock
				d.Alpha[i] = blendByte(h-rockLevel, 0, 40)
			default:
				// Patchy dirt on open ground
				n := HashFloat(int32(x), int32(y), seed^0x5bd1e995)
				if n > 0.92 {
					d.Alpha[i] = uint8(128 + n*127)
				}
			}

			// Light falls off slightly with depth so valleys read darker
			shade := 200 + clampf(h, 0, 380)/380*55
			d.StaticLight[i] = mgl32.Vec3{shade, shade, shade * 0.95}
			d.FinalLight[i] = d.StaticLight[i]
		}
	}

	// Safe zone around the map center
	c := size / 2
	for y := c - 4; y < c+4; y++ {
		for x := c - 4; x < c+4; x++ {
			d.Flags[d.WrapIndex(x, y)] |= FlagSafeZone
		}
	}
	return d, nil
}

// fractalNoise sums three octaves of value noise that tile with period size.
func fractalNoise(x, y float32, size int, seed uint32) float32 {
	var sum, norm float32
	amp := float32(1)
	cell := size / 8
	for octave := range 3 {
		if cell < 1 {
			break
		}
		sum += valueNoise(x/float32(cell), y/float32(cell), size/cell, seed+uint32(octave)*7919) * amp
		norm += amp
		amp *= 0.5
		cell /= 2
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// valueNoise is smoothly interpolated lattice noise with the given period in
// lattice cells.
func valueNoise(x, y float32, period int, seed uint32) float32 {
	xi := int(x)
	yi := int(y)
	xf := smooth(x - float32(xi))
	yf := smooth(y - float32(yi))

	at := func(ix, iy int) float32 {
		return HashFloat(int32(ix%period), int32(iy%period), seed)
	}
	v00 := at(xi, yi)
	v10 := at(xi+1, yi)
	v01 := at(xi, yi+1)
	v11 := at(xi+1, yi+1)

	near := v00 + (v10-v00)*xf
	far := v01 + (v11-v01)*xf
	return near + (far-near)*yf
}

func smooth(t float32) float32 {
	return t * t * (3 - 2*t)
}

func blendByte(v, lo, hi float32) uint8 {
	t := clampf((v-lo)/(hi-lo), 0, 1)
	return uint8(t * 255)
}
