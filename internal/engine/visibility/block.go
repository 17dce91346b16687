// Package visibility partitions the terrain grid into fixed blocks and picks
// the visible blocks and their level of detail for each frame.
package visibility

import "github.com/Faultbox/midgard-terrain/internal/engine/geom"

// MaxMaskedBlockSize is the largest block side whose tiles fit the 64-bit
// per-tile visibility mask.
const MaxMaskedBlockSize = 8

// Block is a BlockSize×BlockSize texel aggregate. Bounds are computed once;
// LOD, Visible, Partial and TileMask are rewritten on every visibility pass.
type Block struct {
	GridX, GridY int
	Bounds       geom.AABB

	LOD     int
	Visible bool

	// Partial is set when the block straddles the frustum. TileMask then has
	// bit ty*BlockSize+tx set for every tile that touches the frustum.
	Partial  bool
	TileMask uint64
}

// TileVisible reports whether tile (tx, ty) of the block should be drawn.
func (b *Block) TileVisible(tx, ty, blockSize int) bool {
	if !b.Partial {
		return true
	}
	return b.TileMask&(1<<uint(ty*blockSize+tx)) != 0
}
